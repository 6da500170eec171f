package db

import (
	"github.com/spf13/cobra"

	"github.com/kashguard/go-validation-infra/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("db",
		newMigrate(),
		newStatus(),
	)
}
