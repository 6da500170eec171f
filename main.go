package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-validation-infra/cmd/db"
	"github.com/kashguard/go-validation-infra/cmd/probe"
	"github.com/kashguard/go-validation-infra/cmd/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "validation-infra",
		Short: "Proof verification and signing authorization service",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}
		},
	}

	rootCmd.AddCommand(
		server.New(),
		db.New(),
		probe.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
