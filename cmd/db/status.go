package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-validation-infra/internal/config"
)

func newStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Shows applied and pending database migrations",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()
			config.InitLogger(cfg)

			if err := printStatus(cfg); err != nil {
				log.Fatal().Err(err).Msg("Failed to read migration status")
			}
		},
	}
}

func printStatus(cfg config.Server) error {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	source := &migrate.FileMigrationSource{Dir: cfg.Database.MigrationDir}

	planned, err := source.FindMigrations()
	if err != nil {
		return err
	}

	applied, err := migrate.GetMigrationRecords(db, "postgres")
	if err != nil {
		return err
	}

	appliedByID := make(map[string]*migrate.MigrationRecord, len(applied))
	for _, record := range applied {
		appliedByID[record.Id] = record
	}

	for _, migration := range planned {
		if record, ok := appliedByID[migration.Id]; ok {
			fmt.Printf("applied  %s (%s)\n", migration.Id, record.AppliedAt.Format(time.RFC3339))
			continue
		}

		fmt.Printf("pending  %s\n", migration.Id)
	}

	return nil
}
