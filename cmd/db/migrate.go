package db

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-validation-infra/internal/config"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies pending database migrations",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()
			config.InitLogger(cfg)

			n, err := ApplyMigrations(cfg)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}

			log.Info().Int("applied", n).Msg("Migrations applied")
		},
	}
}

// ApplyMigrations runs all pending migrations from the configured migration
// directory and returns the number applied.
func ApplyMigrations(cfg config.Server) (int, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return 0, err
	}
	defer db.Close()

	migrations := &migrate.FileMigrationSource{Dir: cfg.Database.MigrationDir}

	return migrate.Exec(db, "postgres", migrations, migrate.Up)
}
