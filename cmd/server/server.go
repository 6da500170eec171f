package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kashguard/go-validation-infra/cmd/db"
	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/router"
	"github.com/kashguard/go-validation-infra/internal/config"
)

const (
	listenAddressFlag string = "listen-address"
	chainsFileFlag    string = "chains-file"
	recordBackendFlag string = "record-backend"
	leaseBackendFlag  string = "lease-backend"
	migrateFlag       string = "migrate"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the proof verification server",
		Run: func(cmd *cobra.Command, _ []string) {
			runServer(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String(listenAddressFlag, "", "Listen address override, e.g. \":8080\"")
	flags.String(chainsFileFlag, "", "Chain declarations file override")
	flags.String(recordBackendFlag, "", "Nonce record store backend override (\"postgres\" or \"memory\")")
	flags.String(leaseBackendFlag, "", "Reservation lease store backend override (\"redis\" or \"memory\")")
	flags.BoolP(migrateFlag, "m", false, "Apply pending database migrations before starting")

	return cmd
}

func runServer(cmd *cobra.Command) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind server flags")
	}

	cfg := config.DefaultServiceConfigFromEnv()
	config.InitLogger(cfg)

	if s := v.GetString(listenAddressFlag); s != "" {
		cfg.Echo.ListenAddress = s
	}
	if s := v.GetString(chainsFileFlag); s != "" {
		cfg.Validation.ChainsFile = s
	}
	if s := v.GetString(recordBackendFlag); s != "" {
		cfg.Validation.RecordBackend = s
	}
	if s := v.GetString(leaseBackendFlag); s != "" {
		cfg.Validation.LeaseBackend = s
	}

	if v.GetBool(migrateFlag) && cfg.Validation.RecordBackend == config.RecordBackendPostgres {
		n, err := db.ApplyMigrations(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}

		log.Info().Int("applied", n).Msg("Migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if cfg.Validation.RecordBackend == config.RecordBackendPostgres {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := s.DB.PingContext(pingCtx)
		cancel()

		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
	}

	router.Init(s)

	go s.Health.Run(ctx)

	go func() {
		log.Info().Str("listen_address", cfg.Echo.ListenAddress).Msg("Starting server")

		if err := s.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info().Msg("Server closed")
			} else {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to gracefully shut down server")
	}
}
