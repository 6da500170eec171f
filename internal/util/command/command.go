package command

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/router"
	"github.com/kashguard/go-validation-infra/internal/config"
)

// WithServer initializes a fully wired server without starting to listen,
// passes it to f and shuts it down afterwards. Intended for subcommands that
// need access to server components.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	config.InitLogger(cfg)

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	router.Init(s)

	defer func() {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown server")
		}
	}()

	return f(ctx, s)
}

// NewSubcommandGroup returns a bare cobra command grouping subcommands under
// the given use line.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
