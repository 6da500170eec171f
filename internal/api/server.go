package api

import (
	"context"
	"database/sql"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/ledger"
	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/token"
	"github.com/kashguard/go-validation-infra/internal/validation"
	"github.com/kashguard/go-validation-infra/internal/verify"
)

// Router groups the route hierarchy of the server. Handlers attach their
// routes to these groups, never to the echo instance directly.
type Router struct {
	Routes      []*echo.Route
	Root        *echo.Group
	Management  *echo.Group
	APIV1Authz  *echo.Group
	APIV1Chains *echo.Group
}

// Server carries every component of the verification service. It is
// assembled by wire; handlers only ever see this struct.
type Server struct {
	Config   config.Server
	Chains   []config.Chain
	DB       *sql.DB
	Redis    *redis.Client
	Echo     *echo.Echo
	Router   *Router
	Metrics  *metrics.Service
	Clock    time2.Clock
	Pools    *chain.Pools
	Registry *verify.Registry
	Ledger   *ledger.Ledger
	Issuer   *token.Issuer
	Engine   *validation.Engine
	Health   *chain.HealthChecker
}

// newServerWithComponents is the wire assembly target combining all
// components into the server.
func newServerWithComponents(
	cfg config.Server,
	chains []config.Chain,
	db *sql.DB,
	redisClient *redis.Client,
	m *metrics.Service,
	clock time2.Clock,
	pools *chain.Pools,
	registry *verify.Registry,
	nonceLedger *ledger.Ledger,
	issuer *token.Issuer,
	engine *validation.Engine,
	health *chain.HealthChecker,
) *Server {
	if db != nil {
		m.Registry.MustRegister(sqlstats.NewStatsCollector(cfg.Database.Database, db))
	}

	return &Server{
		Config:   cfg,
		Chains:   chains,
		DB:       db,
		Redis:    redisClient,
		Metrics:  m,
		Clock:    clock,
		Pools:    pools,
		Registry: registry,
		Ledger:   nonceLedger,
		Issuer:   issuer,
		Engine:   engine,
		Health:   health,
	}
}

// Ready reports whether the server has all components it needs to serve
// requests. The database is only required when the record backend is
// postgres.
func (s *Server) Ready() bool {
	if s.Echo == nil || s.Router == nil || s.Engine == nil || s.Ledger == nil {
		return false
	}

	if s.Config.Validation.RecordBackend == config.RecordBackendPostgres && s.DB == nil {
		return false
	}

	return true
}

// Start starts the echo server on the configured listen address.
func (s *Server) Start() error {
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown gracefully stops the echo server and closes all connections.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Warn().Msg("Shutting down server")

	if s.DB != nil {
		if err := s.DB.Close(); err != nil && err != sql.ErrConnDone {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis connection")
		}
	}

	return s.Echo.Shutdown(ctx)
}
