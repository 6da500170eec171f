package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/router"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/util"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// DefaultTestConfig returns a server config suited for handler tests: both
// ledger backends run in memory and the chain declarations are read from
// test/testdata. No database or redis connection is required.
func DefaultTestConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Echo.ListenAddress = ":0"
	cfg.Validation.RecordBackend = config.RecordBackendMemory
	cfg.Validation.LeaseBackend = config.LeaseBackendMemory
	cfg.Validation.ChainsFile = filepath.Join(util.GetProjectRootDir(), "test", "testdata", "chains.toml")

	return cfg
}

// WithTestServer creates a fully wired server on memory backends and calls
// closure with it.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestConfig(), closure)
}

// WithTestServerConfigurable creates a server from the given config and calls
// closure with it. The server uses a mock clock pinned to the current time.
func WithTestServerConfigurable(t *testing.T, config config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithDB(config, nil, t)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	router.Init(s)

	closure(s)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("failed to shutdown server: %v", err)
	}
}

// WithTestServerAndEvidence wires the engine against the given evidence source
// instead of the configured chain endpoint pools. Handler tests use this to
// script chain responses without running RPC fixtures.
func WithTestServerAndEvidence(t *testing.T, source validation.EvidenceSource, closure func(s *api.Server)) {
	t.Helper()

	WithTestServer(t, func(s *api.Server) {
		s.Engine = validation.NewEngine(s.Config, s.Registry, source, s.Ledger, s.Issuer, s.Metrics, s.Clock)

		closure(s)
	})
}
