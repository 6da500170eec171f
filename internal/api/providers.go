package api

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	_ "github.com/lib/pq" // postgres driver for database/sql
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/ledger"
	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/token"
	"github.com/kashguard/go-validation-infra/internal/validation"
	"github.com/kashguard/go-validation-infra/internal/verify"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

// NewDB opens the PostgreSQL pool for the nonce record store. With a
// non-postgres record backend no database is needed and nil is returned.
func NewDB(cfg config.Server) (*sql.DB, error) {
	if cfg.Validation.RecordBackend != config.RecordBackendPostgres {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// NewChains 加载并校验链声明
func NewChains(cfg config.Server) ([]config.Chain, error) {
	return config.LoadChains(cfg.Validation.ChainsFile)
}

// NewRedisClient connects to redis when the lease backend needs it,
// otherwise returns nil.
func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Validation.LeaseBackend != config.LeaseBackendRedis {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

func NewLeaseStore(cfg config.Server, client *redis.Client, clock time2.Clock) ledger.LeaseStore {
	if client != nil {
		return ledger.NewRedisLeaseStore(client)
	}

	return ledger.NewInMemoryLeaseStore(clock)
}

func NewRecordStore(cfg config.Server, db *sql.DB) (ledger.RecordStore, error) {
	if cfg.Validation.RecordBackend == config.RecordBackendPostgres {
		if db == nil {
			return nil, errors.New("postgres record backend requires a database connection")
		}

		return ledger.NewPostgreSQLRecordStore(db), nil
	}

	return ledger.NewInMemoryRecordStore(), nil
}

func NewLedger(cfg config.Server, leases ledger.LeaseStore, records ledger.RecordStore, clock time2.Clock) *ledger.Ledger {
	return ledger.New(cfg, leases, records, clock)
}

func NewPools(chains []config.Chain, m *metrics.Service) (*chain.Pools, error) {
	return chain.NewPools(chains, m)
}

func NewRegistry(chains []config.Chain) *verify.Registry {
	return verify.NewRegistry(chains)
}

func NewIssuer(cfg config.Server, clock time2.Clock) (*token.Issuer, error) {
	return token.New(cfg, clock)
}

func NewEngine(cfg config.Server, registry *verify.Registry, pools *chain.Pools, nonceLedger *ledger.Ledger, issuer *token.Issuer, m *metrics.Service, clock time2.Clock) *validation.Engine {
	return validation.NewEngine(cfg, registry, pools, nonceLedger, issuer, m, clock)
}

func NewHealthChecker(cfg config.Server, pools *chain.Pools, m *metrics.Service, clock time2.Clock) *chain.HealthChecker {
	return chain.NewHealthChecker(pools, m, clock, cfg.Validation.HealthcheckInterval, cfg.Validation.HealthcheckTimeout)
}
