package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"

	"github.com/kashguard/go-validation-infra/internal/util"
)

// Database holds the PostgreSQL connection settings for the nonce record store.
type Database struct {
	Host             string
	Port             int
	Username         string
	Password         string
	Database         string
	AdditionalParams map[string]string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	MigrationDir     string
}

// ConnectionString builds a lib/pq style DSN from the settings.
func (c Database) ConnectionString() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.Username, c.Password, c.Database))

	if len(c.AdditionalParams) > 0 {
		params := make([]string, 0, len(c.AdditionalParams))
		for param := range c.AdditionalParams {
			params = append(params, param)
		}
		sort.Strings(params)

		for _, param := range params {
			fmt.Fprintf(&b, " %s=%s", param, c.AdditionalParams[param])
		}
	}

	return b.String()
}

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableLoggerMiddleware         bool
	EnablePrometheusMiddleware     bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogRequestQuery    bool
	LogResponseBody    bool
	LogResponseHeader  bool
	PrettyPrintConsole bool
}

// Redis holds the connection settings for the distributed reservation lease
// store. Only consulted when Validation.LeaseBackend is "redis".
type Redis struct {
	Address  string
	Password string
	DB       int
}

// AuthServer configures the authorization token issuer.
type AuthServer struct {
	TokenIssuer   string
	TokenAudience string
	TokenExpiry   time.Duration
	// SigningKeySeedHex is the hex encoded Ed25519 seed of the issuer key.
	// When empty an ephemeral key is generated at startup (dev only).
	SigningKeySeedHex string
}

// Backends selectable for the nonce ledger stores.
const (
	RecordBackendPostgres string = "postgres"
	RecordBackendMemory   string = "memory"
	LeaseBackendRedis     string = "redis"
	LeaseBackendMemory    string = "memory"
)

// Validation configures the proof verification pipeline.
type Validation struct {
	// ChainsFile points to the TOML file declaring the supported chains.
	ChainsFile string
	// RecordBackend selects the durable nonce record store: "postgres" or "memory".
	RecordBackend string
	// LeaseBackend selects the reservation lease store: "redis" or "memory".
	LeaseBackend string
	// LeaseDuration bounds how long a reservation may stay open before the
	// key becomes reservable again.
	LeaseDuration time.Duration
	// RetryAfterHint is returned with indeterminate verdicts caused by
	// unavailable chains or stores.
	RetryAfterHint time.Duration
	// ContentionRetryAfterHint is returned when a reservation is already held.
	ContentionRetryAfterHint time.Duration
	HealthcheckInterval      time.Duration
	HealthcheckTimeout       time.Duration
}

type Server struct {
	Database   Database
	Echo       EchoServer
	Logger     LoggerServer
	Redis      Redis
	Auth       AuthServer
	Validation Validation
}

var dotEnvOnce sync.Once

// DefaultServiceConfigFromEnv returns the server config as parsed from the
// environment. A local .env file is loaded once if present.
func DefaultServiceConfigFromEnv() Server {
	dotEnvOnce.Do(func() {
		_ = gotenv.Load(util.GetEnv("SERVER_ENV_FILE", ".env"))
	})

	return Server{
		Database: Database{
			Host:     util.GetEnv("PGHOST", "127.0.0.1"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Username: util.GetEnv("PGUSER", "validation"),
			Password: util.GetEnv("PGPASSWORD", ""),
			Database: util.GetEnv("PGDATABASE", "validation"),
			AdditionalParams: map[string]string{
				"sslmode": util.GetEnv("PGSSLMODE", "disable"),
			},
			MaxOpenConns:    util.GetEnvAsInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns:    util.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(util.GetEnvAsInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
			MigrationDir:    util.GetEnv("DB_MIGRATION_DIR", "migrations"),
		},
		Echo: EchoServer{
			Debug:                          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnablePrometheusMiddleware:     util.GetEnvAsBool("SERVER_ECHO_ENABLE_PROMETHEUS_MIDDLEWARE", true),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.InfoLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogRequestQuery:    util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_QUERY", false),
			LogResponseBody:    util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_BODY", false),
			LogResponseHeader:  util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_HEADER", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Redis: Redis{
			Address:  util.GetEnv("SERVER_REDIS_ADDRESS", "127.0.0.1:6379"),
			Password: util.GetEnv("SERVER_REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("SERVER_REDIS_DB", 0),
		},
		Auth: AuthServer{
			TokenIssuer:       util.GetEnv("SERVER_AUTH_TOKEN_ISSUER", "validation-infra"),
			TokenAudience:     util.GetEnv("SERVER_AUTH_TOKEN_AUDIENCE", "mpc-signer"),
			TokenExpiry:       time.Duration(util.GetEnvAsInt("SERVER_AUTH_TOKEN_EXPIRY_SEC", 120)) * time.Second,
			SigningKeySeedHex: util.GetEnv("SERVER_AUTH_SIGNING_KEY_SEED", ""),
		},
		Validation: Validation{
			ChainsFile:               util.GetEnv("SERVER_VALIDATION_CHAINS_FILE", "chains.toml"),
			RecordBackend:            util.GetEnv("SERVER_VALIDATION_RECORD_BACKEND", "postgres"),
			LeaseBackend:             util.GetEnv("SERVER_VALIDATION_LEASE_BACKEND", "memory"),
			LeaseDuration:            time.Duration(util.GetEnvAsInt("SERVER_VALIDATION_LEASE_DURATION_MS", 15000)) * time.Millisecond,
			RetryAfterHint:           time.Duration(util.GetEnvAsInt("SERVER_VALIDATION_RETRY_AFTER_MS", 5000)) * time.Millisecond,
			ContentionRetryAfterHint: time.Duration(util.GetEnvAsInt("SERVER_VALIDATION_CONTENTION_RETRY_AFTER_MS", 1000)) * time.Millisecond,
			HealthcheckInterval:      time.Duration(util.GetEnvAsInt("SERVER_VALIDATION_HEALTHCHECK_INTERVAL_SEC", 30)) * time.Second,
			HealthcheckTimeout:       time.Duration(util.GetEnvAsInt("SERVER_VALIDATION_HEALTHCHECK_TIMEOUT_MS", 2000)) * time.Millisecond,
		},
	}
}
