package test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	integresql "github.com/allaboutapps/integresql-client-go"
	integresqlutil "github.com/allaboutapps/integresql-client-go/pkg/util"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/kashguard/go-validation-infra/internal/util"
)

var (
	client *integresql.Client
	hash   string

	// tracks template database initialization
	doOnce sync.Once
)

// WithTestDatabase executes the closure with an isolated, migrated postgres
// database provisioned through IntegreSQL. Skipped unless an IntegreSQL
// instance is reachable via INTEGRESQL_CLIENT_BASE_URL.
func WithTestDatabase(t *testing.T, closure func(db *sql.DB)) {
	t.Helper()

	if os.Getenv("INTEGRESQL_CLIENT_BASE_URL") == "" {
		t.Skip("skipping, INTEGRESQL_CLIENT_BASE_URL is not set")
	}

	ctx := context.Background()

	doOnce.Do(func() {
		t.Helper()
		initializeTestDatabaseTemplate(ctx, t)
	})

	testDatabase, err := client.GetTestDatabase(ctx, hash)
	if err != nil {
		t.Fatalf("failed to obtain test database: %v", err)
	}

	db, err := sql.Open("postgres", testDatabase.Config.ConnectionString())
	if err != nil {
		t.Fatalf("failed to open test database connection: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	closure(db)
}

func initializeTestDatabaseTemplate(ctx context.Context, t *testing.T) {
	t.Helper()

	h, err := integresqlutil.GetTemplateHash(migrationsDir())
	if err != nil {
		t.Fatalf("failed to get template hash: %v", err)
	}
	hash = h

	c, err := integresql.DefaultClientFromEnv()
	if err != nil {
		t.Fatalf("failed to create integresql client: %v", err)
	}
	client = c

	if err := client.SetupTemplateWithDBClient(ctx, hash, func(db *sql.DB) error {
		return applyMigrations(db)
	}); err != nil {
		// fatal for the whole package, nothing db-backed can run
		t.Fatalf("failed to setup template database for hash %q: %v", hash, err)
	}
}

func applyMigrations(db *sql.DB) error {
	migrations := &migrate.FileMigrationSource{Dir: migrationsDir()}

	_, err := migrate.Exec(db, "postgres", migrations, migrate.Up)

	return err
}

func migrationsDir() string {
	return filepath.Join(util.GetProjectRootDir(), "migrations")
}
