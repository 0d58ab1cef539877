// Package testutil provides shared integration-test infrastructure.
//
// Unit tests keep their mocks package-local; this package only holds
// the pieces that need real external resources (a database, an API
// key) and therefore skip themselves when those are absent.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthnav/healthnav/db"
	"github.com/healthnav/healthnav/internal/database"
)

// testDatabaseEnv names the connection URL integration tests use.
// The database needs the pgvector extension available.
const testDatabaseEnv = "HEALTHNAV_TEST_DATABASE_URL"

// SetupTestDB connects to the integration-test database, runs
// migrations and empties the document tables so every test starts
// from a clean corpus. Skips the test when HEALTHNAV_TEST_DATABASE_URL
// is not set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connURL := os.Getenv(testDatabaseEnv)
	if connURL == "" {
		t.Skipf("%s not set, skipping database integration test", testDatabaseEnv)
	}

	ctx := context.Background()
	if err := db.Migrate(connURL); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	pool, err := database.NewPool(ctx, connURL, database.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, "TRUNCATE documents RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("resetting test database: %v", err)
	}
	return pool
}
