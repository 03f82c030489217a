// Package testutil provides PostgreSQL pools for adapter tests.
//
// Tests run against TEST_DATABASE_URL when it is set. Otherwise, with
// ITEST_POSTGRES=container, a throwaway postgres container is started.
// With neither, the calling test is skipped.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/flavorhub/community-api/internal/adapters/postgres"
)

// OpenMigratedPool returns a pool whose schema is up to date and whose tables are empty.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		if strings.ToLower(os.Getenv("ITEST_POSTGRES")) != "container" {
			t.Skip("set TEST_DATABASE_URL or ITEST_POSTGRES=container to run postgres tests")
		}
		url = startContainer(t)
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolOptions{URL: url, ConnectTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ResetTables(t, pool)
	return pool
}

// ResetTables empties every application table.
func ResetTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `TRUNCATE users, idempotency_keys RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("flavorhub"),
		tcpostgres.WithUsername("flavorhub"),
		tcpostgres.WithPassword("flavorhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}
	return url
}
