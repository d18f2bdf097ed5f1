package testdb

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/marketplace-api/internal/ciutil"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/redact"
	"github.com/stretchr/testify/require"
)

// DatabaseURLEnv names the database used by integration tests.
// LegacyDatabaseURLEnv is still honored, with a warning.
const (
	DatabaseURLEnv       = "MARKET_TEST_DATABASE_URL"
	LegacyDatabaseURLEnv = "TEST_DATABASE_URL"
)

// tables lists every application table, children first.
var tables = []string{"services", "products", "users"}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the integration database URL, or "".
func GetTestDatabaseURL() string {
	return ciutil.GetEnvWithFallbacks([]string{DatabaseURLEnv, LegacyDatabaseURLEnv}, "", slog.Default())
}

// ShouldSkipDatabaseTest reports whether no integration database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestPoolWithT connects to the integration database, applies the
// migrations once per test binary and truncates every table. The pool is
// closed when the test finishes. The test is skipped when no database is
// configured.
func GetTestPoolWithT(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		if ciutil.IsCI() {
			t.Skipf("%s not set in CI; add a postgres service to run integration tests", DatabaseURLEnv)
		}
		t.Skipf("%s not set, skipping integration test", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, url, "up", slog.Default())
	})
	require.NoError(t, migrateErr, "migrations should apply to %s", redact.String(url))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "failed to connect to %s", redact.String(url))
	t.Cleanup(pool.Close)

	Truncate(t, pool)
	return pool
}

// Truncate empties every application table.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	for _, table := range tables {
		_, err := pool.Exec(context.Background(), "TRUNCATE "+table+" CASCADE")
		require.NoError(t, err, "failed to truncate %s", table)
	}
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, pool *pgxpool.Pool, fn func(t *testing.T, tx pgx.Tx)) {
	t.Helper()

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.Errorf("failed to roll back transaction: %v", rbErr)
		}
	}()

	fn(t, tx)
}
