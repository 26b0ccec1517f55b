package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// pgTestDB is a migrated database running in a throwaway postgres container
type pgTestDB struct {
	*DB
}

// newTestDB starts postgres, connects and applies every migration. The
// container and connection are released when the test ends.
func newTestDB(t *testing.T) *pgTestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("market_analysis_test"),
		tcpostgres.WithUsername("analysis"),
		tcpostgres.WithPassword("analysis"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := New(dsn)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { db.Close() })

	tdb := &pgTestDB{DB: db}
	require.NoError(t, tdb.migrate(), "apply migrations")
	return tdb
}

func (tdb *pgTestDB) migrate() error {
	_, file, _, _ := runtime.Caller(0)
	return tdb.Migrate("file://" + filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations"))
}

// reset empties every table between subtests
func (tdb *pgTestDB) reset(t *testing.T) {
	t.Helper()
	_, err := tdb.conn.Exec("TRUNCATE TABLE candles, current_prices, monitored_symbols, ticker_stats")
	require.NoError(t, err, "truncate tables")
}
