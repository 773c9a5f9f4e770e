// Package testing provides database helpers shared by integration tests.
// Import it as testhelpers to avoid clashing with the standard library.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/reviewseed/internal/db"
	"github.com/vvka-141/reviewseed/internal/testinfra"
)

// SchemaDDL creates the tables a load writes to. The tool itself never runs it.
const SchemaDDL = `
CREATE TABLE banks (
	bank_id   BIGSERIAL PRIMARY KEY,
	bank_name TEXT UNIQUE NOT NULL
);
CREATE TABLE reviews (
	review_id   BIGSERIAL PRIMARY KEY,
	bank_id     BIGINT NOT NULL REFERENCES banks (bank_id),
	review_text TEXT NOT NULL,
	sentiment   TEXT NOT NULL,
	review_date DATE NOT NULL
);
`

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test server connection string.
// Priority: REVIEWSEED_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("REVIEWSEED_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("REVIEWSEED_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// UniqueDBName returns a database name safe to create alongside parallel tests.
func UniqueDBName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CreateTestDB creates a database named dbName and drops it when the test ends.
// Returns the connection string for the new database.
func CreateTestDB(t *testing.T, connString, dbName string) string {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	_, err = pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	pool.Close()
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		CleanupTestDB(t, connString, dbName)
	})

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	config.Database = dbName
	return db.BuildConnectionString(config)
}

// CleanupTestDB drops the test database.
// Safe to call multiple times (uses DROP DATABASE IF EXISTS).
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, dbName)
	if err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}

// SeedSchema creates the banks and reviews tables in the database at
// connString and inserts the given banks in order. Returns their ids.
func SeedSchema(t *testing.T, connString string, bankNames ...string) []int64 {
	t.Helper()

	pool := GetTestPool(t, connString)
	ctx := context.Background()

	if _, err := pool.Exec(ctx, SchemaDDL); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	ids := make([]int64, 0, len(bankNames))
	for _, name := range bankNames {
		var id int64
		if err := pool.QueryRow(ctx, "INSERT INTO banks (bank_name) VALUES ($1) RETURNING bank_id", name).Scan(&id); err != nil {
			t.Fatalf("Failed to seed bank %q: %v", name, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// NewTestDatabase creates a fresh database with the review schema and the
// given banks. Returns its connection string and the bank ids.
func NewTestDatabase(t *testing.T, bankNames ...string) (string, []int64) {
	t.Helper()

	connString := RequireDatabase(t)
	target := CreateTestDB(t, connString, UniqueDBName("reviewseed_test"))
	return target, SeedSchema(t, target, bankNames...)
}

// GetTestPool creates a pool to connString that closes when the test completes.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
