package testing

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/vvka-141/reviewseed/internal/db"
	"github.com/vvka-141/reviewseed/internal/testinfra"
)

// MySQLSchemaDDL mirrors SchemaDDL for MySQL, one statement per entry.
// bank_name uses a binary collation so lookups stay case-sensitive.
var MySQLSchemaDDL = []string{
	`CREATE TABLE banks (
		bank_id   BIGINT AUTO_INCREMENT PRIMARY KEY,
		bank_name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL UNIQUE
	)`,
	`CREATE TABLE reviews (
		review_id   BIGINT AUTO_INCREMENT PRIMARY KEY,
		bank_id     BIGINT NOT NULL,
		review_text TEXT NOT NULL,
		sentiment   VARCHAR(16) NOT NULL,
		review_date DATE NOT NULL,
		FOREIGN KEY (bank_id) REFERENCES banks (bank_id)
	)`,
}

var (
	mysqlContainerOnce sync.Once
	mysqlContainerConn string
	mysqlContainerErr  error
)

func getOrStartMySQLContainer() (string, error) {
	mysqlContainerOnce.Do(func() {
		container, err := testinfra.StartMySQL(context.Background())
		if err != nil {
			mysqlContainerErr = err
			return
		}
		mysqlContainerConn = container.ConnString
	})
	return mysqlContainerConn, mysqlContainerErr
}

// GetTestMySQLConnectionString returns a mysql:// URL for a server the tests
// may create databases on.
// Priority: REVIEWSEED_TEST_MYSQL_CONN env var > auto-started testcontainer > skip test.
func GetTestMySQLConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("REVIEWSEED_TEST_MYSQL_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartMySQLContainer()
	if err != nil {
		t.Skipf("REVIEWSEED_TEST_MYSQL_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// RequireMySQL combines SkipIfShort and GetTestMySQLConnectionString.
func RequireMySQL(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestMySQLConnectionString(t)
}

// GetTestMySQLDB opens connString and closes the handle when the test completes.
func GetTestMySQLDB(t *testing.T, connString string) *sql.DB {
	t.Helper()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	sqlDB, err := db.OpenMySQL(context.Background(), config)
	if err != nil {
		t.Fatalf("Failed to open mysql: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

// CreateTestMySQLDB creates a database named dbName and drops it when the
// test ends. Returns the mysql:// URL for the new database.
func CreateTestMySQLDB(t *testing.T, connString, dbName string) string {
	t.Helper()

	ctx := context.Background()
	admin := GetTestMySQLDB(t, connString)
	if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE `%s`", dbName)); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		if _, err := admin.ExecContext(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", dbName)); err != nil {
			t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
		}
	})

	u, err := url.Parse(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	u.Path = "/" + dbName
	return u.String()
}

// SeedMySQLSchema creates the review tables in the database at connString
// and inserts the given banks in order. Returns their ids.
func SeedMySQLSchema(t *testing.T, connString string, bankNames ...string) []int64 {
	t.Helper()

	sqlDB := GetTestMySQLDB(t, connString)
	ctx := context.Background()

	for _, stmt := range MySQLSchemaDDL {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	ids := make([]int64, 0, len(bankNames))
	for _, name := range bankNames {
		res, err := sqlDB.ExecContext(ctx, "INSERT INTO banks (bank_name) VALUES (?)", name)
		if err != nil {
			t.Fatalf("Failed to seed bank %q: %v", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("Failed to read id of bank %q: %v", name, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// NewTestMySQLDatabase creates a fresh MySQL database with the review schema
// and the given banks. Returns its connection string and the bank ids.
func NewTestMySQLDatabase(t *testing.T, bankNames ...string) (string, []int64) {
	t.Helper()

	connString := RequireMySQL(t)
	target := CreateTestMySQLDB(t, connString, UniqueDBName("reviewseed_test"))
	return target, SeedMySQLSchema(t, target, bankNames...)
}
