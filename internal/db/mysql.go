package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// OpenMySQL opens a database/sql handle for a MySQL ConnectionConfig and
// pings it once. Only standard authentication is supported.
func OpenMySQL(ctx context.Context, config *reviewseed.ConnectionConfig) (*sql.DB, error) {
	if config.AuthMethod != reviewseed.AuthMethodStandard {
		return nil, fmt.Errorf("%s authentication is not available for mysql: %w", config.AuthMethod, reviewseed.ErrUnsupportedAuthMethod)
	}

	connector, err := mysql.NewConnector(mysqlConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(DefaultMaxConns)
	sqlDB.SetMaxIdleConns(DefaultMinConns)
	sqlDB.SetConnMaxIdleTime(DefaultMaxConnIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return sqlDB, nil
}
