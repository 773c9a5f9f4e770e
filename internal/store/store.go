// Package store persists generated reviews.
//
// Two backends implement reviewseed.ReviewStore: PostgreSQL through a pgx
// pool and MySQL through database/sql. Both expect existing tables:
//
//	banks(bank_id, bank_name)
//	reviews(review_id, bank_id, review_text, sentiment, review_date DATE)
//
// The store never creates or alters schema.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/vvka-141/reviewseed/internal/db"
	"github.com/vvka-141/reviewseed/internal/logging"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// dialect holds the statements for one placeholder style.
type dialect struct {
	lookupBank       string
	insertReview     string
	countReviews     string
	countBankReviews string
}

var postgresDialect = dialect{
	lookupBank:       "SELECT bank_id FROM banks WHERE bank_name = $1 ORDER BY bank_id LIMIT 1",
	insertReview:     "INSERT INTO reviews (bank_id, review_text, sentiment, review_date) VALUES ($1, $2, $3, $4)",
	countReviews:     "SELECT COUNT(*) FROM reviews",
	countBankReviews: "SELECT COUNT(*) FROM reviews WHERE bank_id = $1",
}

var mysqlDialect = dialect{
	lookupBank:       "SELECT bank_id FROM banks WHERE bank_name = ? ORDER BY bank_id LIMIT 1",
	insertReview:     "INSERT INTO reviews (bank_id, review_text, sentiment, review_date) VALUES (?, ?, ?, ?)",
	countReviews:     "SELECT COUNT(*) FROM reviews",
	countBankReviews: "SELECT COUNT(*) FROM reviews WHERE bank_id = ?",
}

// ConnectorFactory builds the pgx connector for a PostgreSQL config.
type ConnectorFactory func(*reviewseed.ConnectionConfig, reviewseed.Logger) (reviewseed.Connector, error)

// Opener opens review stores. The zero value uses db.NewConnector.
type Opener struct {
	Connectors ConnectorFactory
	Logger     reviewseed.Logger
}

// Open connects to the database described by cfg and returns a store for
// its driver. The caller must Close the store.
func (o *Opener) Open(ctx context.Context, cfg *reviewseed.ConnectionConfig) (reviewseed.ReviewStore, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	switch cfg.Driver {
	case reviewseed.DriverPostgres, "":
		factory := o.Connectors
		if factory == nil {
			factory = db.NewConnector
		}
		connector, err := factory(cfg, logger)
		if err != nil {
			return nil, err
		}
		pool, err := connector.Connect(ctx)
		if err != nil {
			closeConnector(connector, logger)
			return nil, err
		}
		logger.Verbose("connected to postgres %s:%d/%s (%s)", cfg.Host, cfg.Port, cfg.Database, cfg.AuthMethod)
		closer, _ := connector.(io.Closer)
		return NewPostgresStore(pool, closer), nil

	case reviewseed.DriverMySQL:
		sqlDB, err := db.OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Verbose("connected to mysql %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
		return NewMySQLStore(sqlDB), nil

	default:
		return nil, fmt.Errorf("driver %q: %w", cfg.Driver, reviewseed.ErrUnsupportedDriver)
	}
}

func closeConnector(connector reviewseed.Connector, logger reviewseed.Logger) {
	if c, ok := connector.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Verbose("closing connector: %v", err)
		}
	}
}
