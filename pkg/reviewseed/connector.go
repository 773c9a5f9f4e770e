package reviewseed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes PostgreSQL connection pools. Implementations cover
// the supported authentication methods.
type Connector interface {
	// Connect returns a pinged pool. The caller must close it.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}
