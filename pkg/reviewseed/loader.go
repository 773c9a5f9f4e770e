package reviewseed

import "context"

// Loader runs load and count operations.
type Loader interface {
	Load(ctx context.Context, config LoadConfig) (LoadResult, error)
	Count(ctx context.Context, config CountConfig) (CountResult, error)
}
