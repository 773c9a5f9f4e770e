package reviewseed

import "context"

// ReviewStore is the storage side of a load: bank lookup, counting and
// transactional inserts into the reviews table.
//
// Close must be called exactly once; it releases every resource the store
// acquired, including any dialers used to reach the server.
type ReviewStore interface {
	// LookupBankID resolves a bank by exact name.
	// Returns an error matching ErrBankNotFound when no row matches.
	LookupBankID(ctx context.Context, bankName string) (int64, error)

	// CountReviews returns the number of rows in the reviews table.
	CountReviews(ctx context.Context) (int64, error)

	// CountBankReviews returns the number of reviews referencing bankID.
	CountBankReviews(ctx context.Context, bankID int64) (int64, error)

	// Begin opens the transaction all inserts of one load run in.
	Begin(ctx context.Context) (ReviewTx, error)

	Close() error
}

// ReviewTx inserts reviews inside a single transaction.
// Rollback after Commit is a no-op.
type ReviewTx interface {
	// Insert writes one review in its own round trip.
	Insert(ctx context.Context, bankID int64, review Review) error

	// InsertBatch writes reviews together. On failure it returns the offset
	// within reviews of the first row that failed.
	InsertBatch(ctx context.Context, bankID int64, reviews []Review) (int, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// StoreOpener opens a ReviewStore for a resolved connection.
type StoreOpener interface {
	Open(ctx context.Context, config *ConnectionConfig) (ReviewStore, error)
}
