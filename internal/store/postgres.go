package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// PostgresStore implements reviewseed.ReviewStore on a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	closer io.Closer
	sql    dialect
}

// NewPostgresStore wraps pool. closer, if non-nil, is closed after the pool
// (Cloud SQL dialers need this).
func NewPostgresStore(pool *pgxpool.Pool, closer io.Closer) *PostgresStore {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &PostgresStore{pool: pool, closer: closer, sql: postgresDialect}
}

func (s *PostgresStore) LookupBankID(ctx context.Context, bankName string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, s.sql.lookupBank, bankName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", bankName, reviewseed.ErrBankNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up bank %q: %w", bankName, err)
	}
	return id, nil
}

func (s *PostgresStore) CountReviews(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, s.sql.countReviews).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountBankReviews(ctx context.Context, bankID int64) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, s.sql.countBankReviews, bankID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews for bank %d: %w", bankID, err)
	}
	return n, nil
}

func (s *PostgresStore) Begin(ctx context.Context) (reviewseed.ReviewTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresTx{tx: tx, sql: s.sql}, nil
}

// Close releases the pool, then the connector's dialer if any.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

type postgresTx struct {
	tx  pgx.Tx
	sql dialect
}

func (t *postgresTx) Insert(ctx context.Context, bankID int64, review reviewseed.Review) error {
	args, err := postgresArgs(bankID, review)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, t.sql.insertReview, args...)
	return err
}

// InsertBatch queues every review in one pgx.Batch and reads results in
// order; the first failing result stops the batch.
func (t *postgresTx) InsertBatch(ctx context.Context, bankID int64, reviews []reviewseed.Review) (int, error) {
	batch := &pgx.Batch{}
	for i, r := range reviews {
		args, err := postgresArgs(bankID, r)
		if err != nil {
			return i, err
		}
		batch.Queue(t.sql.insertReview, args...)
	}

	results := t.tx.SendBatch(ctx, batch)
	for i := range reviews {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return i, err
		}
	}
	if err := results.Close(); err != nil {
		return len(reviews) - 1, err
	}
	return 0, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func postgresArgs(bankID int64, r reviewseed.Review) ([]any, error) {
	date, err := r.ParsedDate()
	if err != nil {
		return nil, err
	}
	return []any{bankID, r.Text, string(r.Sentiment), pgtype.Date{Time: date, Valid: true}}, nil
}

var _ reviewseed.ReviewStore = (*PostgresStore)(nil)
