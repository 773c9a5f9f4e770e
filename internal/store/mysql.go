package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// MySQLStore implements reviewseed.ReviewStore on database/sql with the
// go-sql-driver/mysql driver.
type MySQLStore struct {
	db  *sql.DB
	sql dialect
}

// NewMySQLStore wraps an open handle.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &MySQLStore{db: db, sql: mysqlDialect}
}

func (s *MySQLStore) LookupBankID(ctx context.Context, bankName string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.sql.lookupBank, bankName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", bankName, reviewseed.ErrBankNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up bank %q: %w", bankName, wrapMySQLError(err))
	}
	return id, nil
}

func (s *MySQLStore) CountReviews(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.sql.countReviews).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", wrapMySQLError(err))
	}
	return n, nil
}

func (s *MySQLStore) CountBankReviews(ctx context.Context, bankID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.sql.countBankReviews, bankID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews for bank %d: %w", bankID, wrapMySQLError(err))
	}
	return n, nil
}

func (s *MySQLStore) Begin(ctx context.Context) (reviewseed.ReviewTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", wrapMySQLError(err))
	}
	return &mysqlTx{tx: tx, sql: s.sql}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

type mysqlTx struct {
	tx   *sql.Tx
	sql  dialect
	stmt *sql.Stmt
}

func (t *mysqlTx) Insert(ctx context.Context, bankID int64, review reviewseed.Review) error {
	args, err := mysqlArgs(bankID, review)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, t.sql.insertReview, args...)
	return wrapMySQLError(err)
}

// InsertBatch executes a statement prepared once per transaction for every
// review in order.
func (t *mysqlTx) InsertBatch(ctx context.Context, bankID int64, reviews []reviewseed.Review) (int, error) {
	if t.stmt == nil {
		stmt, err := t.tx.PrepareContext(ctx, t.sql.insertReview)
		if err != nil {
			return 0, wrapMySQLError(err)
		}
		t.stmt = stmt
	}

	for i, r := range reviews {
		args, err := mysqlArgs(bankID, r)
		if err != nil {
			return i, err
		}
		if _, err := t.stmt.ExecContext(ctx, args...); err != nil {
			return i, wrapMySQLError(err)
		}
	}
	return 0, nil
}

func (t *mysqlTx) Commit(ctx context.Context) error {
	t.closeStmt()
	return wrapMySQLError(t.tx.Commit())
}

func (t *mysqlTx) Rollback(ctx context.Context) error {
	t.closeStmt()
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return wrapMySQLError(err)
}

func (t *mysqlTx) closeStmt() {
	if t.stmt != nil {
		t.stmt.Close()
		t.stmt = nil
	}
}

func mysqlArgs(bankID int64, r reviewseed.Review) ([]any, error) {
	date, err := r.ParsedDate()
	if err != nil {
		return nil, err
	}
	return []any{bankID, r.Text, string(r.Sentiment), date}, nil
}

// mysqlError exposes the server's SQLSTATE the way pgconn.PgError does, so
// callers can report it without knowing the driver.
type mysqlError struct {
	err *mysql.MySQLError
}

func (e *mysqlError) Error() string { return e.err.Error() }

func (e *mysqlError) Unwrap() error { return e.err }

func (e *mysqlError) SQLState() string {
	return string(e.err.SQLState[:])
}

func wrapMySQLError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return &mysqlError{err: me}
	}
	return err
}

var _ reviewseed.ReviewStore = (*MySQLStore)(nil)
