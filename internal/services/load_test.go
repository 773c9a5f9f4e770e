package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/reviewseed/internal/generator"
	"github.com/vvka-141/reviewseed/internal/logging"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

const cbe = reviewseed.DefaultBankName

func testConnection() *reviewseed.ConnectionConfig {
	return &reviewseed.ConnectionConfig{
		Driver:   reviewseed.DriverPostgres,
		Host:     "localhost",
		Port:     5432,
		Database: "bank_reviews",
	}
}

func testLoadConfig(n int) reviewseed.LoadConfig {
	return reviewseed.LoadConfig{
		Connection:  testConnection(),
		BankName:    cbe,
		Count:       n,
		BatchSize:   1,
		Descriptors: reviewseed.DescriptorMatched,
	}
}

func newTestService(store *mockStore) (*LoadService, *mockOpener) {
	opener := &mockOpener{store: store}
	svc := NewLoadService(opener, logging.NewNullLogger()).
		WithGenerator(func(mode reviewseed.DescriptorMode) *generator.Generator {
			return generator.New(generator.WithSeed(1), generator.WithDescriptors(mode))
		})
	return svc, opener
}

func TestNewLoadService_PanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { NewLoadService(nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewLoadService(&mockOpener{}, nil) })
	assert.Panics(t, func() { NewLoadService(&mockOpener{}, logging.NewNullLogger()).WithGenerator(nil) })
}

func TestLoad_TenReviewsForCBE(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, opener := newTestService(store)

	result, err := svc.Load(context.Background(), testLoadConfig(10))
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.BankID)
	assert.Equal(t, 10, result.Generated)
	assert.Equal(t, 10, result.Inserted)
	assert.Equal(t, int64(0), result.CountBefore)
	assert.Equal(t, int64(10), result.CountAfter)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, store.committed, 10)
	for _, row := range store.committed {
		assert.Equal(t, int64(1), row.bankID)
	}
	assert.Equal(t, 10, store.tx.insertCalls, "one round trip per row by default")
	assert.Equal(t, []string{"lookup", "count", "begin", "commit", "count", "close"}, store.calls)

	require.Len(t, opener.opened, 1)
	assert.Equal(t, DefaultAppName, opener.opened[0].AppName)
}

func TestLoad_CountAfterIsBeforePlusN(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	store.committed = make([]storedRow, 42)
	svc, _ := newTestService(store)

	result, err := svc.Load(context.Background(), testLoadConfig(10))
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.CountBefore)
	assert.Equal(t, result.CountBefore+10, result.CountAfter)
}

func TestLoad_ZeroReviews(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	result, err := svc.Load(context.Background(), testLoadConfig(0))
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Zero(t, result.Inserted)
	assert.Equal(t, result.CountBefore, result.CountAfter)
	assert.Contains(t, store.calls, "commit")
}

func TestLoad_BankNotFoundBeforeAnyInsert(t *testing.T) {
	store := newMockStore(map[string]int64{"Dashen Bank": 2})
	svc, _ := newTestService(store)

	_, err := svc.Load(context.Background(), testLoadConfig(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, reviewseed.ErrBankNotFound)
	assert.Equal(t, reviewseed.ExitBankNotFound, reviewseed.ExitCodeForError(err))

	assert.Equal(t, []string{"lookup", "close"}, store.calls, "no count, no transaction, connection still released")
	assert.Nil(t, store.tx)
}

func TestLoad_RowFailureRollsBackEverything(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", Message: "insert or update on table \"reviews\" violates foreign key constraint"}
	store := newMockStore(map[string]int64{cbe: 1})
	store.tx = &mockTx{failAt: 6, failErr: pgErr}
	svc, _ := newTestService(store)

	_, err := svc.Load(context.Background(), testLoadConfig(10))
	require.Error(t, err)

	var insertErr *reviewseed.InsertError
	require.True(t, errors.As(err, &insertErr))
	assert.Equal(t, 6, insertErr.Index)
	assert.Contains(t, insertErr.Review.Text, "Review 7:")
	assert.Equal(t, "23503", insertErr.SQLState())
	assert.ErrorIs(t, err, reviewseed.ErrInsertFailed)
	assert.Contains(t, err.Error(), "row 7")

	assert.True(t, store.tx.rolledBack)
	assert.Empty(t, store.committed, "nothing from a failed run is committed")
	assert.Equal(t, 1, store.closed)
	assert.NotContains(t, store.calls, "commit")
}

func TestLoad_CommitFailure(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	store.tx = &mockTx{commitErr: errors.New("server closed the connection unexpectedly")}
	svc, _ := newTestService(store)

	_, err := svc.Load(context.Background(), testLoadConfig(3))
	assert.ErrorIs(t, err, reviewseed.ErrInsertFailed)
	assert.True(t, store.tx.rolledBack)
	assert.Equal(t, 1, store.closed)
}

func TestLoad_BatchMode(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	cfg := testLoadConfig(25)
	cfg.BatchSize = 10
	result, err := svc.Load(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 25, result.Inserted)
	assert.Equal(t, []int{10, 10, 5}, store.tx.batchSizes)
	assert.Zero(t, store.tx.insertCalls)
	assert.Equal(t, int64(25), result.CountAfter)
}

func TestLoad_BatchFailureReportsAbsoluteRow(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	store.tx = &mockTx{failAt: 13, failErr: errors.New("value too long")}
	svc, _ := newTestService(store)

	cfg := testLoadConfig(25)
	cfg.BatchSize = 10
	_, err := svc.Load(context.Background(), cfg)

	var insertErr *reviewseed.InsertError
	require.True(t, errors.As(err, &insertErr))
	assert.Equal(t, 13, insertErr.Index)
	assert.Contains(t, insertErr.Review.Text, "Review 14:")
	assert.Empty(t, store.committed)
}

func TestLoad_ProgressCallback(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	var calls [][2]int
	cfg := testLoadConfig(5)
	cfg.OnProgress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

	_, err := svc.Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, calls)
}

func TestLoad_CancelledContextStopsInserts(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := testLoadConfig(5)
	cfg.OnProgress = func(done, _ int) {
		if done == 2 {
			cancel()
		}
	}

	_, err := svc.Load(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, reviewseed.ErrInterrupted)
	assert.NotErrorIs(t, err, reviewseed.ErrInsertFailed)
	assert.Contains(t, err.Error(), "before row 3")
	assert.Equal(t, reviewseed.ExitGeneralError, reviewseed.ExitCodeForError(err))
	assert.Equal(t, 2, store.tx.insertCalls)
	assert.Empty(t, store.committed)
	assert.True(t, store.tx.rolledBack)
}

func TestLoad_DriverErrorDuringCancelIsInterrupt(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.tx = &mockTx{failAt: 1, failErr: errors.New("conn closed"), onFail: cancel}

	_, err := svc.Load(ctx, testLoadConfig(4))
	require.Error(t, err)
	assert.ErrorIs(t, err, reviewseed.ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, reviewseed.ErrInsertFailed)
	assert.Equal(t, reviewseed.ExitGeneralError, reviewseed.ExitCodeForError(err))
	assert.Empty(t, store.committed)
}

func TestLoad_BatchCancelledIsInterrupt(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.tx = &mockTx{failAt: 4, failErr: errors.New("conn closed"), onFail: cancel}

	cfg := testLoadConfig(9)
	cfg.BatchSize = 3
	_, err := svc.Load(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, reviewseed.ErrInterrupted)
	assert.NotErrorIs(t, err, reviewseed.ErrInsertFailed)
	assert.Contains(t, err.Error(), "before row 4")
	assert.Equal(t, []int{3, 3}, store.tx.batchSizes)
	assert.Empty(t, store.committed)
}

func TestLoad_DriverErrorWithoutCancelIsInsertError(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	store.tx = &mockTx{failAt: 1, failErr: errors.New("value too long")}

	_, err := svc.Load(context.Background(), testLoadConfig(4))
	var ie *reviewseed.InsertError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Index)
	assert.NotErrorIs(t, err, reviewseed.ErrInterrupted)
	assert.Equal(t, reviewseed.ExitInsertFailed, reviewseed.ExitCodeForError(err))
}

func TestLoad_InvalidConfig(t *testing.T) {
	store := newMockStore(nil)
	svc, opener := newTestService(store)

	cfg := testLoadConfig(-1)
	_, err := svc.Load(context.Background(), cfg)
	assert.ErrorIs(t, err, reviewseed.ErrInvalidConfig)
	assert.Empty(t, opener.opened, "invalid config never connects")
}

func TestLoad_ConnectionFailure(t *testing.T) {
	opener := &mockOpener{err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")}
	svc := NewLoadService(opener, logging.NewNullLogger())

	_, err := svc.Load(context.Background(), testLoadConfig(1))
	assert.ErrorIs(t, err, reviewseed.ErrConnectionFailed)
	assert.Equal(t, reviewseed.ExitConnectionError, reviewseed.ExitCodeForError(err))
}

func TestLoad_TimeoutApplied(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	cfg := testLoadConfig(3)
	cfg.Timeout = time.Nanosecond

	_, err := svc.Load(context.Background(), cfg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, reviewseed.ErrInterrupted)
	assert.Empty(t, store.committed)
}

func TestLoad_IndependentDescriptorsPassThrough(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	var gotMode reviewseed.DescriptorMode
	svc := NewLoadService(&mockOpener{store: store}, logging.NewNullLogger()).
		WithGenerator(func(mode reviewseed.DescriptorMode) *generator.Generator {
			gotMode = mode
			return generator.New(generator.WithSeed(1), generator.WithDescriptors(mode))
		})

	cfg := testLoadConfig(1)
	cfg.Descriptors = reviewseed.DescriptorIndependent
	_, err := svc.Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, reviewseed.DescriptorIndependent, gotMode)
}

func TestCount(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1, "Dashen Bank": 2})
	store.committed = []storedRow{{bankID: 1}, {bankID: 2}, {bankID: 1}}
	svc, _ := newTestService(store)

	result, err := svc.Count(context.Background(), reviewseed.CountConfig{Connection: testConnection()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Empty(t, result.BankName)

	result, err = svc.Count(context.Background(), reviewseed.CountConfig{Connection: testConnection(), BankName: cbe})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, int64(1), result.BankID)
	assert.Equal(t, int64(2), result.BankTotal)
	assert.Equal(t, 2, store.closed)
}

func TestCount_UnknownBank(t *testing.T) {
	store := newMockStore(map[string]int64{cbe: 1})
	svc, _ := newTestService(store)

	_, err := svc.Count(context.Background(), reviewseed.CountConfig{Connection: testConnection(), BankName: "Nope"})
	assert.ErrorIs(t, err, reviewseed.ErrBankNotFound)
	assert.Equal(t, 1, store.closed)
}
