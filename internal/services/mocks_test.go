package services

import (
	"context"
	"errors"
	"sync"

	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

type mockOpener struct {
	store  *mockStore
	err    error
	opened []*reviewseed.ConnectionConfig
}

func (m *mockOpener) Open(_ context.Context, cfg *reviewseed.ConnectionConfig) (reviewseed.ReviewStore, error) {
	m.opened = append(m.opened, cfg)
	if m.err != nil {
		return nil, m.err
	}
	return m.store, nil
}

// mockStore records every call and keeps rows in memory; committed rows are
// visible to CountReviews, pending ones are not.
type mockStore struct {
	mu sync.Mutex

	banks     map[string]int64
	committed []storedRow
	lookupErr error
	countErr  error
	beginErr  error
	closeErr  error

	tx     *mockTx
	calls  []string
	closed int
}

type storedRow struct {
	bankID int64
	review reviewseed.Review
}

func newMockStore(banks map[string]int64) *mockStore {
	return &mockStore{banks: banks}
}

func (m *mockStore) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockStore) LookupBankID(_ context.Context, bankName string) (int64, error) {
	m.record("lookup")
	if m.lookupErr != nil {
		return 0, m.lookupErr
	}
	id, ok := m.banks[bankName]
	if !ok {
		return 0, errors.Join(reviewseed.ErrBankNotFound, errors.New(bankName))
	}
	return id, nil
}

func (m *mockStore) CountReviews(_ context.Context) (int64, error) {
	m.record("count")
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.committed)), nil
}

func (m *mockStore) CountBankReviews(_ context.Context, bankID int64) (int64, error) {
	m.record("countBank")
	var n int64
	for _, r := range m.committed {
		if r.bankID == bankID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) Begin(_ context.Context) (reviewseed.ReviewTx, error) {
	m.record("begin")
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	if m.tx == nil {
		m.tx = &mockTx{}
	}
	m.tx.store = m
	return m.tx, nil
}

func (m *mockStore) Close() error {
	m.record("close")
	m.closed++
	return m.closeErr
}

type mockTx struct {
	store *mockStore

	// failAt makes the insert of that 0-based row fail with failErr.
	failAt    int
	failErr   error
	commitErr error
	// onFail runs just before the failing row returns failErr.
	onFail func()

	seen        int
	pending     []storedRow
	batchSizes  []int
	committed   bool
	rolledBack  bool
	insertCalls int
}

func (t *mockTx) insert(bankID int64, r reviewseed.Review) error {
	idx := t.seen
	t.seen++
	if t.failErr != nil && idx == t.failAt {
		if t.onFail != nil {
			t.onFail()
		}
		return t.failErr
	}
	t.pending = append(t.pending, storedRow{bankID: bankID, review: r})
	return nil
}

func (t *mockTx) Insert(_ context.Context, bankID int64, r reviewseed.Review) error {
	t.insertCalls++
	return t.insert(bankID, r)
}

func (t *mockTx) InsertBatch(_ context.Context, bankID int64, reviews []reviewseed.Review) (int, error) {
	t.batchSizes = append(t.batchSizes, len(reviews))
	for i, r := range reviews {
		if err := t.insert(bankID, r); err != nil {
			return i, err
		}
	}
	return 0, nil
}

func (t *mockTx) Commit(_ context.Context) error {
	t.store.record("commit")
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	t.store.committed = append(t.store.committed, t.pending...)
	t.pending = nil
	return nil
}

func (t *mockTx) Rollback(_ context.Context) error {
	if t.committed {
		return nil
	}
	t.store.record("rollback")
	t.rolledBack = true
	t.pending = nil
	return nil
}
