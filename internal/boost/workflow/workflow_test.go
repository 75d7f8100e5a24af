package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/txnlog"
)

// fakeCreator stands in for the backend's order creation endpoint.
type fakeCreator struct {
	order   *backend.BoostOrder
	err     error
	calls   int
	lastReq backend.BoostOrderRequest
}

func (f *fakeCreator) CreateBoostOrder(ctx context.Context, req backend.BoostOrderRequest) (*backend.BoostOrder, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

// fakeStatus stands in for the backend's transaction status endpoint.
type fakeStatus struct {
	status backend.TransactionStatus
	err    error
	calls  int
}

func (f *fakeStatus) GetBoostTransactionStatus(ctx context.Context, txnID string) (backend.TransactionStatus, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.status, nil
}

// recordingStore wraps a memory store and appends an event per operation,
// so tests can assert the put-before-redirect ordering.
type recordingStore struct {
	inner  *pending.MemoryStore
	mu     sync.Mutex
	events []string
	putErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{inner: pending.NewMemoryStore()}
}

func (r *recordingStore) note(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingStore) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingStore) Put(ctx context.Context, txn pending.Transaction) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.note("put")
	return r.inner.Put(ctx, txn)
}

func (r *recordingStore) Get(ctx context.Context) (*pending.Transaction, error) {
	return r.inner.Get(ctx)
}

func (r *recordingStore) Clear(ctx context.Context) error {
	r.note("clear")
	return r.inner.Clear(ctx)
}

// memTransitions is an in-memory txnlog.Repository.
type memTransitions struct {
	mu      sync.Mutex
	entries []txnlog.Entry
}

func (m *memTransitions) Save(ctx context.Context, entry *txnlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memTransitions) statuses() []txnlog.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]txnlog.Status, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Status
	}
	return out
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) { f.calls++ }

var errBackendDown = errors.New("backend down")
