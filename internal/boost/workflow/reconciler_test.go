package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/notify"
	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/txnlog"
)

func storedTransaction(t *testing.T, store pending.Store, createdAt time.Time) pending.Transaction {
	t.Helper()
	txn := pending.Transaction{
		TxnID:        "t1",
		ProductIDs:   []string{"p1", "p2", "p3"},
		DurationDays: 3,
		Price:        750,
		CreatedAt:    createdAt,
	}
	if err := store.Put(context.Background(), txn); err != nil {
		t.Fatalf("put: %v", err)
	}
	return txn
}

func TestReconciler_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty slot performs no network call", func(t *testing.T) {
		status := &fakeStatus{status: backend.StatusPaid}
		rec := NewReconciler(pending.NewMemoryStore(), status, notify.NewFeed(), nil, nil, 0)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomeNone {
			t.Fatalf("expected NONE, got %s", outcome)
		}
		if status.calls != 0 {
			t.Fatalf("expected no status query, got %d", status.calls)
		}
	})

	t.Run("paid clears the slot and surfaces success once", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC())
		status := &fakeStatus{status: backend.StatusPaid}
		feed := notify.NewFeed()
		transitions := &memTransitions{}
		inv := &fakeInvalidator{}
		rec := NewReconciler(store, status, feed, transitions, inv, 0)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomePaid {
			t.Fatalf("expected PAID, got %s", outcome)
		}
		if txn, _ := store.Get(ctx); txn != nil {
			t.Fatalf("expected slot cleared, got %+v", txn)
		}

		notices := feed.Drain()
		if len(notices) != 1 || notices[0].Kind != notify.KindBoostActivated || notices[0].TxnID != "t1" {
			t.Fatalf("expected one activation notice, got %+v", notices)
		}
		if inv.calls != 1 {
			t.Fatalf("expected product cache invalidation, got %d calls", inv.calls)
		}
		if got := transitions.statuses(); len(got) != 1 || got[0] != txnlog.StatusPaid {
			t.Fatalf("expected PAID transition, got %v", got)
		}

		// Second pass for the same settled transaction: silent no-op.
		outcome, err = rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error on second pass, got %v", err)
		}
		if outcome != OutcomeNone {
			t.Fatalf("expected NONE on second pass, got %s", outcome)
		}
		if status.calls != 1 {
			t.Fatalf("expected no second status query, got %d", status.calls)
		}
		if feed.Len() != 0 {
			t.Fatalf("expected no duplicate notice")
		}
	})

	t.Run("pending leaves the slot byte-identical", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC())
		before, _ := store.Get(ctx)

		feed := notify.NewFeed()
		rec := NewReconciler(store, &fakeStatus{status: backend.StatusPending}, feed, nil, nil, 0)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomeAwaiting {
			t.Fatalf("expected AWAITING, got %s", outcome)
		}

		after, _ := store.Get(ctx)
		if !reflect.DeepEqual(before, after) {
			t.Fatalf("slot changed: before=%+v after=%+v", before, after)
		}
		if feed.Len() != 0 {
			t.Fatalf("pending must not produce a notice")
		}
	})

	t.Run("failed clears the slot with exactly one failure notice", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC())
		feed := notify.NewFeed()
		rec := NewReconciler(store, &fakeStatus{status: backend.StatusFailed}, feed, nil, nil, 0)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomeFailed {
			t.Fatalf("expected FAILED, got %s", outcome)
		}
		if txn, _ := store.Get(ctx); txn != nil {
			t.Fatalf("expected slot cleared")
		}
		notices := feed.Drain()
		if len(notices) != 1 || notices[0].Kind != notify.KindBoostFailed {
			t.Fatalf("expected one failure notice, got %+v", notices)
		}
	})

	t.Run("not found inside the safety window waits", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC())
		feed := notify.NewFeed()
		rec := NewReconciler(store, &fakeStatus{status: backend.StatusNotFound}, feed, nil, nil, 2*time.Minute)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomeAwaiting {
			t.Fatalf("expected AWAITING, got %s", outcome)
		}
		if txn, _ := store.Get(ctx); txn == nil {
			t.Fatalf("expected slot to survive a fresh NOT_FOUND")
		}
		if feed.Len() != 0 {
			t.Fatalf("fresh NOT_FOUND must not produce a notice")
		}
	})

	t.Run("not found beyond the safety window is stale", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC().Add(-10*time.Minute))
		feed := notify.NewFeed()
		transitions := &memTransitions{}
		rec := NewReconciler(store, &fakeStatus{status: backend.StatusNotFound}, feed, transitions, nil, 2*time.Minute)

		outcome, err := rec.Run(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome != OutcomeStale {
			t.Fatalf("expected STALE, got %s", outcome)
		}
		if txn, _ := store.Get(ctx); txn != nil {
			t.Fatalf("expected slot cleared for stale transaction")
		}
		notices := feed.Drain()
		if len(notices) != 1 || notices[0].Kind != notify.KindBoostFailed {
			t.Fatalf("expected one failure notice, got %+v", notices)
		}
		// Logged distinctly from a declined payment.
		if got := transitions.statuses(); len(got) != 1 || got[0] != txnlog.StatusStale {
			t.Fatalf("expected STALE transition, got %v", got)
		}
	})

	t.Run("status query failure leaves the slot for the next load", func(t *testing.T) {
		store := pending.NewMemoryStore()
		storedTransaction(t, store, time.Now().UTC())
		feed := notify.NewFeed()
		rec := NewReconciler(store, &fakeStatus{err: errBackendDown}, feed, nil, nil, 0)

		_, err := rec.Run(ctx)

		var rerr *ReconciliationError
		if !errors.As(err, &rerr) || rerr.TxnID != "t1" {
			t.Fatalf("expected ReconciliationError for t1, got %v", err)
		}
		if txn, _ := store.Get(ctx); txn == nil {
			t.Fatalf("slot must survive a reconciliation error")
		}
		if feed.Len() != 0 {
			t.Fatalf("reconciliation errors are not surfaced as notices")
		}
	})
}
