package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/notify"
	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/txnlog"
)

// StatusGetter is the backend operation the reconciler needs.
type StatusGetter interface {
	GetBoostTransactionStatus(ctx context.Context, txnID string) (backend.TransactionStatus, error)
}

// Invalidator drops caches that a paid boost makes stale.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Outcome is the result of one reconciliation pass.
type Outcome string

const (
	// OutcomeNone: the slot was empty, nothing was queried.
	OutcomeNone Outcome = "NONE"
	// OutcomeAwaiting: the payment is still pending; slot untouched.
	OutcomeAwaiting Outcome = "AWAITING"
	OutcomePaid     Outcome = "PAID"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeStale    Outcome = "STALE"
)

// Reconciler settles the stored pending transaction against the backend's
// authoritative status. It runs on every fresh agent start and on the
// payment-return route.
//
// Idempotency: the slot is cleared before any notice is pushed, and the
// boost effect itself is applied server-side keyed by txn_id. A second
// pass for the same transaction therefore finds an empty slot, performs no
// network call, and stays silent.
type Reconciler struct {
	store       pending.Store
	status      StatusGetter
	feed        *notify.Feed
	transitions txnlog.Repository // nil-safe: audit skipped if nil
	invalidator Invalidator       // nil-safe: no cache wired
	staleWindow time.Duration
	now         func() time.Time
}

// DefaultStaleWindow is how long a NOT_FOUND answer is still treated as
// "the processor webhook has not landed yet" rather than a dead record.
const DefaultStaleWindow = 2 * time.Minute

func NewReconciler(store pending.Store, status StatusGetter, feed *notify.Feed, transitions txnlog.Repository, invalidator Invalidator, staleWindow time.Duration) *Reconciler {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	return &Reconciler{
		store:       store,
		status:      status,
		feed:        feed,
		transitions: transitions,
		invalidator: invalidator,
		staleWindow: staleWindow,
		now:         time.Now,
	}
}

// Run performs one reconciliation pass.
//
// A status-query failure returns a ReconciliationError and leaves the slot
// untouched; the next load retries. This deliberately favors losing a
// success notification over silently abandoning a seller's payment
// outcome.
func (r *Reconciler) Run(ctx context.Context) (Outcome, error) {
	txn, err := r.store.Get(ctx)
	if err != nil {
		return "", &ReconciliationError{Err: fmt.Errorf("read pending transaction: %w", err)}
	}
	if txn == nil {
		return OutcomeNone, nil
	}

	status, err := r.status.GetBoostTransactionStatus(ctx, txn.TxnID)
	if err != nil {
		return "", &ReconciliationError{TxnID: txn.TxnID, Err: err}
	}

	switch status {
	case backend.StatusPaid:
		return r.settlePaid(ctx, txn)
	case backend.StatusFailed:
		return r.settleFailed(ctx, txn)
	case backend.StatusPending:
		// Not yet resolved, never a failure. Retried silently next load.
		slog.InfoContext(ctx, "boost payment still pending", "txn_id", txn.TxnID)
		return OutcomeAwaiting, nil
	case backend.StatusNotFound:
		return r.settleNotFound(ctx, txn)
	default:
		return "", &ReconciliationError{TxnID: txn.TxnID, Err: fmt.Errorf("unexpected status %q", status)}
	}
}

func (r *Reconciler) settlePaid(ctx context.Context, txn *pending.Transaction) (Outcome, error) {
	// The backend already applied the boost on its payment webhook; the
	// slot must be gone before the notice exists so a concurrent pass
	// cannot surface the outcome twice.
	if err := r.store.Clear(ctx); err != nil {
		return "", &ReconciliationError{TxnID: txn.TxnID, Err: fmt.Errorf("clear slot: %w", err)}
	}

	r.feed.Push(notify.KindBoostActivated, txn.TxnID, txn.ProductIDs,
		fmt.Sprintf("%d listing(s) boosted for %d day(s)", len(txn.ProductIDs), txn.DurationDays))
	if r.invalidator != nil {
		r.invalidator.Invalidate(ctx)
	}
	r.record(ctx, txnlog.NewEntry(ctx, txn.TxnID, txnlog.StatusPaid, "", ""))
	slog.InfoContext(ctx, "boost payment reconciled as paid", "txn_id", txn.TxnID, "products", len(txn.ProductIDs))
	return OutcomePaid, nil
}

func (r *Reconciler) settleFailed(ctx context.Context, txn *pending.Transaction) (Outcome, error) {
	if err := r.store.Clear(ctx); err != nil {
		return "", &ReconciliationError{TxnID: txn.TxnID, Err: fmt.Errorf("clear slot: %w", err)}
	}

	r.feed.Push(notify.KindBoostFailed, txn.TxnID, txn.ProductIDs, "boost payment failed; your listings were not boosted")
	r.record(ctx, txnlog.NewEntry(ctx, txn.TxnID, txnlog.StatusFailed, "", "payment reported as failed"))
	slog.WarnContext(ctx, "boost payment reconciled as failed", "txn_id", txn.TxnID)
	return OutcomeFailed, nil
}

func (r *Reconciler) settleNotFound(ctx context.Context, txn *pending.Transaction) (Outcome, error) {
	age := r.now().UTC().Sub(txn.CreatedAt)
	if age < r.staleWindow {
		// The record may simply not be visible yet. Same treatment as
		// PENDING: leave the slot and retry on the next load.
		slog.InfoContext(ctx, "boost transaction not visible yet", "txn_id", txn.TxnID, "age", age)
		return OutcomeAwaiting, nil
	}

	if err := r.store.Clear(ctx); err != nil {
		return "", &ReconciliationError{TxnID: txn.TxnID, Err: fmt.Errorf("clear slot: %w", err)}
	}

	// Failed for the seller, but logged distinctly: the record expired
	// server-side rather than the payment being declined.
	r.feed.Push(notify.KindBoostFailed, txn.TxnID, txn.ProductIDs, "boost payment could not be confirmed; your listings were not boosted")
	r.record(ctx, txnlog.NewEntry(ctx, txn.TxnID, txnlog.StatusStale, "", ErrStaleTransaction.Error()))
	slog.ErrorContext(ctx, "pending boost transaction is stale", "txn_id", txn.TxnID, "age", age, "error", ErrStaleTransaction)
	return OutcomeStale, nil
}

func (r *Reconciler) record(ctx context.Context, entry *txnlog.Entry) {
	if r.transitions == nil {
		return
	}
	if err := r.transitions.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "transition log write failed", "txn_id", entry.TxnID, "status", entry.Status, "error", err)
	}
}
