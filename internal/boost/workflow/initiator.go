// Package workflow implements the two legs of the boost payment protocol:
// initiating a priced order before the browser is handed to the payment
// processor, and reconciling the outcome when control returns on a later
// load. The durable pending slot is what carries the transaction identity
// across the unload in between.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/selection"
	"github.com/jcmexdev/listing-boost/internal/boost/txnlog"
	"github.com/jcmexdev/listing-boost/internal/pkg/metadata"
)

// OrderCreator is the backend operation the initiator needs.
type OrderCreator interface {
	CreateBoostOrder(ctx context.Context, req backend.BoostOrderRequest) (*backend.BoostOrder, error)
}

// Handoff is the successful outcome of Submit: everything the HTTP layer
// needs to send the browser to the processor. By the time a Handoff
// exists, the pending transaction is already durably stored.
type Handoff struct {
	TxnID       string
	RedirectURL string
}

// Initiator converts a finalized selection into a created boost order and
// a durable pending transaction.
type Initiator struct {
	creator     OrderCreator
	store       pending.Store
	transitions txnlog.Repository // nil-safe: audit skipped if nil
	now         func() time.Time
}

func NewInitiator(creator OrderCreator, store pending.Store, transitions txnlog.Repository) *Initiator {
	return &Initiator{
		creator:     creator,
		store:       store,
		transitions: transitions,
		now:         time.Now,
	}
}

// Submit validates the selection, creates the order, and persists the
// pending transaction before exposing the redirect target.
//
// The ordering is the core invariant of the whole workflow: a pending
// record must never be missing once a redirect has been (or is about to
// be) issued, because there is no other way to recover the transaction
// identity after the page unload. So a failed slot write withholds the
// redirect and reports the creation as failed, even though the order
// exists server-side — the same retroactive treatment an unusable
// redirect URL gets.
//
// No retry is attempted here; a retry is the seller re-submitting the
// same selection, which still holds all its products on failure.
func (i *Initiator) Submit(ctx context.Context, sel *selection.Selection) (*Handoff, error) {
	pkg := sel.Package()
	if pkg == nil {
		return nil, &ValidationError{Reason: ErrNoPackage}
	}
	productIDs := sel.ProductIDs()
	if len(productIDs) == 0 {
		return nil, &ValidationError{Reason: ErrNoProducts}
	}

	req := backend.BoostOrderRequest{
		Price:        sel.Total(),
		ProductIDs:   productIDs,
		DurationDays: pkg.DurationDays,
	}

	// One fresh key per submission; the backend dedups double-submits on it.
	if metadata.IdempotencyKey(ctx) == "" {
		ctx = metadata.WithIdempotencyKey(ctx, uuid.NewString())
	}

	order, err := i.creator.CreateBoostOrder(ctx, req)
	if err != nil {
		return nil, &OrderCreationError{Err: err}
	}

	txn := pending.Transaction{
		TxnID:        order.TxnID,
		ProductIDs:   req.ProductIDs,
		DurationDays: req.DurationDays,
		Price:        req.Price,
		CreatedAt:    i.now().UTC(),
	}
	if err := i.store.Put(ctx, txn); err != nil {
		return nil, &OrderCreationError{Err: fmt.Errorf("persist pending transaction %s: %w", order.TxnID, err)}
	}

	i.record(ctx, txnlog.NewEntry(ctx, order.TxnID, txnlog.StatusCreated, encodeRequest(req), ""))

	if err := validateRedirectURL(order.RedirectURL); err != nil {
		return nil, &RedirectFailure{TxnID: order.TxnID, Err: err}
	}

	return &Handoff{TxnID: order.TxnID, RedirectURL: order.RedirectURL}, nil
}

// MarkRedirectIssued records the point of no return. Called immediately
// before the HTTP layer writes the redirect response; nothing after that
// write is guaranteed to run.
func (i *Initiator) MarkRedirectIssued(ctx context.Context, txnID string) {
	i.record(ctx, txnlog.NewEntry(ctx, txnID, txnlog.StatusRedirectIssued, "", ""))
}

// Abandon clears the pending slot when a seller cancels before the
// redirect. If an order was already created the backend resolves it as
// never paid; locally the transaction is simply forgotten.
func (i *Initiator) Abandon(ctx context.Context) error {
	txn, err := i.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("abandon: read pending transaction: %w", err)
	}
	if txn == nil {
		return nil
	}
	if err := i.store.Clear(ctx); err != nil {
		return fmt.Errorf("abandon: clear pending transaction: %w", err)
	}
	i.record(ctx, txnlog.NewEntry(ctx, txn.TxnID, txnlog.StatusAbandoned, "", ""))
	return nil
}

func (i *Initiator) record(ctx context.Context, entry *txnlog.Entry) {
	if i.transitions == nil {
		return
	}
	if err := i.transitions.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "transition log write failed", "txn_id", entry.TxnID, "status", entry.Status, "error", err)
	}
}

func validateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse redirect url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("redirect url %q is not an absolute http(s) url", raw)
	}
	return nil
}

func encodeRequest(req backend.BoostOrderRequest) string {
	b, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return string(b)
}
