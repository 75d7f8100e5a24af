package workflow

import (
	"errors"
	"fmt"
)

// Validation failures; locally recoverable, the selection is left intact.
var (
	ErrNoPackage  = errors.New("no package chosen")
	ErrNoProducts = errors.New("no products selected")
)

// ErrStaleTransaction marks a pending transaction the backend no longer
// knows about after the safety window. Terminal: the slot is cleared.
var ErrStaleTransaction = errors.New("pending transaction not found after safety window")

// ValidationError rejects a submission before anything is sent.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid boost selection: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// OrderCreationError covers backend or transport failure during order
// creation, including malformed success responses. No durable state was
// written; the seller may simply retry.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("boost order creation failed: %v", e.Err)
}

func (e *OrderCreationError) Unwrap() error { return e.Err }

// RedirectFailure means the order was created but the redirect target is
// unusable. Unlike OrderCreationError the pending transaction HAS been
// persisted: the order exists server-side and the next reconciliation
// pass must be able to resolve it.
type RedirectFailure struct {
	TxnID string
	Err   error
}

func (e *RedirectFailure) Error() string {
	return fmt.Sprintf("boost order %s created but redirect unusable: %v", e.TxnID, e.Err)
}

func (e *RedirectFailure) Unwrap() error { return e.Err }

// ReconciliationError means the status query failed. The slot is left
// untouched so the next load retries; losing a success notification beats
// silently dropping a seller's payment outcome.
type ReconciliationError struct {
	TxnID string
	Err   error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation of %s failed: %v", e.TxnID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
