// Package pending defines the durable single-slot record of an in-flight
// boost payment.
//
// The record is written before the browser is handed to the payment
// processor and read back on the next load; it is the only way to recover
// the transaction identity after the page unload the redirect causes.
package pending

import (
	"context"
	"time"
)

// Transaction is the durable record of one in-flight boost payment.
type Transaction struct {
	// TxnID is the opaque identifier the backend assigned on creation.
	TxnID string `json:"txn_id"`

	// ProductIDs are the listings this payment boosts, in selection order.
	ProductIDs []string `json:"product_ids"`

	// DurationDays is the promotion length that was paid for.
	DurationDays int `json:"duration_days"`

	// Price is the total charged amount.
	Price float64 `json:"price"`

	// CreatedAt anchors the staleness window for NOT_FOUND answers.
	CreatedAt time.Time `json:"created_at"`
}

// Store is the port for the single-slot durable storage. The slot holds at
// most one transaction: a Put while occupied is a legitimate overwrite,
// since the previous transaction is by definition abandoned — a seller
// cannot have two boost redirects in flight from one profile.
type Store interface {
	// Put overwrites the slot unconditionally. Called only by the order
	// initiator, and only after the backend confirmed creation.
	Put(ctx context.Context, txn Transaction) error

	// Get returns the stored transaction, or nil when the slot is empty.
	Get(ctx context.Context) (*Transaction, error)

	// Clear empties the slot. Clearing an empty slot is a no-op.
	Clear(ctx context.Context) error
}
