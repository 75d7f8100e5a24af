package txnlog

import "context"

// Repository is the port for persisting transition entries. The workflow
// depends on this abstraction, not on SQLite directly, so tests can use an
// in-memory implementation.
type Repository interface {
	// Save appends one row; the table is an append-only audit log, never
	// an upsert.
	Save(ctx context.Context, entry *Entry) error
}
