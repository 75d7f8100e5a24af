// Package txnlog defines the append-only audit trail of the boost payment
// workflow.
//
// Every state transition a transaction goes through — created, redirect
// issued, reconciled — is written as one immutable row. The log serves
// observability only: you can see exactly where a payment is (or died) and
// correlate it with a distributed trace via the trace_id field. The
// reconciliation handler never reads it; the single-slot pending store is
// the source of truth for recovery.
package txnlog

import "time"

// Status is the workflow transition being recorded.
type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusRedirectIssued Status = "REDIRECT_ISSUED"
	StatusPaid           Status = "PAID"
	StatusFailed         Status = "FAILED"
	StatusStale          Status = "STALE"
	StatusAbandoned      Status = "ABANDONED"
)

// Entry is a single row in the boost_transitions table.
type Entry struct {
	// TxnID is the backend-assigned transaction identifier, so log rows
	// can be joined with the backend's own payment records.
	TxnID string

	// Status is the transition being recorded.
	Status Status

	// Payload is the JSON-serialised boost order. Stored once on CREATED,
	// empty afterwards.
	Payload string

	// Detail carries failure context: the error string on FAILED/STALE
	// rows, empty otherwise.
	Detail string

	// TraceID is the W3C trace ID extracted from the OpenTelemetry span
	// active when this entry was written.
	TraceID string

	// SpanID pinpoints the exact span within the trace.
	SpanID string

	// RecordedAt is the wall-clock time of this transition.
	RecordedAt time.Time
}
