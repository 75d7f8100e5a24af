package txnlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NewEntry builds a transition entry with the trace and span IDs taken
// from the OpenTelemetry span active in ctx. If the context carries no
// valid span (unit tests, startup reconciliation before any request),
// both IDs are empty strings.
func NewEntry(ctx context.Context, txnID string, status Status, payload, detail string) *Entry {
	e := &Entry{
		TxnID:      txnID,
		Status:     status,
		Payload:    payload,
		Detail:     detail,
		RecordedAt: time.Now().UTC(),
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}
