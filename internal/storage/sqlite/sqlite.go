// Package sqlite backs the boost workflow's durable state with one SQLite
// database file: the single-slot pending transaction and the append-only
// transition log.
//
// SQLite is the right shape here because the slot must be a per-profile
// durable file that outlives the process and is readable on the very next
// load with no external service up. WAL mode is enabled on Open so a
// reconciliation read never blocks a checkout write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/txnlog"

	// Register the pure-Go SQLite driver.
	// modernc.org/sqlite avoids CGO, keeping cross-compilation and Alpine
	// images painless.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_transaction (
    -- The slot column pins the table to a single row: every write targets
    -- slot 1 and conflicts resolve as an overwrite (last write wins).
    slot            INTEGER PRIMARY KEY CHECK (slot = 1),

    -- Backend-assigned transaction identifier.
    txn_id          TEXT    NOT NULL,

    -- JSON array of product IDs, in selection order.
    product_ids     TEXT    NOT NULL,

    duration_days   INTEGER NOT NULL,
    price           REAL    NOT NULL,

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS boost_transitions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    txn_id          TEXT    NOT NULL,

    -- Transition at the time this row was written (CREATED, PAID, ...).
    status          TEXT    NOT NULL,

    -- JSON boost order. Written once on CREATED, NULL after.
    payload         TEXT,

    -- Error context on FAILED/STALE rows.
    detail          TEXT    NOT NULL DEFAULT '',

    -- W3C trace/span IDs from the active OTel span, for jumping from a
    -- row straight to the distributed trace.
    trace_id        TEXT    NOT NULL DEFAULT '',
    span_id         TEXT    NOT NULL DEFAULT '',

    recorded_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_boost_transitions_txn_id
    ON boost_transitions(txn_id, recorded_at);
`

// DB wraps the shared SQLite handle. Obtain the two adapters with
// PendingStore and TransitionLog; both share the same file and pool.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	db, err := sqlite.Open("./data/boost.db")
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the database handle. Call it with defer in main().
func (d *DB) Close() error {
	return d.db.Close()
}

// PendingStore returns the single-slot pending.Store backed by this file.
func (d *DB) PendingStore() *PendingStore {
	return &PendingStore{db: d.db}
}

// TransitionLog returns the txnlog.Repository backed by this file.
func (d *DB) TransitionLog() *TransitionLog {
	return &TransitionLog{db: d.db}
}

var _ pending.Store = (*PendingStore)(nil)

// PendingStore is the SQLite implementation of pending.Store.
type PendingStore struct {
	db *sql.DB
}

// Put overwrites the slot unconditionally.
func (s *PendingStore) Put(ctx context.Context, txn pending.Transaction) error {
	ids, err := json.Marshal(txn.ProductIDs)
	if err != nil {
		return fmt.Errorf("sqlite: encode product ids: %w", err)
	}

	const q = `
		INSERT INTO pending_transaction (slot, txn_id, product_ids, duration_days, price, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			txn_id        = excluded.txn_id,
			product_ids   = excluded.product_ids,
			duration_days = excluded.duration_days,
			price         = excluded.price,
			created_at    = excluded.created_at`

	_, err = s.db.ExecContext(ctx, q,
		txn.TxnID,
		string(ids),
		txn.DurationDays,
		txn.Price,
		formatRFC3339(txn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put pending transaction %q: %w", txn.TxnID, err)
	}
	return nil
}

// Get returns the stored transaction, or nil when the slot is empty.
func (s *PendingStore) Get(ctx context.Context) (*pending.Transaction, error) {
	const q = `
		SELECT txn_id, product_ids, duration_days, price, created_at
		FROM   pending_transaction
		WHERE  slot = 1`

	row := s.db.QueryRowContext(ctx, q)

	var txn pending.Transaction
	var ids, createdAt string
	err := row.Scan(&txn.TxnID, &ids, &txn.DurationDays, &txn.Price, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get pending transaction: %w", err)
	}

	if err := json.Unmarshal([]byte(ids), &txn.ProductIDs); err != nil {
		return nil, fmt.Errorf("sqlite: decode product ids: %w", err)
	}
	txn.CreatedAt, err = parseRFC3339(createdAt)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (s *PendingStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_transaction WHERE slot = 1`); err != nil {
		return fmt.Errorf("sqlite: clear pending transaction: %w", err)
	}
	return nil
}

var _ txnlog.Repository = (*TransitionLog)(nil)

// TransitionLog is the SQLite implementation of txnlog.Repository.
type TransitionLog struct {
	db *sql.DB
}

// Save inserts a new transition row. Safe to call concurrently.
func (l *TransitionLog) Save(ctx context.Context, entry *txnlog.Entry) error {
	const q = `
		INSERT INTO boost_transitions
			(txn_id, status, payload, detail, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)`

	_, err := l.db.ExecContext(ctx, q,
		entry.TxnID,
		string(entry.Status),
		nullableString(entry.Payload),
		entry.Detail,
		entry.TraceID,
		entry.SpanID,
		formatRFC3339(entry.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save transition for %q: %w", entry.TxnID, err)
	}
	return nil
}

// History returns all transitions for a transaction, oldest first. Used by
// a status endpoint and in tests; the workflow itself never reads the log.
func (l *TransitionLog) History(ctx context.Context, txnID string) ([]txnlog.Entry, error) {
	const q = `
		SELECT txn_id, status, COALESCE(payload,''), detail, trace_id, span_id, recorded_at
		FROM   boost_transitions
		WHERE  txn_id = ?
		ORDER  BY recorded_at ASC, id ASC`

	rows, err := l.db.QueryContext(ctx, q, txnID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", txnID, err)
	}
	defer rows.Close()

	var out []txnlog.Entry
	for rows.Next() {
		var e txnlog.Entry
		var recordedAt string
		if err := rows.Scan(&e.TxnID, &e.Status, &e.Payload, &e.Detail, &e.TraceID, &e.SpanID, &recordedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan transition: %w", err)
		}
		e.RecordedAt, err = parseRFC3339(recordedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// nullableString returns nil for empty strings so SQLite stores NULL
// instead of an empty TEXT.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
