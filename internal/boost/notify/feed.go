// Package notify buffers the user-visible outcome notices of the boost
// workflow. The feed drains on read, which is what makes "confirmed once"
// hold: after the UI has fetched a notice it is gone, and a second
// reconciliation pass finds an already-empty pending slot and pushes
// nothing new.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notice.
type Kind string

const (
	KindBoostActivated Kind = "BOOST_ACTIVATED"
	KindBoostFailed    Kind = "BOOST_FAILED"
)

// Notice is one user-visible outcome message.
type Notice struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	TxnID      string    `json:"txn_id"`
	ProductIDs []string  `json:"product_ids"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Feed is an in-memory drain-on-read notice queue.
type Feed struct {
	mu      sync.Mutex
	notices []Notice
}

func NewFeed() *Feed {
	return &Feed{}
}

// Push appends a notice and assigns it an ID.
func (f *Feed) Push(kind Kind, txnID string, productIDs []string, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, Notice{
		ID:         uuid.NewString(),
		Kind:       kind,
		TxnID:      txnID,
		ProductIDs: append([]string(nil), productIDs...),
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	})
}

// Drain returns all buffered notices and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.notices
	f.notices = nil
	return out
}

// Len reports the number of buffered notices.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}
