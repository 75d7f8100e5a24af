package backend

// Product is a seller listing eligible for boosting. The backend filters
// out listings that are already boosted or sold before returning them.
type Product struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// BoostOrderRequest is the priced order for one boosting session.
// Immutable once sent; ProductIDs keeps the seller's toggle order and
// never contains duplicates.
type BoostOrderRequest struct {
	Price        float64  `json:"price"`
	ProductIDs   []string `json:"product_ids"`
	DurationDays int      `json:"duration_days"`
}

// BoostOrder is the backend's answer to a successful order creation:
// an opaque transaction identifier and the payment processor's hosted
// checkout page.
type BoostOrder struct {
	TxnID       string `json:"txn_id"`
	RedirectURL string `json:"redirect_url"`
}

// TransactionStatus is the server-authoritative outcome of a boost
// payment. It is queried once per reconciliation pass and never cached.
type TransactionStatus string

const (
	StatusPaid     TransactionStatus = "PAID"
	StatusFailed   TransactionStatus = "FAILED"
	StatusPending  TransactionStatus = "PENDING"
	StatusNotFound TransactionStatus = "NOT_FOUND"
)
