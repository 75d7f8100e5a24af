package httpx

import "github.com/jcmexdev/listing-boost/internal/boost/notify"

type PackageDTO struct {
	DurationDays int     `json:"duration_days"`
	UnitPrice    float64 `json:"unit_price"`
}

type PackagesResponse struct {
	Packages []PackageDTO `json:"packages"`
}

type ProductDTO struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type ProductsResponse struct {
	Products []ProductDTO `json:"products"`
}

type ChoosePackageRequest struct {
	DurationDays int `json:"duration_days"`
}

type SelectionResponse struct {
	ProductIDs   []string `json:"product_ids"`
	DurationDays int      `json:"duration_days,omitempty"`
	Total        float64  `json:"total"`
}

type BoostNowRequest struct {
	DurationDays int `json:"duration_days"`
}

type CheckoutResponse struct {
	TxnID       string `json:"txn_id"`
	RedirectURL string `json:"redirect_url"`
}

type ReconcileResponse struct {
	Outcome string          `json:"outcome"`
	Notices []notify.Notice `json:"notices"`
}

type NoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
