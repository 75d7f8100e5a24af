// Package backend is the REST adapter for the storefront API. The rest of
// the storefront (catalog CRUD, carts, sessions) is out of scope here; this
// client speaks only the three boost endpoints the payment workflow needs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/listing-boost/internal/pkg/metadata"
)

// Client calls the storefront backend with the seller's bearer credential.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

// NewClient builds a backend client. The credential is assumed valid for
// the duration of order creation; refreshing it is the caller's problem.
func NewClient(baseURL, credential string) *Client {
	return &Client{
		baseURL:    baseURL,
		credential: credential,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CreateBoostOrder submits a priced boost order and returns the pending
// transaction identity plus the processor's redirect target.
//
// A 2xx response missing txn_id or redirect_url is reported as an error:
// without both fields the transaction could never be reconciled after the
// redirect, so the caller must treat it exactly like a failed creation.
func (c *Client) CreateBoostOrder(ctx context.Context, req BoostOrderRequest) (*BoostOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("backend: encode boost order: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/v1/boost/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := metadata.IdempotencyKey(ctx); key != "" {
		httpReq.Header.Set(metadata.HeaderXIdempotencyKey, key)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: create boost order: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("backend: create boost order: unexpected status %d", res.StatusCode)
	}

	var order BoostOrder
	if err := json.NewDecoder(res.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("backend: decode boost order response: %w", err)
	}
	if order.TxnID == "" || order.RedirectURL == "" {
		return nil, fmt.Errorf("backend: boost order response missing txn_id or redirect_url")
	}

	return &order, nil
}

// GetBoostTransactionStatus asks for the authoritative outcome of txnID.
// A 404 maps to StatusNotFound rather than an error: the record having
// expired server-side is an answer, not a transport failure.
func (c *Client) GetBoostTransactionStatus(ctx context.Context, txnID string) (TransactionStatus, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/v1/boost/transactions/"+txnID, nil)
	if err != nil {
		return "", err
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("backend: get transaction status: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return StatusNotFound, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("backend: get transaction status: unexpected status %d", res.StatusCode)
	}

	var payload struct {
		Status TransactionStatus `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("backend: decode transaction status: %w", err)
	}

	switch payload.Status {
	case StatusPaid, StatusFailed, StatusPending, StatusNotFound:
		return payload.Status, nil
	default:
		return "", fmt.Errorf("backend: unknown transaction status %q", payload.Status)
	}
}

// ListBoostableProducts returns the seller's listings eligible for
// boosting.
func (c *Client) ListBoostableProducts(ctx context.Context) ([]Product, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/v1/boost/products", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: list boostable products: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("backend: list boostable products: unexpected status %d", res.StatusCode)
	}

	var payload struct {
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("backend: decode products: %w", err)
	}
	return payload.Products, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.credential)
	if id := metadata.RequestID(ctx); id != "" {
		req.Header.Set(metadata.HeaderXRequestID, id)
	}
	return req, nil
}
