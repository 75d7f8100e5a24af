package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/catalog"
	"github.com/jcmexdev/listing-boost/internal/boost/notify"
	"github.com/jcmexdev/listing-boost/internal/boost/pending"
	"github.com/jcmexdev/listing-boost/internal/boost/workflow"
)

type fakeBackend struct {
	products  []backend.Product
	order     *backend.BoostOrder
	createErr error
	status    backend.TransactionStatus
	statusErr error
}

func (f *fakeBackend) ListBoostable(ctx context.Context) ([]backend.Product, error) {
	return f.products, nil
}

func (f *fakeBackend) CreateBoostOrder(ctx context.Context, req backend.BoostOrderRequest) (*backend.BoostOrder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.order, nil
}

func (f *fakeBackend) GetBoostTransactionStatus(ctx context.Context, txnID string) (backend.TransactionStatus, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}

type testAgent struct {
	srv     *httptest.Server
	store   *pending.MemoryStore
	backend *fakeBackend
}

func newTestAgent(t *testing.T, fb *fakeBackend) *testAgent {
	t.Helper()

	store := pending.NewMemoryStore()
	feed := notify.NewFeed()
	initiator := workflow.NewInitiator(fb, store, nil)
	reconciler := workflow.NewReconciler(store, fb, feed, nil, nil, 0)
	handler := NewHandler(catalog.Default(), fb, initiator, reconciler, feed)

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return &testAgent{srv: srv, store: store, backend: fb}
}

func (a *testAgent) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, a.srv.URL+path, nil)
	} else {
		req, err = http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	}
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	client := &http.Client{
		// Redirect handoff is the point of no return; the test inspects
		// the 303 itself instead of following it to the fake processor.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, buf
}

func TestHandler_MultiProductCheckout(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, &fakeBackend{
		products: []backend.Product{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}},
		order:    &backend.BoostOrder{TxnID: "t1", RedirectURL: "https://pay.example/t1"},
	})

	for _, id := range []string{"p1", "p2", "p3"} {
		res, _ := agent.do(t, http.MethodPost, "/boost/selection/products/"+id, "")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("toggle %s: status %d", id, res.StatusCode)
		}
	}

	res, body := agent.do(t, http.MethodPut, "/boost/selection/package", `{"duration_days":3}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("choose package: status %d: %s", res.StatusCode, body)
	}
	var sel SelectionResponse
	if err := json.Unmarshal(body, &sel); err != nil {
		t.Fatalf("decode selection: %v", err)
	}
	if sel.Total != 750 {
		t.Fatalf("expected total 750, got %v", sel.Total)
	}

	res, body = agent.do(t, http.MethodPost, "/boost/checkout", "")
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("checkout: expected 303, got %d: %s", res.StatusCode, body)
	}
	if loc := res.Header.Get("Location"); loc != "https://pay.example/t1" {
		t.Fatalf("unexpected Location %q", loc)
	}

	txn, err := agent.store.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if txn == nil || txn.TxnID != "t1" || txn.Price != 750 || len(txn.ProductIDs) != 3 {
		t.Fatalf("pending record missing or wrong at redirect time: %+v", txn)
	}
}

func TestHandler_BoostNow(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, &fakeBackend{
		order: &backend.BoostOrder{TxnID: "t2", RedirectURL: "https://pay.example/t2"},
	})

	res, body := agent.do(t, http.MethodPost, "/products/p7/boost", `{"duration_days":1}`)
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", res.StatusCode, body)
	}

	txn, _ := agent.store.Get(context.Background())
	if txn == nil || len(txn.ProductIDs) != 1 || txn.ProductIDs[0] != "p7" || txn.Price != 100 {
		t.Fatalf("expected single-listing pending record at price 100, got %+v", txn)
	}
}

func TestHandler_CheckoutValidation(t *testing.T) {
	t.Parallel()

	t.Run("nothing selected", func(t *testing.T) {
		agent := newTestAgent(t, &fakeBackend{})
		res, body := agent.do(t, http.MethodPost, "/boost/checkout", "")
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", res.StatusCode)
		}
		var errRes ErrorResponse
		_ = json.Unmarshal(body, &errRes)
		if errRes.Error != "no-products" {
			t.Fatalf("expected no-products, got %q", errRes.Error)
		}
	})

	t.Run("products without package", func(t *testing.T) {
		agent := newTestAgent(t, &fakeBackend{products: []backend.Product{{ID: "p1"}}})
		agent.do(t, http.MethodPost, "/boost/selection/products/p1", "")

		res, body := agent.do(t, http.MethodPost, "/boost/checkout", "")
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", res.StatusCode)
		}
		var errRes ErrorResponse
		_ = json.Unmarshal(body, &errRes)
		if errRes.Error != "no-package" {
			t.Fatalf("expected no-package, got %q", errRes.Error)
		}
	})

	t.Run("unknown package duration", func(t *testing.T) {
		agent := newTestAgent(t, &fakeBackend{products: []backend.Product{{ID: "p1"}}})
		res, _ := agent.do(t, http.MethodPut, "/boost/selection/package", `{"duration_days":42}`)
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", res.StatusCode)
		}
	})

	t.Run("creation failure keeps the selection for a retry", func(t *testing.T) {
		agent := newTestAgent(t, &fakeBackend{
			products:  []backend.Product{{ID: "p1"}},
			createErr: errors.New("backend down"),
		})
		agent.do(t, http.MethodPost, "/boost/selection/products/p1", "")
		agent.do(t, http.MethodPut, "/boost/selection/package", `{"duration_days":1}`)

		res, _ := agent.do(t, http.MethodPost, "/boost/checkout", "")
		if res.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", res.StatusCode)
		}

		_, body := agent.do(t, http.MethodGet, "/boost/selection", "")
		var sel SelectionResponse
		if err := json.Unmarshal(body, &sel); err != nil {
			t.Fatalf("decode selection: %v", err)
		}
		if len(sel.ProductIDs) != 1 || sel.Total != 100 {
			t.Fatalf("selection should survive a failed checkout, got %+v", sel)
		}
		if txn, _ := agent.store.Get(context.Background()); txn != nil {
			t.Fatalf("no pending record may exist after a failed creation")
		}
	})
}

func TestHandler_PaymentReturn(t *testing.T) {
	t.Parallel()

	t.Run("paid transaction surfaces success once", func(t *testing.T) {
		fb := &fakeBackend{
			order:  &backend.BoostOrder{TxnID: "t1", RedirectURL: "https://pay.example/t1"},
			status: backend.StatusPaid,
		}
		agent := newTestAgent(t, fb)
		agent.do(t, http.MethodPost, "/products/p1/boost", `{"duration_days":1}`)

		_, body := agent.do(t, http.MethodGet, "/payments/return", "")
		var rec ReconcileResponse
		if err := json.Unmarshal(body, &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Outcome != string(workflow.OutcomePaid) {
			t.Fatalf("expected PAID, got %s", rec.Outcome)
		}
		if len(rec.Notices) != 1 || rec.Notices[0].Kind != notify.KindBoostActivated {
			t.Fatalf("expected one activation notice, got %+v", rec.Notices)
		}

		// A reload of the return page stays silent.
		_, body = agent.do(t, http.MethodGet, "/payments/return", "")
		if err := json.Unmarshal(body, &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Outcome != string(workflow.OutcomeNone) || len(rec.Notices) != 0 {
			t.Fatalf("expected silent second pass, got %+v", rec)
		}
	})

	t.Run("status query failure is not fatal", func(t *testing.T) {
		fb := &fakeBackend{
			order:     &backend.BoostOrder{TxnID: "t1", RedirectURL: "https://pay.example/t1"},
			statusErr: errors.New("backend down"),
		}
		agent := newTestAgent(t, fb)
		agent.do(t, http.MethodPost, "/products/p1/boost", `{"duration_days":1}`)

		res, body := agent.do(t, http.MethodGet, "/payments/return", "")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", res.StatusCode)
		}
		var rec ReconcileResponse
		if err := json.Unmarshal(body, &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Outcome != "UNRESOLVED" {
			t.Fatalf("expected UNRESOLVED, got %s", rec.Outcome)
		}
		if txn, _ := agent.store.Get(context.Background()); txn == nil {
			t.Fatalf("slot must survive a reconciliation error")
		}
	})
}

func TestHandler_AbandonPending(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{order: &backend.BoostOrder{TxnID: "t1", RedirectURL: "https://pay.example/t1"}}
	agent := newTestAgent(t, fb)
	agent.do(t, http.MethodPost, "/products/p1/boost", `{"duration_days":1}`)

	res, _ := agent.do(t, http.MethodPost, "/boost/pending/abandon", "")
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.StatusCode)
	}
	if txn, _ := agent.store.Get(context.Background()); txn != nil {
		t.Fatalf("expected empty slot after abandon")
	}
}
