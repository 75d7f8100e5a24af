// Package httpx is the in-page API the storefront UI drives the boost
// workflow through: selection editing, checkout, the payment-return hook,
// and the notice feed.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/listing-boost/internal/backend"
	"github.com/jcmexdev/listing-boost/internal/boost/catalog"
	"github.com/jcmexdev/listing-boost/internal/boost/notify"
	"github.com/jcmexdev/listing-boost/internal/boost/selection"
	"github.com/jcmexdev/listing-boost/internal/boost/workflow"
)

// ProductLister feeds the selection screen; implemented by the cached
// products service.
type ProductLister interface {
	ListBoostable(ctx context.Context) ([]backend.Product, error)
}

// Handler serves the boost workflow endpoints. It owns the one live
// selection of the seller session; a boost agent serves a single seller
// profile, mirroring the one-tab model of the original flow.
type Handler struct {
	catalog    *catalog.Catalog
	products   ProductLister
	initiator  *workflow.Initiator
	reconciler *workflow.Reconciler
	feed       *notify.Feed

	mu  sync.Mutex
	sel *selection.Selection
}

func NewHandler(
	cat *catalog.Catalog,
	products ProductLister,
	initiator *workflow.Initiator,
	reconciler *workflow.Reconciler,
	feed *notify.Feed,
) *Handler {
	return &Handler{
		catalog:    cat,
		products:   products,
		initiator:  initiator,
		reconciler: reconciler,
		feed:       feed,
	}
}

// ListPackages returns the fixed tier table.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs := h.catalog.Packages()
	out := make([]PackageDTO, len(pkgs))
	for i, p := range pkgs {
		out[i] = PackageDTO{DurationDays: p.DurationDays, UnitPrice: p.UnitPrice}
	}
	writeJSON(w, http.StatusOK, PackagesResponse{Packages: out})
}

// ListProducts returns the seller's boostable listings.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListBoostable(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "backend_error", err.Error())
		return
	}
	out := make([]ProductDTO, len(products))
	for i, p := range products {
		out[i] = ProductDTO{ID: p.ID, Title: p.Title, Price: p.Price}
	}
	writeJSON(w, http.StatusOK, ProductsResponse{Products: out})
}

// ToggleProduct flips a listing in or out of the live selection.
func (h *Handler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id_required", "")
		return
	}

	sel, err := h.currentSelection(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "backend_error", err.Error())
		return
	}
	sel.Toggle(productID)
	writeJSON(w, http.StatusOK, selectionView(sel))
}

// ChoosePackage sets the active tier on the live selection.
func (h *Handler) ChoosePackage(w http.ResponseWriter, r *http.Request) {
	var req ChoosePackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	pkg, err := h.catalog.ByDuration(req.DurationDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_package", err.Error())
		return
	}

	sel, err := h.currentSelection(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "backend_error", err.Error())
		return
	}
	sel.ChoosePackage(pkg)
	writeJSON(w, http.StatusOK, selectionView(sel))
}

// GetSelection returns the live selection and its derived total.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	sel := h.sel
	h.mu.Unlock()

	if sel == nil {
		writeJSON(w, http.StatusOK, SelectionResponse{ProductIDs: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, selectionView(sel))
}

// ResetSelection discards the live selection. Client-only: no backend
// order exists until checkout, so closing the picker costs nothing.
func (h *Handler) ResetSelection(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.sel != nil {
		h.sel.Reset()
	}
	h.sel = nil
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// Checkout submits the live selection and hands the browser to the
// payment processor.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	sel := h.sel
	h.mu.Unlock()

	if sel == nil {
		writeError(w, http.StatusBadRequest, "no-products", "nothing selected")
		return
	}
	h.submitAndRedirect(w, r, sel)
}

// BoostNow is the single-listing entry point: no explicit selection step,
// the listing under the button is the whole selection.
func (h *Handler) BoostNow(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id_required", "")
		return
	}

	var req BoostNowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	pkg, err := h.catalog.ByDuration(req.DurationDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_package", err.Error())
		return
	}

	sel := selection.New([]string{productID})
	sel.Toggle(productID)
	sel.ChoosePackage(pkg)
	h.submitAndRedirect(w, r, sel)
}

// submitAndRedirect runs the initiator and, on success, issues the 303 to
// the processor. The pending record is durable before the redirect is
// written; the response body duplicates the target for UI code that
// follows redirects itself.
func (h *Handler) submitAndRedirect(w http.ResponseWriter, r *http.Request, sel *selection.Selection) {
	handoff, err := h.initiator.Submit(r.Context(), sel)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	// Terminal for this session: the next thing the seller sees is the
	// processor's page.
	h.mu.Lock()
	if h.sel == sel {
		h.sel = nil
	}
	h.mu.Unlock()
	sel.Reset()

	h.initiator.MarkRedirectIssued(r.Context(), handoff.TxnID)
	w.Header().Set("Location", handoff.RedirectURL)
	writeJSON(w, http.StatusSeeOther, CheckoutResponse{TxnID: handoff.TxnID, RedirectURL: handoff.RedirectURL})
}

// PaymentReturn is hit when the processor sends the browser back. It
// reconciles the stored transaction and returns the drained notices so
// the UI can surface the outcome exactly once.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.reconciler.Run(r.Context())
	if err != nil {
		// Deliberately not fatal: the slot is intact and the next load
		// retries. The UI shows nothing rather than error spam.
		slog.WarnContext(r.Context(), "reconciliation on payment return failed", "error", err)
		writeJSON(w, http.StatusOK, ReconcileResponse{Outcome: "UNRESOLVED", Notices: []notify.Notice{}})
		return
	}

	notices := h.feed.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{Outcome: string(outcome), Notices: notices})
}

// AbandonPending clears the stored pending transaction on an explicit
// cancel before the redirect was followed.
func (h *Handler) AbandonPending(w http.ResponseWriter, r *http.Request) {
	if err := h.initiator.Abandon(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "abandon_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotices drains the outcome feed. Used by the UI after a startup
// reconciliation pass, where no payment-return request exists to carry
// the notices.
func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	notices := h.feed.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	writeJSON(w, http.StatusOK, NoticesResponse{Notices: notices})
}

// currentSelection returns the live selection, creating it from the
// current eligible listings on first use.
func (h *Handler) currentSelection(ctx context.Context) (*selection.Selection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sel != nil {
		return h.sel, nil
	}
	products, err := h.products.ListBoostable(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	h.sel = selection.New(ids)
	return h.sel, nil
}

func selectionView(sel *selection.Selection) SelectionResponse {
	res := SelectionResponse{
		ProductIDs: sel.ProductIDs(),
		Total:      sel.Total(),
	}
	if res.ProductIDs == nil {
		res.ProductIDs = []string{}
	}
	if pkg := sel.Package(); pkg != nil {
		res.DurationDays = pkg.DurationDays
	}
	return res
}

func writeWorkflowError(w http.ResponseWriter, err error) {
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		code := "invalid_selection"
		switch {
		case errors.Is(err, workflow.ErrNoPackage):
			code = "no-package"
		case errors.Is(err, workflow.ErrNoProducts):
			code = "no-products"
		}
		writeError(w, http.StatusBadRequest, code, verr.Error())
		return
	}

	var rerr *workflow.RedirectFailure
	if errors.As(err, &rerr) {
		writeError(w, http.StatusBadGateway, "redirect_failed", rerr.Error())
		return
	}

	var cerr *workflow.OrderCreationError
	if errors.As(err, &cerr) {
		writeError(w, http.StatusBadGateway, "order_creation_failed", cerr.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
