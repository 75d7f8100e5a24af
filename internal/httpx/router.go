package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/listing-boost/internal/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/boost/packages", handler.ListPackages)
	r.Get("/boost/products", handler.ListProducts)

	r.Get("/boost/selection", handler.GetSelection)
	r.Post("/boost/selection/products/{id}", handler.ToggleProduct)
	r.Put("/boost/selection/package", handler.ChoosePackage)
	r.Delete("/boost/selection", handler.ResetSelection)

	r.Post("/boost/checkout", handler.Checkout)
	r.Post("/products/{id}/boost", handler.BoostNow)

	r.Get("/payments/return", handler.PaymentReturn)
	r.Post("/boost/pending/abandon", handler.AbandonPending)
	r.Get("/boost/notices", handler.ListNotices)

	return otelhttp.NewHandler(r, "boost-agent")
}
