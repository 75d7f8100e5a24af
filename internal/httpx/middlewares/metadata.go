// Package middlewares carries per-request identifiers from HTTP headers
// into the context, so backend calls made further down can echo them.
package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/listing-boost/internal/pkg/metadata"
)

// AttachRequestMetadata stores the chi request ID and the caller's
// idempotency key (if any) in the request context.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := metadata.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		if key := r.Header.Get(metadata.HeaderXIdempotencyKey); key != "" {
			ctx = metadata.WithIdempotencyKey(ctx, key)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
