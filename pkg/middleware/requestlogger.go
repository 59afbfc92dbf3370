package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/catalog/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, trace_id and span_id. Handlers fetch it with
// logger.FromContext.
//
// Mount it after RequestLogging and Tracing so both ids are available.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeProduct tags the request context with productID and rebuilds the
// request-scoped logger so that downstream log lines carry product_id.
func ScopeProduct(r *http.Request, base *slog.Logger, productID string) *http.Request {
	ctx := logger.WithProductID(r.Context(), productID)
	ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
	return r.WithContext(ctx)
}
