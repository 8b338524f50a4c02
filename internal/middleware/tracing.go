package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the next handler so chi's route pattern is available once
			// routing has completed.
			wrappedNext := http.HandlerFunc(func(w2 http.ResponseWriter, r2 *http.Request) {
				rctx := chi.RouteContext(r2.Context())
				var operation string

				if rctx != nil && rctx.RoutePattern() != "" {
					// e.g. "GET /api/v1/payments/{id}" instead of the raw path
					operation = fmt.Sprintf("%s %s", r2.Method, rctx.RoutePattern())
				} else {
					operation = fmt.Sprintf("%s %s", r2.Method, r2.URL.Path)
				}

				instrumentedHandler := otelhttp.NewHandler(next, operation)
				instrumentedHandler.ServeHTTP(w2, r2)
			})

			wrappedNext.ServeHTTP(w, r)
		})
	}
}
