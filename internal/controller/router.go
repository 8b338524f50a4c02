package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/infrastructure/observability"
	"github.com/cassiomorais/cybersource-gateway/internal/middleware"
	"github.com/cassiomorais/cybersource-gateway/internal/repository/postgres"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	Config          *config.Config
	Checkout        *CheckoutController
	Payments        *PaymentController
	Health          *HealthController
	Metrics         *observability.Metrics
	IdempotencyRepo *postgres.IdempotencyRepository
}

// NewRouter wires the HTTP surface.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if deps.Config.Observability.EnableTracing {
		r.Use(middleware.Tracing())
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: deps.Config.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.Config.Observability.EnableMetrics && deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Get("/health", deps.Health.Live)
	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)
	if deps.Config.Observability.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout/{order_id}", func(r chi.Router) {
			r.Post("/redirect", deps.Checkout.Redirect)
			// The return callback is browser-posted and unauthenticated;
			// rate limit it so a forged-callback probe cannot hammer the
			// signature validation path.
			r.With(middleware.RateLimit(deps.Config.Server.ReturnRateLimit)).
				Post("/return", deps.Checkout.Return)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.Idempotency(deps.IdempotencyRepo))
			r.Post("/", deps.Payments.Create)
			r.Get("/{id}", deps.Payments.Get)
			r.Post("/{id}/capture", deps.Payments.Capture)
			r.Post("/{id}/refund", deps.Payments.Refund)
			r.Post("/{id}/void", deps.Payments.Void)
		})

		r.Delete("/payment-methods/{id}", deps.Payments.DeleteMethod)
		r.Post("/capture-context", deps.Payments.CaptureContext)
	})

	return r
}
