package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the gateway.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RedirectFormsTotal     prometheus.Counter
	ReturnCallbacksTotal   *prometheus.CounterVec
	SignatureFailuresTotal *prometheus.CounterVec
	GatewayCallsTotal      *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		RedirectFormsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_redirect_forms_total",
			Help: "Signed hosted-checkout redirect forms built",
		}),
		ReturnCallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_return_callbacks_total",
			Help: "Hosted-checkout return callbacks by processor decision",
		}, []string{"decision"}),
		SignatureFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_signature_failures_total",
			Help: "Return callbacks rejected during signature validation, by reason",
		}, []string{"reason"}),
		GatewayCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_api_calls_total",
			Help: "Payment API calls by operation and resulting status",
		}, []string{"operation", "status"}),
	}
}

// RecordRedirectForm counts a built redirect form.
func (m *Metrics) RecordRedirectForm() {
	m.RedirectFormsTotal.Inc()
}

// RecordReturnCallback counts a processed return callback.
func (m *Metrics) RecordReturnCallback(decision string) {
	m.ReturnCallbacksTotal.WithLabelValues(decision).Inc()
}

// RecordSignatureFailure counts a rejected return callback.
func (m *Metrics) RecordSignatureFailure(reason string) {
	m.SignatureFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordGatewayCall counts a payment API call.
func (m *Metrics) RecordGatewayCall(operation, status string) {
	m.GatewayCallsTotal.WithLabelValues(operation, status).Inc()
}
