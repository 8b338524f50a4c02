package controller

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/hosted"
	"github.com/cassiomorais/cybersource-gateway/internal/infrastructure/observability"
)

// CheckoutController serves the hosted-checkout redirect flow.
type CheckoutController struct {
	gateway   *hosted.Gateway
	orderRepo order.Repository
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewCheckoutController creates a checkout controller.
func NewCheckoutController(gateway *hosted.Gateway, orderRepo order.Repository, metrics *observability.Metrics, logger zerolog.Logger) *CheckoutController {
	return &CheckoutController{
		gateway:   gateway,
		orderRepo: orderRepo,
		metrics:   metrics,
		logger:    logger.With().Str("controller", "checkout").Logger(),
	}
}

// Redirect builds the signed POST the storefront renders as an
// auto-submitting form towards the hosted checkout.
func (c *CheckoutController) Redirect(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req redirectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, c.logger, err)
		return
	}

	ord, err := c.orderRepo.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	amount := payment.Amount{ValueCents: ord.BalanceCents, Currency: ord.Currency}
	if req.AmountCents > 0 {
		amount.ValueCents = req.AmountCents
	}
	if req.Currency != "" {
		amount.Currency = req.Currency
	}

	form, err := c.gateway.BuildRedirectForm(r.Context(), ord, hosted.RedirectRequest{
		Amount:        amount,
		ReturnURL:     req.ReturnURL,
		CancelURL:     req.CancelURL,
		ClientIP:      clientIP(r),
		Authenticated: req.Authenticated,
	})
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	if c.metrics != nil {
		c.metrics.RecordRedirectForm()
	}
	writeJSON(w, http.StatusCreated, newRedirectResponse(form))
}

// Return receives the processor's return callback, posted by the customer's
// browser on the way back from the hosted checkout.
func (c *CheckoutController) Return(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	if err := r.ParseForm(); err != nil {
		writeError(w, c.logger, err)
		return
	}

	p, err := c.gateway.OnReturn(r.Context(), orderID, r.PostForm)
	if err != nil {
		c.recordReturn(r.PostForm.Get("decision"), err)
		writeError(w, c.logger, err)
		return
	}
	if p == nil {
		// Mismatched reference or transaction: the callback is not for us.
		writeJSON(w, http.StatusOK, returnResponse{Status: "ignored"})
		return
	}

	c.recordReturn(r.PostForm.Get("decision"), nil)
	resp := newPaymentResponse(p)
	writeJSON(w, http.StatusOK, returnResponse{Status: "ok", Payment: &resp})
}

func (c *CheckoutController) recordReturn(decision string, err error) {
	if c.metrics == nil {
		return
	}
	if reason := signatureFailureReason(err); reason != "" {
		c.metrics.RecordSignatureFailure(reason)
		return
	}
	if decision == "" {
		decision = "unknown"
	}
	c.metrics.RecordReturnCallback(decision)
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware has already resolved proxy headers.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
