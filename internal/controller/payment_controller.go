package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/flex"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CaptureContextStore caches tokenizer capture contexts per session.
type CaptureContextStore interface {
	GetOrCreate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error)
	Regenerate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error)
}

// PaymentController serves the on-site payment lifecycle.
type PaymentController struct {
	cfg         config.FlexConfig
	gateway     *flex.Gateway
	orderRepo   order.Repository
	paymentRepo payment.Repository
	methodRepo  payment.MethodRepository
	txManager   TxRunner
	captureCtx  CaptureContextStore
	logger      zerolog.Logger
}

// NewPaymentController creates a payment controller.
func NewPaymentController(
	cfg config.FlexConfig,
	gateway *flex.Gateway,
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	methodRepo payment.MethodRepository,
	txManager TxRunner,
	captureCtx CaptureContextStore,
	logger zerolog.Logger,
) *PaymentController {
	return &PaymentController{
		cfg:         cfg,
		gateway:     gateway,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		methodRepo:  methodRepo,
		txManager:   txManager,
		captureCtx:  captureCtx,
		logger:      logger.With().Str("controller", "payment").Logger(),
	}
}

// flexEnabled guards handlers that need the on-site gateway, which is only
// wired when the REST API credentials are configured.
func (c *PaymentController) flexEnabled(w http.ResponseWriter) bool {
	if c.gateway == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "on-site payments are not configured",
			Code:  "not_configured",
		})
		return false
	}
	return true
}

// Create authorizes a new payment for an order, either from a fresh
// transient token or a stored payment method.
func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	if !c.flexEnabled(w) {
		return
	}
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, c.logger, err)
		return
	}
	if (req.TransientToken == "") == (req.PaymentMethodID == "") {
		writeError(w, c.logger, errors.NewValidationError(
			"payment_method", "exactly one of transient_token or payment_method_id is required"))
		return
	}

	ctx := r.Context()
	ord, err := c.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	method, err := c.resolveMethod(ctx, ord, &req)
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
	p, err := payment.NewPayment(ord.ID, amount)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	// Method and payment are committed together; the remote authorize runs
	// outside the transaction so a slow processor never holds a database
	// transaction open.
	err = c.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if method.HasTransientToken() {
			if err := c.methodRepo.Create(ctx, method); err != nil {
				return err
			}
		}
		return c.paymentRepo.Create(ctx, p)
	})
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	capture := c.cfg.Capture()
	if req.Capture != nil {
		capture = *req.Capture
	}
	if err := c.gateway.CreatePayment(ctx, ord, p, method, capture); err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentResponse{
		Payment: newPaymentResponse(p),
		Method:  newMethodResponse(method),
	})
}

func (c *PaymentController) resolveMethod(ctx context.Context, ord *order.Order, req *createPaymentRequest) (*payment.Method, error) {
	if req.PaymentMethodID != "" {
		id, err := uuid.Parse(req.PaymentMethodID)
		if err != nil {
			return nil, errors.NewValidationError("payment_method_id", "must be a UUID")
		}
		return c.methodRepo.GetByID(ctx, id)
	}

	details, err := flex.ParseTransientToken(req.TransientToken)
	if err != nil {
		return nil, errors.NewValidationError("transient_token", err.Error())
	}
	return payment.NewMethodFromTransientToken(
		ord.OwnerID, req.TransientToken,
		details.MaskedNumber, details.Brand, details.ExpMonth, details.ExpYear)
}

// Get returns a payment.
func (c *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.loadPayment(r)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentResponse(p))
}

// Capture captures an authorized payment, optionally for a partial amount.
func (c *PaymentController) Capture(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, func(ctx context.Context, p *payment.Payment, amountCents int64) error {
		return c.gateway.CapturePayment(ctx, p, amountCents)
	})
}

// Refund refunds a captured payment, optionally for a partial amount.
func (c *PaymentController) Refund(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, func(ctx context.Context, p *payment.Payment, amountCents int64) error {
		return c.gateway.RefundPayment(ctx, p, amountCents)
	})
}

// Void cancels an authorization that has not been captured.
func (c *PaymentController) Void(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, func(ctx context.Context, p *payment.Payment, _ int64) error {
		return c.gateway.VoidPayment(ctx, p)
	})
}

func (c *PaymentController) lifecycle(w http.ResponseWriter, r *http.Request, op func(context.Context, *payment.Payment, int64) error) {
	if !c.flexEnabled(w) {
		return
	}
	p, err := c.loadPayment(r)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	var req amountRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, c.logger, err)
			return
		}
	}

	if err := op(r.Context(), p, req.AmountCents); err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaymentResponse(p))
}

func (c *PaymentController) loadPayment(r *http.Request) (*payment.Payment, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errors.NewValidationError("id", "must be a UUID")
	}
	return c.paymentRepo.GetByID(r.Context(), id)
}

// DeleteMethod removes a stored payment method. The remote instrument is
// left in place on the processor side.
func (c *PaymentController) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.logger, errors.NewValidationError("id", "must be a UUID"))
		return
	}
	if err := c.methodRepo.Delete(r.Context(), id); err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// CaptureContext returns the session's tokenizer capture context, minting a
// fresh one on first use or when the client asks for regeneration after a
// tokenize failure.
func (c *PaymentController) CaptureContext(w http.ResponseWriter, r *http.Request) {
	if !c.flexEnabled(w) {
		return
	}
	var req captureContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, c.logger, err)
		return
	}

	generate := func(ctx context.Context) (string, error) {
		return c.gateway.GenerateCaptureContext(ctx, req.TargetOrigin)
	}

	var keyID string
	var err error
	if req.Regenerate {
		keyID, err = c.captureCtx.Regenerate(r.Context(), req.SessionID, generate)
	} else {
		keyID, err = c.captureCtx.GetOrCreate(r.Context(), req.SessionID, generate)
	}
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, captureContextResponse{KeyID: keyID})
}
