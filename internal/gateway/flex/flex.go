// Package flex implements the on-site tokenized payment flow: cards are
// tokenized in the browser by the processor's checkout library, and this
// package drives the authorize, capture, refund and void lifecycle over the
// REST API using those tokens.
package flex

import (
	"context"
	stderrors "errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/cybersource"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// actionTokenTypes requested on a first-use authorization so the processor
// issues long-term tokens alongside the auth.
var actionTokenTypes = []string{"customer", "paymentInstrument", "shippingAddress"}

// APIClient is the slice of the REST client this gateway uses. The concrete
// implementation lives in internal/cybersource.
type APIClient interface {
	CreatePayment(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error)
	CapturePayment(ctx context.Context, remoteID string, req *cybersource.CaptureRequest) (*cybersource.PaymentResponse, error)
	RefundPayment(ctx context.Context, remoteID string, req *cybersource.RefundRequest) (*cybersource.PaymentResponse, error)
	VoidPayment(ctx context.Context, remoteID string, req *cybersource.VoidRequest) (*cybersource.PaymentResponse, error)
	GenerateKey(ctx context.Context, format string, req *cybersource.GenerateKeyRequest) (*cybersource.KeyResponse, error)
}

// MetricsRecorder records gateway API call outcomes.
type MetricsRecorder interface {
	RecordGatewayCall(operation, status string)
}

// Gateway drives the on-site payment lifecycle.
type Gateway struct {
	cfg         config.FlexConfig
	api         APIClient
	paymentRepo payment.Repository
	methodRepo  payment.MethodRepository
	orderLog    order.Log
	breaker     *gobreaker.CircuitBreaker[any]
	metrics     MetricsRecorder
	logger      zerolog.Logger
}

// NewGateway creates an on-site payment gateway. The circuit breaker fails
// fast when the payment API is unhealthy; calls are never retried because a
// timed-out authorize may still have charged the card.
func NewGateway(cfg config.FlexConfig, api APIClient, paymentRepo payment.Repository, methodRepo payment.MethodRepository, orderLog order.Log, metrics MetricsRecorder, logger zerolog.Logger) *Gateway {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "cybersource-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Gateway{
		cfg:         cfg,
		api:         api,
		paymentRepo: paymentRepo,
		methodRepo:  methodRepo,
		orderLog:    orderLog,
		breaker:     breaker,
		metrics:     metrics,
		logger:      logger.With().Str("gateway", "flex").Logger(),
	}
}

// CreatePayment authorizes the payment against the stored method, capturing
// in the same call when capture is set. First use of a freshly tokenized
// card exchanges the transient token for long-term tokens and promotes the
// method.
func (g *Gateway) CreatePayment(ctx context.Context, ord *order.Order, p *payment.Payment, m *payment.Method, capture bool) error {
	if err := p.AssertState(payment.StateNew); err != nil {
		return err
	}

	req := &cybersource.CreatePaymentRequest{
		ClientReferenceInformation: &cybersource.ClientReferenceInformation{Code: ord.ID},
		ProcessingInformation:      &cybersource.ProcessingInformation{Capture: capture},
		OrderInformation: &cybersource.OrderInformation{
			AmountDetails: amountDetails(p.Amount.ValueCents, p.Amount.Currency),
			BillTo:        billTo(ord),
		},
	}
	if m.HasTransientToken() {
		req.ProcessingInformation.ActionList = []string{"TOKEN_CREATE"}
		req.ProcessingInformation.ActionTokenTypes = actionTokenTypes
		req.TokenInformation = &cybersource.TokenInformation{TransientTokenJwt: m.TransientToken}
	} else {
		req.PaymentInformation = &cybersource.PaymentInformation{
			PaymentInstrument: &cybersource.PaymentInstrument{ID: m.RemoteInstrumentID},
		}
	}

	resp, err := g.callPayment(ctx, "create_payment", func(ctx context.Context) (*cybersource.PaymentResponse, error) {
		return g.api.CreatePayment(ctx, req)
	})
	if err != nil {
		return err
	}
	if err := g.checkAuthorized(ctx, p, resp); err != nil {
		return err
	}

	p.RemoteID = resp.ID
	p.RemoteState = resp.Status
	p.PaymentMethodID = &m.ID

	if m.HasTransientToken() {
		if err := g.promoteMethod(ctx, m, resp); err != nil {
			return err
		}
	}

	next := payment.StateAuthorization
	if capture {
		next = payment.StateCompleted
	}
	if err := p.TransitionTo(next); err != nil {
		return err
	}
	return g.paymentRepo.Update(ctx, p)
}

// CapturePayment captures an authorized payment. A zero amount captures the
// full authorized amount; a partial capture replaces the payment amount.
func (g *Gateway) CapturePayment(ctx context.Context, p *payment.Payment, amountCents int64) error {
	if err := p.AssertState(payment.StateAuthorization); err != nil {
		return err
	}
	if amountCents == 0 {
		amountCents = p.Amount.ValueCents
	}
	if amountCents < 0 || amountCents > p.Amount.ValueCents {
		return errors.ErrInvalidAmount
	}

	req := &cybersource.CaptureRequest{
		OrderInformation: &cybersource.OrderInformation{
			AmountDetails: amountDetails(amountCents, p.Amount.Currency),
		},
	}
	resp, err := g.callPayment(ctx, "capture_payment", func(ctx context.Context) (*cybersource.PaymentResponse, error) {
		return g.api.CapturePayment(ctx, p.RemoteID, req)
	})
	if err != nil {
		return err
	}
	if resp.Status == cybersource.StatusDeclined || resp.Status == cybersource.StatusInvalidRequest {
		return g.remoteFailure(resp)
	}

	p.Amount.ValueCents = amountCents
	p.RemoteState = resp.Status
	if err := p.TransitionTo(payment.StateCompleted); err != nil {
		return err
	}
	return g.paymentRepo.Update(ctx, p)
}

// RefundPayment refunds part or all of a captured payment. A zero amount
// refunds the remaining refundable balance.
func (g *Gateway) RefundPayment(ctx context.Context, p *payment.Payment, amountCents int64) error {
	if err := p.AssertState(payment.StateCompleted, payment.StatePartiallyRefunded); err != nil {
		return err
	}
	if amountCents == 0 {
		amountCents = p.RefundableCents()
	}
	if amountCents <= 0 || amountCents > p.RefundableCents() {
		return errors.ErrRefundExceedsBalance
	}

	req := &cybersource.RefundRequest{
		OrderInformation: &cybersource.OrderInformation{
			AmountDetails: amountDetails(amountCents, p.Amount.Currency),
		},
	}
	resp, err := g.callPayment(ctx, "refund_payment", func(ctx context.Context) (*cybersource.PaymentResponse, error) {
		return g.api.RefundPayment(ctx, p.RemoteID, req)
	})
	if err != nil {
		return err
	}
	if resp.Status == cybersource.StatusDeclined || resp.Status == cybersource.StatusInvalidRequest {
		return g.remoteFailure(resp)
	}

	p.RemoteState = resp.Status
	if err := p.RecordRefund(amountCents); err != nil {
		return err
	}
	return g.paymentRepo.Update(ctx, p)
}

// VoidPayment cancels an authorization that has not been captured.
func (g *Gateway) VoidPayment(ctx context.Context, p *payment.Payment) error {
	if err := p.AssertState(payment.StateAuthorization); err != nil {
		return err
	}

	req := &cybersource.VoidRequest{
		ClientReferenceInformation: &cybersource.ClientReferenceInformation{Code: p.OrderID},
	}
	resp, err := g.callPayment(ctx, "void_payment", func(ctx context.Context) (*cybersource.PaymentResponse, error) {
		return g.api.VoidPayment(ctx, p.RemoteID, req)
	})
	if err != nil {
		return err
	}
	if resp.Status == cybersource.StatusDeclined || resp.Status == cybersource.StatusInvalidRequest {
		return g.remoteFailure(resp)
	}

	p.RemoteState = resp.Status
	if err := p.TransitionTo(payment.StateVoided); err != nil {
		return err
	}
	return g.paymentRepo.Update(ctx, p)
}

// GenerateCaptureContext issues a one-time public key for the browser-side
// tokenizer, bound to the checkout page origin. The origin must be https or
// the processor rejects the tokenize call in a way the customer cannot
// recover from.
func (g *Gateway) GenerateCaptureContext(ctx context.Context, origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", errors.ErrInsecureOrigin
	}

	req := &cybersource.GenerateKeyRequest{
		EncryptionType: "RsaOaep256",
		TargetOrigin:   origin,
	}
	out, err := g.breaker.Execute(func() (any, error) {
		return g.api.GenerateKey(ctx, "JWT", req)
	})
	if err != nil {
		g.record("generate_key", "error")
		return "", g.wrapTransport(err)
	}
	g.record("generate_key", "ok")

	key := out.(*cybersource.KeyResponse)
	if g.cfg.LogAPICalls {
		g.logger.Info().Str("key_id", key.KeyID).Str("target_origin", origin).Msg("generated capture context key")
	}
	return key.KeyID, nil
}

// callPayment runs a payment API call through the circuit breaker with
// optional verbose logging. Verbose logs include billing data, hence the
// gate behind log_api_calls.
func (g *Gateway) callPayment(ctx context.Context, op string, call func(context.Context) (*cybersource.PaymentResponse, error)) (*cybersource.PaymentResponse, error) {
	out, err := g.breaker.Execute(func() (any, error) {
		return call(ctx)
	})
	if err != nil {
		g.record(op, "error")
		g.logger.Error().Str("operation", op).Err(err).Msg("payment API call failed")
		return nil, g.wrapTransport(err)
	}

	resp := out.(*cybersource.PaymentResponse)
	g.record(op, resp.Status)
	if g.cfg.LogAPICalls {
		g.logger.Info().
			Str("operation", op).
			Str("remote_id", resp.ID).
			Str("status", resp.Status).
			Interface("response", resp).
			Msg("payment API response")
	}
	return resp, nil
}

// checkAuthorized maps the create-payment status onto the error taxonomy.
// Any non-authorized outcome also moves the local payment to failed.
func (g *Gateway) checkAuthorized(ctx context.Context, p *payment.Payment, resp *cybersource.PaymentResponse) error {
	if resp.Status == cybersource.StatusAuthorized {
		return nil
	}

	p.RemoteID = resp.ID
	p.RemoteState = resp.Status
	if err := p.MarkFailed(); err != nil {
		return err
	}
	if err := g.paymentRepo.Update(ctx, p); err != nil {
		return err
	}
	return g.remoteFailure(resp)
}

// remoteFailure translates a failed processor response. The processor's
// reason and message survive in the error for the log; the user only ever
// sees the generic retry text.
func (g *Gateway) remoteFailure(resp *cybersource.PaymentResponse) error {
	reason, message := resp.Status, ""
	if resp.ErrorInformation != nil {
		reason = resp.ErrorInformation.Reason
		message = resp.ErrorInformation.Message
	}
	switch resp.Status {
	case cybersource.StatusDeclined:
		return errors.NewGatewayError(reason, message, errors.ErrDeclined)
	case cybersource.StatusInvalidRequest:
		return errors.NewDomainError("invalid_request", message, errors.ErrInvalidRequest)
	default:
		return errors.NewGatewayError(reason, message, nil)
	}
}

// wrapTransport maps transport and breaker failures. A timed-out authorize
// may still have charged the card, so these are terminal for the attempt,
// never retried.
func (g *Gateway) wrapTransport(err error) error {
	var apiErr *cybersource.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewDomainError("invalid_request", apiErr.Error(), errors.ErrInvalidRequest)
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewGatewayError("circuit_open", errors.GenericDeclineMessage, err)
	}
	return errors.NewGatewayError("transport", errors.GenericDeclineMessage, err)
}

func (g *Gateway) promoteMethod(ctx context.Context, m *payment.Method, resp *cybersource.PaymentResponse) error {
	tokens := resp.TokenInformation
	if tokens == nil || tokens.PaymentInstrument == nil || tokens.PaymentInstrument.ID == "" {
		g.logger.Warn().Str("method_id", m.ID.String()).Msg("authorization succeeded but no payment instrument was issued")
		return nil
	}

	// The processor customer record only matters for signed-in owners;
	// anonymous checkouts keep the instrument without a customer binding.
	customerID := ""
	if m.OwnerID != "" && tokens.Customer != nil {
		customerID = tokens.Customer.ID
	}
	if err := m.Promote(tokens.PaymentInstrument.ID, customerID); err != nil {
		return err
	}
	return g.methodRepo.Update(ctx, m)
}

func (g *Gateway) record(op, status string) {
	if g.metrics != nil {
		g.metrics.RecordGatewayCall(op, status)
	}
}

func amountDetails(cents int64, currency string) *cybersource.AmountDetails {
	amt := payment.Amount{ValueCents: cents, Currency: currency}
	return &cybersource.AmountDetails{
		TotalAmount: amt.FormatDecimal(),
		Currency:    currency,
	}
}

func billTo(ord *order.Order) *cybersource.BillTo {
	addr := ord.BillingAddress
	bt := &cybersource.BillTo{
		FirstName:          addr.GivenName,
		LastName:           addr.FamilyName,
		Address1:           addr.AddressLine1,
		Address2:           addr.AddressLine2,
		Locality:           addr.Locality,
		AdministrativeArea: addr.AdministrativeArea,
		PostalCode:         addr.PostalCode,
		Country:            addr.CountryCode,
		Email:              ord.Email,
	}
	if addr.Organization != "" {
		bt.Company = &cybersource.Company{Name: addr.Organization}
	}
	return bt
}

var _ APIClient = (*cybersource.Client)(nil)
