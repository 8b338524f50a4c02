package hosted

import (
	"context"
	"net/url"
	"strings"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/signature"
	"github.com/google/uuid"
)

// OnReturn validates the inbound return callback for an order.
//
// Reference-number and transaction-uuid mismatches are logged and swallowed:
// the callback is simply ignored, matching the long-standing behavior the
// checkout flow depends on. A failed signature check, by contrast, returns a
// GatewayError so the caller can show the generic retry message. The
// specific failure reason only ever reaches the log.
//
// On success the validated payment is handed to the decision state machine
// and the updated payment is returned.
func (g *Gateway) OnReturn(ctx context.Context, orderID string, raw url.Values) (*payment.Payment, error) {
	if g.cfg.LogAPICalls {
		g.logger.Info().Str("order_id", orderID).Interface("data", raw).Msg("data received from processor")
	}

	ref := raw.Get("req_reference_number")
	if ref == "" || ref != orderID {
		g.logger.Warn().Str("order_id", orderID).Msg("invalid reference number")
		return nil, nil
	}

	rawUUID := raw.Get("req_transaction_uuid")
	txUUID, err := uuid.Parse(rawUUID)
	if err != nil {
		g.logger.Warn().Str("order_id", orderID).Msg("invalid transaction UUID")
		return nil, nil
	}
	p, err := g.paymentRepo.GetByOrderAndID(ctx, orderID, txUUID)
	if err != nil || p == nil {
		g.logger.Warn().Str("order_id", orderID).Str("transaction_uuid", rawUUID).Msg("invalid transaction UUID")
		return nil, nil
	}

	if reason := g.validateSignature(raw); reason != nil {
		g.logger.Error().
			Str("order_id", orderID).
			Str("remote_id", raw.Get("transaction_id")).
			Str("reason", reason.Error()).
			Msg("return callback failed signature validation")
		return nil, errors.NewGatewayError("", errors.GenericDeclineMessage, reason)
	}

	if err := g.applyDecision(ctx, orderID, p, raw); err != nil {
		return nil, err
	}
	return p, nil
}

// validateSignature recomputes the signature over the fields named by
// signed_field_names, looked up from the raw untrusted POST values, and
// compares it to the received signature. A nil return means valid.
func (g *Gateway) validateSignature(raw url.Values) error {
	if g.cfg.SecretKey == "" {
		return errors.ErrSecretNotConfigured
	}
	if !raw.Has("signed_field_names") {
		return errors.ErrNoSignedFieldNames
	}
	if !raw.Has("signature") {
		return errors.ErrNoSignature
	}

	fields := signature.NewFieldSet()
	for _, name := range strings.Split(raw.Get("signed_field_names"), ",") {
		fields.Set(name, raw.Get(name))
	}
	ok, err := signature.Verify(fields, g.cfg.SecretKey, raw.Get("signature"))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrSignatureMismatch
	}
	return nil
}
