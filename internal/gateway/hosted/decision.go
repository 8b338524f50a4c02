package hosted

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// applyDecision translates the processor's decision code into the local
// payment state and side effects. It runs only after signature validation.
func (g *Gateway) applyDecision(ctx context.Context, orderID string, p *payment.Payment, raw url.Values) error {
	decision := raw.Get("decision")
	message := raw.Get("message")
	transactionUUID := raw.Get("req_transaction_uuid")

	p.RemoteState = decision

	switch strings.ToUpper(decision) {
	case "ACCEPT":
		return g.acceptPayment(ctx, p, raw)

	case "CANCEL", "DECLINE", "REVIEW", "ERROR":
		// The payment never reached a committed state; delete it rather than
		// keep a dangling record.
		if err := g.paymentRepo.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}

		codeMessage := message
		if invalid := raw.Get("invalid_fields"); invalid != "" {
			codeMessage += " - " + invalid
		}
		comment := fmt.Sprintf("Transaction %s has failed with the following code %s:%s",
			transactionUUID, decision, codeMessage)
		if err := g.orderLog.AddComment(ctx, orderID, comment); err != nil {
			return fmt.Errorf("add order comment: %w", err)
		}

		if g.cfg.LogAPICalls {
			g.logger.Warn().
				Str("order_id", orderID).
				Str("transaction_uuid", transactionUUID).
				Str("decision", decision).
				Str("message", codeMessage).
				Msg("transaction failed")
		}
		return errors.NewGatewayError(decision, errors.GenericDeclineMessage, nil)

	default:
		// Unknown decisions are recorded as remote state and left alone.
		return g.paymentRepo.Update(ctx, p)
	}
}

func (g *Gateway) acceptPayment(ctx context.Context, p *payment.Payment, raw url.Values) error {
	p.AvsCode = raw.Get("auth_avs_code")
	p.AvsLabel = AvsLabel(p.AvsCode)

	// An unsupported brand is a hard decline even on ACCEPT.
	if _, err := payment.MapProcessorBrand(raw.Get("card_type_name")); err != nil {
		return err
	}

	// The issued payment token becomes the remote id for follow-up
	// transactions.
	p.RemoteID = raw.Get("payment_token")

	amount, err := payment.ParseAmount(raw.Get("auth_amount"), raw.Get("req_currency"))
	if err != nil {
		return fmt.Errorf("parse authorized amount: %w", err)
	}
	p.Amount = amount

	if raw.Get("req_transaction_type") == config.SAHCTransactionAuthCreateToken {
		if err := p.TransitionTo(payment.StatePending); err != nil {
			return err
		}
		if g.cfg.LogAPICalls {
			g.logger.Info().
				Str("payment_id", p.ID.String()).
				Msg("payment authorized and payment token created")
		}
	}

	return g.paymentRepo.Update(ctx, p)
}
