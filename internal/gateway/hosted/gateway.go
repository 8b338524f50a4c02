// Package hosted implements the Secure Acceptance Hosted Checkout flow:
// building the signed redirect form, validating the return callback, and
// applying the processor's decision to the local payment record.
package hosted

import (
	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/rs/zerolog"
)

const (
	liveTransactionServer = "https://secureacceptance.cybersource.com/pay"
	testTransactionServer = "https://testsecureacceptance.cybersource.com/pay"
)

// Gateway drives the hosted-checkout redirect flow.
type Gateway struct {
	cfg         config.SAHCConfig
	mode        string
	siteName    string
	paymentRepo payment.Repository
	orderLog    order.Log
	logger      zerolog.Logger
}

// NewGateway creates a hosted-checkout gateway.
func NewGateway(gw config.GatewayConfig, paymentRepo payment.Repository, orderLog order.Log, logger zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:         gw.SAHC,
		mode:        gw.Mode,
		siteName:    gw.SiteName,
		paymentRepo: paymentRepo,
		orderLog:    orderLog,
		logger:      logger.With().Str("gateway", "sahc").Logger(),
	}
}

// RedirectURL returns the Secure Acceptance endpoint for the configured mode.
func (g *Gateway) RedirectURL() string {
	if g.mode == config.ModeTest {
		return testTransactionServer
	}
	return liveTransactionServer
}
