package testutil

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// NewTestOrder returns an order with a full billing address and two line
// items totalling 49.99 USD.
func NewTestOrder() *order.Order {
	return &order.Order{
		ID:      "1042",
		Email:   "customer@example.com",
		OwnerID: "user-7",
		BillingAddress: order.Address{
			GivenName:          "Ada",
			FamilyName:         "Lovelace",
			Organization:       "Analytical Engines Ltd",
			AddressLine1:       "12 St James Square",
			Locality:           "London",
			AdministrativeArea: "LND",
			PostalCode:         "SW1Y 4JH",
			CountryCode:        "GB",
		},
		Items: []order.LineItem{
			{SKU: "SKU-1", Title: "Widget", UnitPriceCents: 1999, Quantity: 2},
			{SKU: "SKU-2", Title: "Gadget", UnitPriceCents: 1001, Quantity: 1},
		},
		BalanceCents: 4999,
		Currency:     "USD",
	}
}

// NewTestPayment returns a payment for the test order in the given state.
func NewTestPayment(state payment.State) *payment.Payment {
	p, err := payment.NewPayment("1042", payment.Amount{ValueCents: 4999, Currency: "USD"})
	if err != nil {
		panic(err)
	}
	p.State = state
	if state != payment.StateNew {
		p.RemoteID = "remote-1"
	}
	return p
}

// NewTestMethod returns a payment method. With transient set it holds an
// unexchanged token; otherwise it is a promoted, reusable instrument.
func NewTestMethod(transient bool) *payment.Method {
	m, err := payment.NewMethodFromTransientToken(
		"user-7", TransientToken("411111XXXXXXXX1111", "12", "2031"),
		"411111XXXXXXXX1111", payment.BrandVisa, 12, 2031)
	if err != nil {
		panic(err)
	}
	if !transient {
		if err := m.Promote("instrument-1", "customer-1"); err != nil {
			panic(err)
		}
	}
	return m
}

// TransientToken builds an unsigned three-segment token with the card
// payload the browser tokenizer embeds.
func TransientToken(number, expMonth, expYear string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]any{
		"jti": "token-1",
		"data": map[string]string{
			"number":          number,
			"expirationMonth": expMonth,
			"expirationYear":  expYear,
		},
	})
	if err != nil {
		panic(err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

// FailingOrderLog returns an order log whose AddComment always fails.
func FailingOrderLog() *MockOrderLog {
	log := NewMockOrderLog()
	log.AddCommentFunc = func(ctx context.Context, orderID, comment string) error {
		return errors.NewDomainError("order_log", "order log unavailable", nil)
	}
	return log
}
