package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
)

func newPayment(t *testing.T, state State) *Payment {
	t.Helper()
	p, err := NewPayment("1042", Amount{ValueCents: 4999, Currency: "USD"})
	require.NoError(t, err)
	p.State = state
	return p
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment("", Amount{ValueCents: 100, Currency: "USD"})
	assert.Error(t, err)

	_, err = NewPayment("1042", Amount{ValueCents: 0, Currency: "USD"})
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	_, err = NewPayment("1042", Amount{ValueCents: 100, Currency: "US"})
	assert.Error(t, err)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateNew, StatePending, true},
		{StateNew, StateAuthorization, true},
		{StateNew, StateCompleted, true},
		{StateNew, StateRefunded, false},
		{StatePending, StateCompleted, false},
		{StateAuthorization, StateCompleted, true},
		{StateAuthorization, StateVoided, true},
		{StateAuthorization, StatePending, false},
		{StateCompleted, StatePartiallyRefunded, true},
		{StatePartiallyRefunded, StatePartiallyRefunded, true},
		{StatePartiallyRefunded, StateRefunded, true},
		{StateRefunded, StateCompleted, false},
		{StateVoided, StateCompleted, false},
		{StateFailed, StateNew, false},
	}
	for _, tt := range tests {
		p := newPayment(t, tt.from)
		err := p.TransitionTo(tt.to)
		if tt.allowed {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, p.State)
		} else {
			assert.ErrorIs(t, err, errors.ErrInvalidStateTransition, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, p.State)
		}
	}
}

func TestAssertState(t *testing.T) {
	p := newPayment(t, StateAuthorization)
	assert.NoError(t, p.AssertState(StateAuthorization))
	assert.NoError(t, p.AssertState(StateCompleted, StateAuthorization))
	assert.ErrorIs(t, p.AssertState(StateNew), errors.ErrStateViolation)
}

func TestRecordRefund(t *testing.T) {
	p := newPayment(t, StateCompleted)

	require.NoError(t, p.RecordRefund(2000))
	assert.Equal(t, StatePartiallyRefunded, p.State)
	assert.Equal(t, int64(2999), p.RefundableCents())

	assert.ErrorIs(t, p.RecordRefund(3000), errors.ErrRefundExceedsBalance)
	assert.ErrorIs(t, p.RecordRefund(0), errors.ErrRefundExceedsBalance)

	require.NoError(t, p.RecordRefund(2999))
	assert.Equal(t, StateRefunded, p.State)
	assert.Zero(t, p.RefundableCents())
}

func TestAmountFormatDecimal(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{4999, "49.99"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-1250, "-12.50"},
		{123456789, "1234567.89"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Amount{ValueCents: tt.cents}.FormatDecimal())
	}
}

func TestParseAmount(t *testing.T) {
	amt, err := ParseAmount("49.99", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(4999), amt.ValueCents)
	assert.Equal(t, "USD", amt.Currency)

	amt, err = ParseAmount("10", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amt.ValueCents)

	_, err = ParseAmount("", "USD")
	assert.Error(t, err)
	_, err = ParseAmount("abc", "USD")
	assert.Error(t, err)
}

func TestMapProcessorBrand(t *testing.T) {
	brand, err := MapProcessorBrand("Visa")
	require.NoError(t, err)
	assert.Equal(t, BrandVisa, brand)

	_, err = MapProcessorBrand("Carte Blanche")
	assert.ErrorIs(t, err, errors.ErrUnsupportedCardBrand)
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		number string
		brand  CardBrand
	}{
		{"4111111111111111", BrandVisa},
		{"5500XXXXXXXX4444", BrandMastercard},
		{"2221000000000000", BrandMastercard},
		{"371449635398431", BrandAmex},
		{"6011XXXXXXXX0004", BrandDiscover},
		{"3530111333300000", BrandJCB},
	}
	for _, tt := range tests {
		brand, ok := DetectBrand(tt.number)
		require.True(t, ok, tt.number)
		assert.Equal(t, tt.brand, brand, tt.number)
	}

	_, ok := DetectBrand("9999")
	assert.False(t, ok)
}

func TestMethodPromotion(t *testing.T) {
	m, err := NewMethodFromTransientToken("user-7", "tok.en.", "411111XXXXXXXX1111", BrandVisa, 12, 2031)
	require.NoError(t, err)
	assert.True(t, m.HasTransientToken())
	assert.False(t, m.Reusable)
	assert.False(t, m.Expired(time.Now()))
	assert.True(t, m.Expired(time.Now().Add(15*time.Minute)))

	require.NoError(t, m.Promote("instrument-1", "customer-1"))
	assert.False(t, m.HasTransientToken())
	assert.True(t, m.Reusable)
	assert.Equal(t, CardExpiration(12, 2031), m.ExpiresAt)

	assert.Error(t, m.Promote("", ""))
}

func TestNewMethodValidation(t *testing.T) {
	_, err := NewMethodFromTransientToken("", "", "4111", BrandVisa, 12, 2031)
	assert.Error(t, err)

	_, err = NewMethodFromTransientToken("", "tok", "4111", BrandVisa, 13, 2031)
	assert.Error(t, err)
}

func TestCardExpiration(t *testing.T) {
	exp := CardExpiration(12, 2031)
	assert.Equal(t, time.Date(2032, time.January, 1, 0, 0, 0, 0, time.UTC), exp)
}
