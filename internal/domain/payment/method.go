package payment

import (
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/google/uuid"
)

// transientMethodTTL leaves a buffer under the processor's 15-minute
// transient token lifetime for timing out and sending the customer back
// through checkout.
const transientMethodTTL = 14 * time.Minute

// Method is a stored payment method. Freshly tokenized cards hold only a
// short-lived transient token and are not reusable; once the processor
// confirms token creation the method is promoted to a long-term payment
// instrument reference.
type Method struct {
	ID                 uuid.UUID
	OwnerID            string // empty for anonymous customers
	MaskedNumber       string
	Brand              CardBrand
	ExpMonth           int
	ExpYear            int
	TransientToken     string
	RemoteInstrumentID string
	RemoteCustomerID   string
	Reusable           bool
	ExpiresAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewMethodFromTransientToken creates a non-reusable payment method around a
// client-side transient token. The masked number and brand come from the
// token's decoded payload and are for display only.
func NewMethodFromTransientToken(ownerID, token, maskedNumber string, brand CardBrand, expMonth, expYear int) (*Method, error) {
	if token == "" {
		return nil, errors.NewValidationError("token", "missing transient token")
	}
	if expMonth < 1 || expMonth > 12 {
		return nil, errors.NewValidationError("expiration_month", "must be between 1 and 12")
	}

	now := time.Now()
	return &Method{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		MaskedNumber:   maskedNumber,
		Brand:          brand,
		ExpMonth:       expMonth,
		ExpYear:        expYear,
		TransientToken: token,
		Reusable:       false,
		ExpiresAt:      now.Add(transientMethodTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Promote upgrades the method to a reusable long-term payment instrument.
// The transient token is cleared so subsequent transactions reference the
// instrument directly, and the expiry becomes the card's real expiration.
func (m *Method) Promote(instrumentID, customerID string) error {
	if instrumentID == "" {
		return errors.NewValidationError("instrument_id", "cannot be empty")
	}
	m.RemoteInstrumentID = instrumentID
	m.RemoteCustomerID = customerID
	m.TransientToken = ""
	m.Reusable = true
	m.ExpiresAt = CardExpiration(m.ExpMonth, m.ExpYear)
	m.UpdatedAt = time.Now()
	return nil
}

// HasTransientToken reports whether the method still holds an unexchanged
// transient token (first-use path).
func (m *Method) HasTransientToken() bool {
	return m.TransientToken != ""
}

// Expired reports whether the method can no longer be charged.
func (m *Method) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}
