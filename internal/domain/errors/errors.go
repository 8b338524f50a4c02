package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors, surfaced before any network call.
	ErrSecretNotConfigured   = errors.New("secret key is not configured")
	ErrMerchantNotConfigured = errors.New("merchant ID is not configured")
	ErrProfileNotConfigured  = errors.New("profile ID is not configured")

	// Integrity errors raised while validating the return callback.
	ErrReferenceMismatch  = errors.New("reference number does not match order")
	ErrUnknownTransaction = errors.New("transaction UUID does not match a payment for this order")
	ErrNoSignature        = errors.New("reply POST had no signature")
	ErrNoSignedFieldNames = errors.New("reply POST had no signed field names")
	ErrSignatureMismatch  = errors.New("signature mismatch")

	// Processor outcomes.
	ErrDeclined             = errors.New("payment declined by processor")
	ErrInvalidRequest       = errors.New("invalid payment request")
	ErrUnsupportedCardBrand = errors.New("unsupported credit card type")

	// Payment lifecycle errors.
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentMethodNotFound  = errors.New("payment method not found")
	ErrStateViolation         = errors.New("payment is not in an allowed state for this operation")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrRefundExceedsBalance   = errors.New("refund amount exceeds the refundable balance")
	ErrInsecureOrigin         = errors.New("capture context origin must use https")

	// Idempotency errors.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// GenericDeclineMessage is the only text the checkout flow may show the
// customer when the hosted-checkout flow fails. The specific reason goes to
// the log, never to the user.
const GenericDeclineMessage = "Payment failed at the payment server. Please review your information and try again. If issues persist please contact your issuing bank."

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GatewayError is a processor-side failure carrying the processor's reason
// and message. Its Error() text is safe to log; callers present
// GenericDeclineMessage to the user instead.
type GatewayError struct {
	Reason  string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gateway failure (reason: %s, message: %s)", e.Reason, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return "gateway failure"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(reason, message string, err error) *GatewayError {
	return &GatewayError{Reason: reason, Message: message, Err: err}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
