package cybersource

import "fmt"

// Remote payment statuses this integration branches on.
const (
	StatusAuthorized     = "AUTHORIZED"
	StatusDeclined       = "DECLINED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

// ClientReferenceInformation correlates a processor transaction with a
// merchant-side reference.
type ClientReferenceInformation struct {
	Code string `json:"code,omitempty"`
}

// ProcessingInformation controls capture behavior and token creation.
type ProcessingInformation struct {
	ActionList       []string `json:"actionList,omitempty"`
	ActionTokenTypes []string `json:"actionTokenTypes,omitempty"`
	Capture          bool     `json:"capture"`
}

// PaymentInstrument references a long-term tokenized card.
type PaymentInstrument struct {
	ID string `json:"id,omitempty"`
}

// PaymentInformation carries the stored-instrument reference.
type PaymentInformation struct {
	PaymentInstrument *PaymentInstrument `json:"paymentInstrument,omitempty"`
}

// TokenInformation carries the client-side transient token.
type TokenInformation struct {
	TransientTokenJwt string `json:"transientTokenJwt,omitempty"`
}

// AmountDetails is the wire representation of a charge amount.
type AmountDetails struct {
	TotalAmount string `json:"totalAmount,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// Company is the billing company block.
type Company struct {
	Name string `json:"name,omitempty"`
}

// BillTo is the billing address block.
type BillTo struct {
	FirstName          string   `json:"firstName,omitempty"`
	LastName           string   `json:"lastName,omitempty"`
	Address1           string   `json:"address1,omitempty"`
	Address2           string   `json:"address2,omitempty"`
	Locality           string   `json:"locality,omitempty"`
	AdministrativeArea string   `json:"administrativeArea,omitempty"`
	PostalCode         string   `json:"postalCode,omitempty"`
	Country            string   `json:"country,omitempty"`
	Email              string   `json:"email,omitempty"`
	Company            *Company `json:"company,omitempty"`
}

// OrderInformation groups amount and billing data.
type OrderInformation struct {
	AmountDetails *AmountDetails `json:"amountDetails,omitempty"`
	BillTo        *BillTo        `json:"billTo,omitempty"`
}

// CreatePaymentRequest is the authorize (and optionally capture) request.
type CreatePaymentRequest struct {
	ClientReferenceInformation *ClientReferenceInformation `json:"clientReferenceInformation,omitempty"`
	ProcessingInformation      *ProcessingInformation      `json:"processingInformation,omitempty"`
	PaymentInformation         *PaymentInformation         `json:"paymentInformation,omitempty"`
	TokenInformation           *TokenInformation           `json:"tokenInformation,omitempty"`
	OrderInformation           *OrderInformation           `json:"orderInformation,omitempty"`
}

// CaptureRequest captures a previously authorized payment.
type CaptureRequest struct {
	OrderInformation *OrderInformation `json:"orderInformation,omitempty"`
}

// RefundRequest refunds a captured payment.
type RefundRequest struct {
	OrderInformation *OrderInformation `json:"orderInformation,omitempty"`
}

// VoidRequest cancels an un-captured authorization.
type VoidRequest struct {
	ClientReferenceInformation *ClientReferenceInformation `json:"clientReferenceInformation,omitempty"`
}

// GenerateKeyRequest requests a short-lived public key for client-side
// field tokenization, bound to the given origin.
type GenerateKeyRequest struct {
	EncryptionType string `json:"encryptionType,omitempty"`
	TargetOrigin   string `json:"targetOrigin,omitempty"`
}

// ErrorInformation is the processor's structured failure detail.
type ErrorInformation struct {
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// IDRef is a bare id reference in a response.
type IDRef struct {
	ID string `json:"id,omitempty"`
}

// ResponseTokenInformation holds the long-term tokens issued alongside a
// first-use authorization.
type ResponseTokenInformation struct {
	Customer          *IDRef `json:"customer,omitempty"`
	PaymentInstrument *IDRef `json:"paymentInstrument,omitempty"`
}

// PaymentResponse is the common shape of payment, capture, refund and void
// responses.
type PaymentResponse struct {
	ID               string                    `json:"id,omitempty"`
	Status           string                    `json:"status,omitempty"`
	ErrorInformation *ErrorInformation         `json:"errorInformation,omitempty"`
	TokenInformation *ResponseTokenInformation `json:"tokenInformation,omitempty"`
}

// KeyResponse is the generate-public-key response.
type KeyResponse struct {
	KeyID string `json:"keyId,omitempty"`
}

// APIError is a non-2xx response from the payment API.
type APIError struct {
	HTTPStatus int
	Reason     string
	Message    string
	RawBody    []byte
}

func (e *APIError) Error() string {
	if e.Reason != "" || e.Message != "" {
		return fmt.Sprintf("cybersource: API error (HTTP %d, reason: %s): %s", e.HTTPStatus, e.Reason, e.Message)
	}
	return fmt.Sprintf("cybersource: API error (HTTP %d)", e.HTTPStatus)
}
