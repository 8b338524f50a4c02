package controller

import (
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/hosted"
)

type redirectRequest struct {
	AmountCents   int64  `json:"amount_cents" validate:"omitempty,gt=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	ReturnURL     string `json:"return_url" validate:"omitempty,url"`
	CancelURL     string `json:"cancel_url" validate:"omitempty,url"`
	Authenticated bool   `json:"authenticated"`
}

type formField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type redirectResponse struct {
	URL       string      `json:"url"`
	PaymentID string      `json:"payment_id"`
	Fields    []formField `json:"fields"`
}

func newRedirectResponse(form *hosted.RedirectForm) redirectResponse {
	fields := make([]formField, 0, form.Fields.Len())
	for _, name := range form.Fields.Names() {
		value, _ := form.Fields.Get(name)
		fields = append(fields, formField{Name: name, Value: value})
	}
	return redirectResponse{URL: form.URL, PaymentID: form.PaymentID, Fields: fields}
}

type paymentResponse struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	State           string    `json:"state"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	RefundedCents   int64     `json:"refunded_cents"`
	RemoteState     string    `json:"remote_state,omitempty"`
	AvsCode         string    `json:"avs_code,omitempty"`
	AvsLabel        string    `json:"avs_label,omitempty"`
	PaymentMethodID string    `json:"payment_method_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newPaymentResponse(p *payment.Payment) paymentResponse {
	resp := paymentResponse{
		ID:            p.ID.String(),
		OrderID:       p.OrderID,
		State:         string(p.State),
		AmountCents:   p.Amount.ValueCents,
		Currency:      p.Amount.Currency,
		RefundedCents: p.RefundedCents,
		RemoteState:   p.RemoteState,
		AvsCode:       p.AvsCode,
		AvsLabel:      p.AvsLabel,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.PaymentMethodID != nil {
		resp.PaymentMethodID = p.PaymentMethodID.String()
	}
	return resp
}

type returnResponse struct {
	Status  string           `json:"status"`
	Payment *paymentResponse `json:"payment,omitempty"`
}

type createPaymentRequest struct {
	OrderID         string `json:"order_id" validate:"required"`
	AmountCents     int64  `json:"amount_cents" validate:"omitempty,gt=0"`
	Currency        string `json:"currency" validate:"omitempty,len=3"`
	PaymentMethodID string `json:"payment_method_id" validate:"omitempty,uuid"`
	TransientToken  string `json:"transient_token"`
	Capture         *bool  `json:"capture"`
}

type amountRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"omitempty,gt=0"`
}

type methodResponse struct {
	ID           string `json:"id"`
	MaskedNumber string `json:"masked_number"`
	Brand        string `json:"brand"`
	ExpMonth     int    `json:"exp_month"`
	ExpYear      int    `json:"exp_year"`
	Reusable     bool   `json:"reusable"`
}

func newMethodResponse(m *payment.Method) methodResponse {
	return methodResponse{
		ID:           m.ID.String(),
		MaskedNumber: m.MaskedNumber,
		Brand:        string(m.Brand),
		ExpMonth:     m.ExpMonth,
		ExpYear:      m.ExpYear,
		Reusable:     m.Reusable,
	}
}

type createPaymentResponse struct {
	Payment paymentResponse `json:"payment"`
	Method  methodResponse  `json:"method"`
}

type captureContextRequest struct {
	SessionID    string `json:"session_id" validate:"required"`
	TargetOrigin string `json:"target_origin" validate:"required,url"`
	Regenerate   bool   `json:"regenerate"`
}

type captureContextResponse struct {
	KeyID string `json:"key_id"`
}
