// Package controller exposes the gateway over HTTP with chi.
package controller

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/repository/postgres"
)

var validate = validator.New()

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorMappings resolves domain errors to HTTP responses, checked in order.
var errorMappings = []struct {
	target error
	status int
	code   string
}{
	{errors.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{errors.ErrPaymentMethodNotFound, http.StatusNotFound, "payment_method_not_found"},
	{postgres.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{errors.ErrStateViolation, http.StatusConflict, "state_violation"},
	{errors.ErrInvalidStateTransition, http.StatusConflict, "invalid_transition"},
	{errors.ErrRefundExceedsBalance, http.StatusUnprocessableEntity, "refund_exceeds_balance"},
	{errors.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{errors.ErrInvalidRequest, http.StatusUnprocessableEntity, "invalid_request"},
	{errors.ErrInsecureOrigin, http.StatusUnprocessableEntity, "insecure_origin"},
	{errors.ErrUnsupportedCardBrand, http.StatusUnprocessableEntity, "unsupported_card_brand"},
	{errors.ErrDuplicateIdempotencyKey, http.StatusConflict, "duplicate_idempotency_key"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an error to an HTTP response. Processor failures are
// always flattened to the generic retry message; the specific reason has
// already been logged where it happened.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var valErr *errors.ValidationError
	if stderrors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: valErr.Error(), Code: "validation_failed"})
		return
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fieldErrs.Error(), Code: "validation_failed"})
		return
	}

	for _, m := range errorMappings {
		if stderrors.Is(err, m.target) {
			writeJSON(w, m.status, errorResponse{Error: m.target.Error(), Code: m.code})
			return
		}
	}

	var gwErr *errors.GatewayError
	if stderrors.As(err, &gwErr) {
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error: errors.GenericDeclineMessage,
			Code:  "payment_failed",
		})
		return
	}

	logger.Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
}

// signatureFailureReason classifies return-callback validation failures for
// the signature-failure metric; empty means the error was something else.
func signatureFailureReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrNoSignature):
		return "no_signature"
	case stderrors.Is(err, errors.ErrNoSignedFieldNames):
		return "no_signed_field_names"
	case stderrors.Is(err, errors.ErrSignatureMismatch):
		return "mismatch"
	case stderrors.Is(err, errors.ErrSecretNotConfigured):
		return "secret_not_configured"
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError("body", "malformed JSON request body")
	}
	return validate.Struct(v)
}
