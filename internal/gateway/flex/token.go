package flex

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// CardDetails is the display-only card summary carried inside a transient
// token.
type CardDetails struct {
	MaskedNumber string
	Brand        payment.CardBrand
	ExpMonth     int
	ExpYear      int
}

type transientTokenClaims struct {
	jwt.RegisteredClaims
	Data struct {
		Number          string `json:"number"`
		ExpirationMonth string `json:"expirationMonth"`
		ExpirationYear  string `json:"expirationYear"`
	} `json:"data"`
}

// ParseTransientToken decodes the card summary out of a client-side
// transient token. The token is NOT verified here; its signature is only
// checkable by the processor, which re-validates it on every authorize call.
// Nothing decoded from it is trusted for anything beyond display.
func ParseTransientToken(token string) (*CardDetails, error) {
	var claims transientTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode transient token: %w", err)
	}

	month, err := strconv.Atoi(claims.Data.ExpirationMonth)
	if err != nil {
		return nil, fmt.Errorf("transient token expiration month: %w", err)
	}
	year, err := strconv.Atoi(claims.Data.ExpirationYear)
	if err != nil {
		return nil, fmt.Errorf("transient token expiration year: %w", err)
	}

	details := &CardDetails{
		MaskedNumber: claims.Data.Number,
		ExpMonth:     month,
		ExpYear:      year,
	}
	// The IIN prefix is in the clear even on masked numbers. An unknown
	// prefix only affects the display brand, not the charge.
	if brand, ok := payment.DetectBrand(details.MaskedNumber); ok {
		details.Brand = brand
	}
	return details, nil
}
