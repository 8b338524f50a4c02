package payment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a processor-formatted decimal string and currency
// code into an Amount.
func ParseAmount(number, currency string) (Amount, error) {
	s := strings.TrimSpace(number)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount string")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{ValueCents: int64(math.Round(f * 100)), Currency: currency}, nil
}
