package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
)

// CardBrand represents a supported credit card brand
type CardBrand string

const (
	BrandVisa       CardBrand = "visa"
	BrandMastercard CardBrand = "mastercard"
	BrandAmex       CardBrand = "amex"
	BrandDiscover   CardBrand = "discover"
	BrandDinersClub CardBrand = "dinersclub"
	BrandJCB        CardBrand = "jcb"
	BrandMaestro    CardBrand = "maestro"
)

// processorBrandNames maps the card_type_name values the processor reports
// on the return callback to local brands. Anything else is a hard decline.
var processorBrandNames = map[string]CardBrand{
	"Visa":       BrandVisa,
	"Mastercard": BrandMastercard,
	"Amex":       BrandAmex,
	"Discover":   BrandDiscover,
}

// MapProcessorBrand resolves a processor-reported card type name.
func MapProcessorBrand(name string) (CardBrand, error) {
	brand, ok := processorBrandNames[name]
	if !ok {
		return "", errors.NewDomainError(
			"unsupported_card_brand",
			fmt.Sprintf("unsupported credit card type %q", name),
			errors.ErrUnsupportedCardBrand,
		)
	}
	return brand, nil
}

// brandPrefixes holds IIN prefixes per brand, checked longest-first so that
// e.g. Discover's 65 wins over Maestro's 6.
var brandPrefixes = []struct {
	brand    CardBrand
	prefixes []string
}{
	{BrandAmex, []string{"34", "37"}},
	{BrandDinersClub, []string{"300", "301", "302", "303", "304", "305", "36", "38"}},
	{BrandJCB, []string{"3528", "3529", "353", "354", "355", "356", "357", "358"}},
	{BrandDiscover, []string{"6011", "622", "644", "645", "646", "647", "648", "649", "65"}},
	{BrandMastercard, []string{"51", "52", "53", "54", "55", "222", "223", "224", "225", "226", "227", "228", "229", "23", "24", "25", "26", "270", "271", "2720"}},
	{BrandMaestro, []string{"50", "56", "57", "58", "6"}},
	{BrandVisa, []string{"4"}},
}

// DetectBrand infers a card brand from a (possibly masked) card number.
// Masked digits are fine because the IIN prefix is always in the clear.
func DetectBrand(number string) (CardBrand, bool) {
	for _, entry := range brandPrefixes {
		for _, prefix := range entry.prefixes {
			if strings.HasPrefix(number, prefix) {
				return entry.brand, true
			}
		}
	}
	return "", false
}

// CardExpiration returns the instant a card with the given expiration
// month/year stops being usable: the start of the following month, UTC.
func CardExpiration(month, year int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
