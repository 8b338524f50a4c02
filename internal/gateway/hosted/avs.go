package hosted

// avsLabels maps processor AVS result codes to human-readable labels.
var avsLabels = map[string]string{
	"A": "Street address matches, but five-digit and nine-digit postal codes do not match.",
	"B": "Street address matches, but postal code is not verified.",
	"C": "Street address and postal code do not match.",
	"D": "Street address and postal code match.",
	"M": "Street address and postal code match.",
	"N": "Street address and postal code match.",
	"E": "AVS data is invalid or AVS is not allowed for this card type.",
	"F": "Card member's name does not match, but billing postal code matches.",
	"H": "Card member's name does not match, but street address and postal code match.",
	"I": "Address not verified.",
	"J": "Card member's name, billing address, and postal code match.",
	"Q": "Card member's name, billing address, and postal code match.",
	"K": "Card member's name matches, but billing address and billing postal code do not match.",
	"L": "Card member's name and billing postal code match, but billing address does not match.",
	"O": "Card member's name and billing address match, but billing postal code does not match.",
	"P": "Postal code matches, but street address not verified.",
	"R": "System unavailable.",
	"S": "U.S.-issuing bank does not support AVS.",
	"T": "Card member's name does not match, but street address matches.",
	"U": "Your bank does not support non-U.S. AVS or is otherwise not functioning properly.",
	"V": "Card member's name, billing address, and billing postal code match.",
	"W": "Street address does not match, but nine-digit postal code matches.",
	"X": "Street address and nine-digit postal code match.",
	"Y": "Street address and five-digit postal code match.",
	"Z": "Street address does not match, but five-digit postal code matches.",
	"1": "AVS is not supported for this processor or card type.",
	"2": "The processor returned an unrecognized value for the AVS response.",
	"3": "Address is confirmed. Returned only for PayPal Express Checkout.",
	"4": "Address is not confirmed. Returned only for PayPal Express Checkout.",
}

// AvsLabel returns the label for an AVS result code, falling back to a
// generic label for codes the table does not cover.
func AvsLabel(code string) string {
	if label, ok := avsLabels[code]; ok {
		return label
	}
	return "Unknown AVS response code."
}
