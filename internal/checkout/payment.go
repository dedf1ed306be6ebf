package checkout

import (
	"regexp"
	"strings"

	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2}|\d{4})$`)
)

// PaymentDetails is the raw payment input. The CVV is checked and discarded,
// never persisted.
type PaymentDetails struct {
	Name       string
	CardNumber string
	CVV        string
	Expiry     string
}

// Validate checks the simulated payment fields.
func (p PaymentDetails) Validate() error {
	details := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		details["name"] = "is required"
	}
	if !cardNumberRe.MatchString(p.CardNumber) {
		details["card_number"] = "must be 16 digits"
	}
	if !cvvRe.MatchString(p.CVV) {
		details["cvv"] = "must be 3 or 4 digits"
	}
	if !expiryRe.MatchString(p.Expiry) {
		details["expiry"] = "must be MM/YY or MM/YYYY"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment details").WithDetails(details)
	}
	return nil
}

// MaskCardNumber keeps the first and last four digits and hides the middle.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) < 8 {
		return strings.Repeat("*", len(cardNumber))
	}
	return cardNumber[:4] + strings.Repeat("*", 8) + cardNumber[len(cardNumber)-4:]
}
