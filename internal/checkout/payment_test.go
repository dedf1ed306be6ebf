package checkout

import (
	"testing"

	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
)

func validPayment() PaymentDetails {
	return PaymentDetails{
		Name:       "Jordan Smith",
		CardNumber: "4111111111111111",
		CVV:        "123",
		Expiry:     "08/27",
	}
}

func TestPaymentDetailsValidate(t *testing.T) {
	if err := validPayment().Validate(); err != nil {
		t.Fatalf("expected valid payment, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*PaymentDetails)
	}{
		{"empty name", func(p *PaymentDetails) { p.Name = "  " }},
		{"short card", func(p *PaymentDetails) { p.CardNumber = "4111" }},
		{"card with letters", func(p *PaymentDetails) { p.CardNumber = "4111abcd11111111" }},
		{"short cvv", func(p *PaymentDetails) { p.CVV = "12" }},
		{"long cvv", func(p *PaymentDetails) { p.CVV = "12345" }},
		{"bad expiry month", func(p *PaymentDetails) { p.Expiry = "13/27" }},
		{"bad expiry format", func(p *PaymentDetails) { p.Expiry = "0827" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payment := validPayment()
			tc.mutate(&payment)
			err := payment.Validate()
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPaymentDetailsValidateAcceptsFourDigitYearAndCVV(t *testing.T) {
	payment := validPayment()
	payment.Expiry = "12/2028"
	payment.CVV = "1234"
	if err := payment.Validate(); err != nil {
		t.Fatalf("expected valid payment, got %v", err)
	}
}

func TestMaskCardNumber(t *testing.T) {
	if got := MaskCardNumber("4111111111111111"); got != "4111********1111" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskCardNumber("1234"); got != "****" {
		t.Fatalf("short input should be fully masked, got %q", got)
	}
}
