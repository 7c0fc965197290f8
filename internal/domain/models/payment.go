package models

import "strings"

// PaymentMethodType represents the payment method used
type PaymentMethodType string

const (
	PaymentMethodCard PaymentMethodType = "card"
	PaymentMethodACH  PaymentMethodType = "ach"
)

// Instrument is the payment source attached to a transaction.
// Validate is called before any request is built.
type Instrument interface {
	PaymentMethod() PaymentMethodType
	Validate() error
}

// Billing holds the optional customer details carried by an instrument
type Billing struct {
	Address1 string
	Address2 string
	City     string
	Region   string // state or province
	Postcode string
	Country  string
	Phone    string
	Email    string
}

// holderName joins first and last name the way the gateway expects
func holderName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// digitsOnly strips spaces, dashes and any other non-digit characters
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
