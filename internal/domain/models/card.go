package models

import (
	"fmt"
	"strings"

	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
)

// StoredCardType is the gateway card type for tokenized cards
const StoredCardType = "SECURECARD"

// CardDetails is the flat card projection consumed by the request builder
type CardDetails struct {
	Number     string // PAN, or secure card reference for stored cards
	TrackData  string
	Expiry     string // MMYY
	HolderName string
	CVV        string
	Type       string // gateway CARDTYPE code
	Billing    Billing
	Stored     bool
}

// CardSource is implemented by instruments that settle on card rails
type CardSource interface {
	Instrument
	CardDetails() CardDetails
}

// Card is a raw card presented by the customer
type Card struct {
	FirstName   string
	LastName    string
	Number      string
	ExpiryMonth int
	ExpiryYear  int
	CVV         string
	// TrackData switches the request to swiped mode; Number is ignored when set
	TrackData string
	Billing   Billing
}

func (c *Card) PaymentMethod() PaymentMethodType {
	return PaymentMethodCard
}

// Validate checks the card carries a usable number
func (c *Card) Validate() error {
	if c == nil {
		return pkgerrors.NewInstrumentError("card", "number")
	}
	if c.TrackData != "" {
		return nil
	}
	number := digitsOnly(c.Number)
	if number == "" {
		return pkgerrors.NewInstrumentError("card", "number")
	}
	if !luhnValid(number) {
		return &pkgerrors.InstrumentError{Instrument: "card", Field: "valid number"}
	}
	if c.ExpiryMonth != 0 && (c.ExpiryMonth < 1 || c.ExpiryMonth > 12) {
		return &pkgerrors.InstrumentError{Instrument: "card", Field: "valid expiry month"}
	}
	return nil
}

// Brand returns the detected card network, e.g. "visa"
func (c *Card) Brand() string {
	return DetectBrand(c.Number)
}

// Name returns the cardholder name
func (c *Card) Name() string {
	return holderName(c.FirstName, c.LastName)
}

// ExpiryDate returns the expiry as MMYY, or "" if month or year is unset
func (c *Card) ExpiryDate() string {
	if c.ExpiryMonth == 0 || c.ExpiryYear == 0 {
		return ""
	}
	return fmt.Sprintf("%02d%02d", c.ExpiryMonth, c.ExpiryYear%100)
}

func (c *Card) CardDetails() CardDetails {
	return CardDetails{
		Number:     digitsOnly(c.Number),
		TrackData:  c.TrackData,
		Expiry:     c.ExpiryDate(),
		HolderName: c.Name(),
		CVV:        c.CVV,
		Type:       GatewayCardType(c.Brand()),
		Billing:    c.Billing,
	}
}

// StoredCard references a card previously registered with the gateway
type StoredCard struct {
	Reference   string // secure card reference returned at registration
	FirstName   string
	LastName    string
	ExpiryMonth int
	ExpiryYear  int
	CVV         string
	Billing     Billing
}

func (s *StoredCard) PaymentMethod() PaymentMethodType {
	return PaymentMethodCard
}

func (s *StoredCard) Validate() error {
	if s == nil || strings.TrimSpace(s.Reference) == "" {
		return pkgerrors.NewInstrumentError("card", "Card Reference")
	}
	return nil
}

func (s *StoredCard) CardDetails() CardDetails {
	expiry := ""
	if s.ExpiryMonth != 0 && s.ExpiryYear != 0 {
		expiry = fmt.Sprintf("%02d%02d", s.ExpiryMonth, s.ExpiryYear%100)
	}
	return CardDetails{
		Number:     strings.TrimSpace(s.Reference),
		Expiry:     expiry,
		HolderName: holderName(s.FirstName, s.LastName),
		CVV:        s.CVV,
		Type:       StoredCardType,
		Billing:    s.Billing,
		Stored:     true,
	}
}

// MaskNumber replaces all but the last four characters with '#'
func MaskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("#", len(number)-4) + number[len(number)-4:]
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
