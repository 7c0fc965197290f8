package nuvei

import (
	"fmt"
	"time"

	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Variant selects the field layout, hash formula and root element of a request
type Variant int

const (
	VariantCardPayment Variant = iota + 1
	VariantCardAuth
	VariantACHPayment
	VariantACHAuth
	VariantPreAuth
)

func (v Variant) String() string {
	switch v {
	case VariantCardPayment:
		return "card_payment"
	case VariantCardAuth:
		return "card_auth"
	case VariantACHPayment:
		return "ach_payment"
	case VariantACHAuth:
		return "ach_auth"
	case VariantPreAuth:
		return "pre_auth"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// RootElement is the XML document element for the variant
func (v Variant) RootElement() string {
	switch v {
	case VariantCardPayment:
		return "PAYMENT"
	case VariantCardAuth:
		return "AUTH"
	case VariantACHPayment:
		return "PAYMENTACH"
	case VariantACHAuth:
		return "AUTHACH"
	case VariantPreAuth:
		return "PREAUTH"
	default:
		return ""
	}
}

// PaymentMethod reports which rails the variant settles on
func (v Variant) PaymentMethod() models.PaymentMethodType {
	if v == VariantACHPayment || v == VariantACHAuth {
		return models.PaymentMethodACH
	}
	return models.PaymentMethodCard
}

// HasAmount reports whether AMOUNT is sent. Card authorization is the only
// variant that authorizes without an amount.
func (v Variant) HasAmount() bool {
	return v != VariantCardAuth
}

// Terminal and transaction type codes
const (
	TerminalTypeMailOrder  = "1"
	TerminalTypeECommerce  = "2"
	TerminalTypeCardSwiped = "3"

	TransactionTypeCardSwiped = "0"
	TransactionTypeMailOrder  = "4"
	TransactionTypeECommerce  = "7"
)

// ForeignCurrency is the optional dynamic currency conversion block
type ForeignCurrency struct {
	CardCurrency   string
	CardAmount     decimal.Decimal
	ConversionRate decimal.Decimal
}

// Options carries the optional request enrichment. Empty strings are omitted.
type Options struct {
	Description  string
	IPAddress    string
	AutoReady    string // Y or N; terminal default when empty
	AVSOnly      string
	IssueNo      string
	MPIRef       string
	MobileNumber string
	DeviceID     string
	MailOrder    bool
	SECCode      models.SECCode // ACH only; WEB when empty

	ForeignCurrency *ForeignCurrency
}

// Params is the complete, immutable input to Build. Exactly one of Card or
// Bank is read, depending on the variant.
type Params struct {
	TerminalID    string
	OrderID       string
	Currency      string
	Amount        string // already formatted with two decimal places
	Timestamp     time.Time
	MultiCurrency bool

	Card    models.CardDetails
	Bank    models.BankDetails
	Options Options
}

// FormatAmount renders an amount with exactly two decimal places
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Request is a built, signed request. It has no mutators; Fields returns a copy.
type Request struct {
	variant   Variant
	fields    Fields
	hash      string
	timestamp string
}

func (r *Request) Variant() Variant {
	return r.variant
}

func (r *Request) Fields() Fields {
	return r.fields.clone()
}

func (r *Request) Hash() string {
	return r.hash
}

// Timestamp is the DATETIME value that was also fed into the hash
func (r *Request) Timestamp() string {
	return r.timestamp
}

// Get returns a top-level field value
func (r *Request) Get(name string) (string, bool) {
	return r.fields.Get(name)
}

// XML serializes the request under the variant's root element
func (r *Request) XML() ([]byte, error) {
	return Marshal(r.variant.RootElement(), r.fields)
}
