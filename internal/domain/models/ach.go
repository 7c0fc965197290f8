package models

import (
	"strings"

	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
)

// ACHAccountType represents the type of bank account as sent on the wire
type ACHAccountType string

const (
	AccountTypeChecking ACHAccountType = "CHECKING"
	AccountTypeSavings  ACHAccountType = "SAVINGS"
)

// SECCode represents Standard Entry Class codes for ACH
type SECCode string

const (
	SECCodePPD SECCode = "PPD" // Prearranged Payment and Deposit
	SECCodeWEB SECCode = "WEB" // Internet-Initiated Entry
	SECCodeCCD SECCode = "CCD" // Corporate Credit or Debit
	SECCodeTEL SECCode = "TEL" // Telephone-Initiated Entry
)

// StoredACHType is the instrument type reported for tokenized bank accounts
const StoredACHType = "SECUREACH"

var checkTypeShorthand = map[string]ACHAccountType{
	"C": AccountTypeChecking,
	"S": AccountTypeSavings,
}

// AccountTypeFromCheckType upper-cases the check type and expands the
// single-letter shorthand. Unknown values pass through upper-cased.
func AccountTypeFromCheckType(checkType string) ACHAccountType {
	upper := strings.ToUpper(strings.TrimSpace(checkType))
	if full, ok := checkTypeShorthand[upper]; ok {
		return full
	}
	return ACHAccountType(upper)
}

// BankDetails is the flat ACH projection consumed by the request builder
type BankDetails struct {
	AccountNumber string // account number, or secure reference for stored accounts
	RoutingNumber string
	AccountName   string
	AccountType   ACHAccountType
	CheckNumber   string
	LicenseNumber string
	LicenseState  string
	Billing       Billing
	Stored        bool
}

// BankSource is implemented by instruments that settle on ACH rails
type BankSource interface {
	Instrument
	BankDetails() BankDetails
}

// BankAccount is a raw bank account presented by the customer
type BankAccount struct {
	FirstName           string
	LastName            string
	AccountNumber       string
	RoutingNumber       string
	CheckNumber         string
	CheckType           string // "C", "S", "CHECKING" or "SAVINGS"
	DriversLicense      string
	DriversLicenseState string
	Billing             Billing
}

func (b *BankAccount) PaymentMethod() PaymentMethodType {
	return PaymentMethodACH
}

func (b *BankAccount) Validate() error {
	if b == nil || strings.TrimSpace(b.RoutingNumber) == "" {
		return pkgerrors.NewInstrumentError("ach", "routing number")
	}
	if strings.TrimSpace(b.AccountNumber) == "" {
		return pkgerrors.NewInstrumentError("ach", "account number")
	}
	return nil
}

// Name returns the account holder name
func (b *BankAccount) Name() string {
	return holderName(b.FirstName, b.LastName)
}

func (b *BankAccount) BankDetails() BankDetails {
	return BankDetails{
		AccountNumber: strings.TrimSpace(b.AccountNumber),
		RoutingNumber: strings.TrimSpace(b.RoutingNumber),
		AccountName:   b.Name(),
		AccountType:   AccountTypeFromCheckType(b.CheckType),
		CheckNumber:   b.CheckNumber,
		LicenseNumber: b.DriversLicense,
		LicenseState:  b.DriversLicenseState,
		Billing:       b.Billing,
	}
}

// StoredBankAccount references a bank account previously registered with the gateway
type StoredBankAccount struct {
	Reference     string
	RoutingNumber string
	FirstName     string
	LastName      string
	CheckType     string
	Billing       Billing
}

func (s *StoredBankAccount) PaymentMethod() PaymentMethodType {
	return PaymentMethodACH
}

func (s *StoredBankAccount) Validate() error {
	if s == nil || strings.TrimSpace(s.Reference) == "" {
		return pkgerrors.NewInstrumentError("ach", "Ach Reference")
	}
	return nil
}

func (s *StoredBankAccount) BankDetails() BankDetails {
	return BankDetails{
		AccountNumber: strings.TrimSpace(s.Reference),
		RoutingNumber: strings.TrimSpace(s.RoutingNumber),
		AccountName:   holderName(s.FirstName, s.LastName),
		AccountType:   AccountTypeFromCheckType(s.CheckType),
		Billing:       s.Billing,
		Stored:        true,
	}
}
