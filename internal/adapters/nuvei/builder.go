package nuvei

import (
	"fmt"

	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
)

// builder pairs a variant's hash formula with its field layout.
// The hash is computed first, from the same immutable Params, and then
// placed into the field list at its wire position.
type builder struct {
	sign   func(p Params, timestamp, secret string) string
	layout func(p Params, timestamp, hash string) Fields
}

var builders = map[Variant]builder{
	VariantCardPayment: {sign: signPayment, layout: cardPaymentFields},
	VariantCardAuth:    {sign: signCardAuth, layout: cardAuthFields},
	VariantPreAuth:     {sign: signPayment, layout: preAuthFields},
	VariantACHPayment:  {sign: signACHPayment, layout: achFields},
	VariantACHAuth:     {sign: signACHAuth, layout: achFields},
}

// Build assembles and signs a request. It does not validate Params; callers
// check required values first.
func Build(variant Variant, p Params, secret string) (*Request, error) {
	b, ok := builders[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported request variant: %s", variant)
	}

	timestamp := FormatTimestamp(p.Timestamp)
	hash := b.sign(p, timestamp, secret)

	return &Request{
		variant:   variant,
		fields:    b.layout(p, timestamp, hash),
		hash:      hash,
		timestamp: timestamp,
	}, nil
}

func signPayment(p Params, timestamp, secret string) string {
	return PaymentHash(PaymentHashInput{
		TerminalID:    p.TerminalID,
		OrderID:       p.OrderID,
		Currency:      p.Currency,
		Amount:        p.Amount,
		Timestamp:     timestamp,
		MultiCurrency: p.MultiCurrency,
	}, secret)
}

// ACH payments are never signed in multicurrency form.
func signACHPayment(p Params, timestamp, secret string) string {
	return PaymentHash(PaymentHashInput{
		TerminalID: p.TerminalID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Timestamp:  timestamp,
	}, secret)
}

// The card auth hash signs the card values exactly as they go on the wire.
func signCardAuth(p Params, timestamp, secret string) string {
	c := p.Card
	in := CardAuthHashInput{
		TerminalID: p.TerminalID,
		OrderID:    p.OrderID,
		Timestamp:  timestamp,
		CardType:   c.Type,
	}
	if c.TrackData == "" {
		in.CardNumber = c.Number
		if sendsExpiry(c) {
			in.CardExpiry = c.Expiry
			in.CardHolderName = c.HolderName
		}
	}
	return CardAuthHash(in, secret)
}

func signACHAuth(p Params, _ string, secret string) string {
	b := p.Bank
	return ACHAuthHash(ACHAuthHashInput{
		TerminalID:    p.TerminalID,
		OrderID:       p.OrderID,
		AccountNumber: b.AccountNumber,
		AccountName:   b.AccountName,
		AccountType:   string(b.AccountType),
		RoutingNumber: b.RoutingNumber,
	}, secret)
}

// terminalModes picks TERMINALTYPE and TRANSACTIONTYPE. Swiped cards win over mail order.
func terminalModes(mailOrder, swiped bool) (string, string) {
	switch {
	case swiped:
		return TerminalTypeCardSwiped, TransactionTypeCardSwiped
	case mailOrder:
		return TerminalTypeMailOrder, TransactionTypeMailOrder
	default:
		return TerminalTypeECommerce, TransactionTypeECommerce
	}
}

// Keyed cards with an expiry also carry CARDHOLDERNAME, empty or not.
// Track data replaces both.
func sendsExpiry(c models.CardDetails) bool {
	return c.TrackData == "" && c.Expiry != ""
}

// addAddress appends the AVS block. Postcode gates the whole block.
func addAddress(f *Fields, b models.Billing) {
	if b.Postcode == "" {
		return
	}
	f.addIf("ADDRESS1", b.Address1)
	f.addIf("ADDRESS2", b.Address2)
	f.add("POSTCODE", b.Postcode)
}

func addForeignCurrency(f *Fields, fc *ForeignCurrency) {
	if fc == nil {
		return
	}
	f.addBlock("FOREIGNCURRENCYINFORMATION", Fields{
		{Name: "CARDCURRENCY", Value: fc.CardCurrency},
		{Name: "CARDAMOUNT", Value: FormatAmount(fc.CardAmount)},
		{Name: "CONVERSIONRATE", Value: fc.ConversionRate.String()},
	})
}

func cardPaymentFields(p Params, timestamp, hash string) Fields {
	return cardFields(p, timestamp, hash, true)
}

func cardAuthFields(p Params, timestamp, hash string) Fields {
	return cardFields(p, timestamp, hash, false)
}

func cardFields(p Params, timestamp, hash string, withAmount bool) Fields {
	c := p.Card
	o := p.Options
	swiped := c.TrackData != ""
	terminalType, transactionType := terminalModes(o.MailOrder, swiped)

	var f Fields
	f.add("ORDERID", p.OrderID)
	f.add("TERMINALID", p.TerminalID)
	if withAmount {
		f.add("AMOUNT", p.Amount)
	}
	f.add("DATETIME", timestamp)
	if swiped {
		f.add("TRACKDATA", c.TrackData)
	} else {
		f.add("CARDNUMBER", c.Number)
	}
	f.add("CARDTYPE", c.Type)
	if sendsExpiry(c) {
		f.add("CARDEXPIRY", c.Expiry)
		f.add("CARDHOLDERNAME", c.HolderName)
	}
	f.add("HASH", hash)
	f.add("CURRENCY", p.Currency)
	addForeignCurrency(&f, o.ForeignCurrency)
	f.add("TERMINALTYPE", terminalType)
	f.add("TRANSACTIONTYPE", transactionType)
	f.addIf("CVV", c.CVV)
	f.addIf("ISSUENO", o.IssueNo)
	addAddress(&f, c.Billing)
	f.addIf("DESCRIPTION", o.Description)
	f.addIf("AUTOREADY", o.AutoReady)
	f.addIf("AVSONLY", o.AVSOnly)
	f.addIf("MPIREF", o.MPIRef)
	f.addIf("MOBILENUMBER", o.MobileNumber)
	f.addIf("DEVICEID", o.DeviceID)
	f.addIf("PHONE", c.Billing.Phone)
	f.addIf("COUNTRY", c.Billing.Country)
	f.addIf("IPADDRESS", o.IPAddress)
	f.addIf("EMAIL", c.Billing.Email)
	return f
}

// Pre-auth has no swiped mode and a shorter optional tail.
func preAuthFields(p Params, timestamp, hash string) Fields {
	c := p.Card
	o := p.Options
	c.TrackData = ""
	terminalType, transactionType := terminalModes(o.MailOrder, false)

	var f Fields
	f.add("ORDERID", p.OrderID)
	f.add("TERMINALID", p.TerminalID)
	f.add("AMOUNT", p.Amount)
	f.add("DATETIME", timestamp)
	f.add("CARDNUMBER", c.Number)
	f.add("CARDTYPE", c.Type)
	if sendsExpiry(c) {
		f.add("CARDEXPIRY", c.Expiry)
		f.add("CARDHOLDERNAME", c.HolderName)
	}
	f.add("HASH", hash)
	f.add("CURRENCY", p.Currency)
	addForeignCurrency(&f, o.ForeignCurrency)
	f.add("TERMINALTYPE", terminalType)
	f.add("TRANSACTIONTYPE", transactionType)
	f.addIf("EMAIL", c.Billing.Email)
	f.addIf("CVV", c.CVV)
	f.addIf("ISSUENO", o.IssueNo)
	addAddress(&f, c.Billing)
	f.addIf("DESCRIPTION", o.Description)
	f.addIf("IPADDRESS", o.IPAddress)
	return f
}

// City and region are accepted on the instrument but the ACH layout has no
// element for them.
func achFields(p Params, timestamp, hash string) Fields {
	b := p.Bank
	o := p.Options
	terminalType, _ := terminalModes(o.MailOrder, false)
	secCode := string(o.SECCode)
	if secCode == "" {
		secCode = string(models.SECCodeWEB)
	}

	var f Fields
	f.add("ORDERID", p.OrderID)
	f.add("TERMINALID", p.TerminalID)
	f.add("AMOUNT", p.Amount)
	f.add("CURRENCY", p.Currency)
	f.add("DATETIME", timestamp)
	f.add("TERMINALTYPE", terminalType)
	f.add("SEC_CODE", secCode)
	f.add("ACCOUNT_TYPE", string(b.AccountType))
	f.add("ACCOUNT_NUMBER", b.AccountNumber)
	f.add("ROUTING_NUMBER", b.RoutingNumber)
	f.add("ACCOUNT_NAME", b.AccountName)
	f.addIf("CHECK_NUMBER", b.CheckNumber)
	addAddress(&f, b.Billing)
	f.addIf("COUNTRY", b.Billing.Country)
	f.addIf("PHONE", b.Billing.Phone)
	f.addIf("IPADDRESS", o.IPAddress)
	f.addIf("EMAIL", b.Billing.Email)
	f.addIf("DESCRIPTION", o.Description)
	if b.LicenseNumber != "" {
		f.addIf("DL_STATE", b.LicenseState)
		f.add("DL_NUMBER", b.LicenseNumber)
	}
	if b.Stored {
		f.add("ACH_SECURE", "Y")
	}
	f.add("HASH", hash)
	return f
}
