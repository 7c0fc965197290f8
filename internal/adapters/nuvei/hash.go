package nuvei

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"
)

// TimestampLayout renders times as dd-mm-yyyy:HH:mm:ss:000.
// The gateway ignores milliseconds and expects them zeroed.
const TimestampLayout = "02-01-2006:15:04:05:000"

// FormatTimestamp formats t for the DATETIME field and hash input
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Digest returns the lowercase hex MD5 of the concatenated parts
func Digest(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// PaymentHashInput holds the values signed on amount-bearing requests
type PaymentHashInput struct {
	TerminalID    string
	OrderID       string
	Currency      string
	Amount        string
	Timestamp     string
	MultiCurrency bool
}

// PaymentHash signs card payments, pre-auths and ACH payments:
// terminalId + orderId + [currency] + amount + timestamp + secret
func PaymentHash(in PaymentHashInput, secret string) string {
	if in.MultiCurrency {
		return Digest(in.TerminalID, in.OrderID, in.Currency, in.Amount, in.Timestamp, secret)
	}
	return Digest(in.TerminalID, in.OrderID, in.Amount, in.Timestamp, secret)
}

// CardAuthHashInput holds the values signed on a card authorization.
// Unlike payments there is no amount; the card identity is signed instead.
type CardAuthHashInput struct {
	TerminalID     string
	OrderID        string
	Timestamp      string
	CardNumber     string
	CardExpiry     string
	CardType       string
	CardHolderName string
}

// CardAuthHash signs a card authorization:
// terminalId + orderId + timestamp + cardNumber + cardExpiry + cardType + cardHolderName + secret
func CardAuthHash(in CardAuthHashInput, secret string) string {
	return Digest(in.TerminalID, in.OrderID, in.Timestamp, in.CardNumber, in.CardExpiry, in.CardType, in.CardHolderName, secret)
}

// ACHAuthHashInput holds the values signed on an ACH authorization
type ACHAuthHashInput struct {
	TerminalID    string
	OrderID       string
	AccountNumber string
	AccountName   string
	AccountType   string
	RoutingNumber string
}

// ACHAuthHash signs an ACH authorization:
// terminalId + orderId + accountNumber + accountName + accountType + routingNumber + secret
func ACHAuthHash(in ACHAuthHashInput, secret string) string {
	return Digest(in.TerminalID, in.OrderID, in.AccountNumber, in.AccountName, in.AccountType, in.RoutingNumber, secret)
}

// ResponseHashInput holds the values the gateway signs on a payment response
type ResponseHashInput struct {
	TerminalID    string
	UniqueRef     string
	Currency      string
	Amount        string
	DateTime      string // DATETIME echoed in the response
	ResponseCode  string
	ResponseText  string
	MultiCurrency bool
}

// ResponseHash computes the expected response HASH:
// terminalId + uniqueRef + [currency] + amount + dateTime + responseCode + responseText + secret
func ResponseHash(in ResponseHashInput, secret string) string {
	if in.MultiCurrency {
		return Digest(in.TerminalID, in.UniqueRef, in.Currency, in.Amount, in.DateTime, in.ResponseCode, in.ResponseText, secret)
	}
	return Digest(in.TerminalID, in.UniqueRef, in.Amount, in.DateTime, in.ResponseCode, in.ResponseText, secret)
}

// VerifyResponseHash compares a received hash against the expected one in constant time
func VerifyResponseHash(in ResponseHashInput, secret, received string) bool {
	expected := ResponseHash(in, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(received))) == 1
}
