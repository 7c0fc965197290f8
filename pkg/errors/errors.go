package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryApproved       ErrorCategory = "approved"
	CategoryAccepted       ErrorCategory = "accepted"
	CategoryDeclined       ErrorCategory = "declined"
	CategoryReferral       ErrorCategory = "referral"
	CategoryInvalidCard    ErrorCategory = "invalid_card"
	CategoryInvalidAccount ErrorCategory = "invalid_account"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryNetworkError   ErrorCategory = "network_error"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
	CategoryProtocolError  ErrorCategory = "protocol_error"
)

// PaymentError represents a payment processing error with detailed context
type PaymentError struct {
	Code           string
	Message        string
	GatewayMessage string
	IsRetriable    bool
	Category       ErrorCategory
	Details        map[string]interface{}
	Err            error
}

func (e *PaymentError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s (gateway: %s)", e.Code, e.Message, e.GatewayMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, category ErrorCategory, retriable bool) *PaymentError {
	return &PaymentError{
		Code:        code,
		Message:     message,
		Category:    category,
		IsRetriable: retriable,
		Details:     make(map[string]interface{}),
	}
}

// NewNetworkError wraps a transport failure
func NewNetworkError(message string, err error) *PaymentError {
	pe := NewPaymentError("NETWORK_ERROR", message, CategoryNetworkError, true)
	pe.Err = err
	return pe
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewRequiredError reports a missing top-level request parameter
func NewRequiredError(field string) *ValidationError {
	return NewValidationError(field, fmt.Sprintf("the %s parameter is required", field))
}

// InstrumentError is returned when a card or bank account is missing a mandatory value
type InstrumentError struct {
	Instrument string // card, ach
	Field      string
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("invalid %s: the %s is required", e.Instrument, e.Field)
}

// NewInstrumentError creates a new instrument error
func NewInstrumentError(instrument, field string) *InstrumentError {
	return &InstrumentError{Instrument: instrument, Field: field}
}

// GatewayError is a protocol-level error reported by the gateway, or an
// envelope the client could not recognise.
type GatewayError struct {
	Code    string
	Message string
	RawXML  string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

// NewGatewayError creates a new gateway error
func NewGatewayError(code, message, raw string) *GatewayError {
	return &GatewayError{Code: code, Message: message, RawXML: raw}
}

// InvalidResponseError means the gateway body could not be parsed as XML
type InvalidResponseError struct {
	Message string
	RawXML  string
	Err     error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

// HashMismatchError means the response hash did not match the locally computed one
type HashMismatchError struct {
	OrderID  string
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("response hash mismatch for order %s", e.OrderID)
}

// CategoryOf classifies err for logs and callers that branch on the kind of
// failure. Unknown errors are system errors.
func CategoryOf(err error) ErrorCategory {
	var (
		perr *PaymentError
		verr *ValidationError
		ierr *InstrumentError
		gerr *GatewayError
		rerr *InvalidResponseError
		herr *HashMismatchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &perr):
		return perr.Category
	case errors.As(err, &verr), errors.As(err, &ierr):
		return CategoryInvalidRequest
	case errors.As(err, &gerr), errors.As(err, &rerr), errors.As(err, &herr):
		return CategoryProtocolError
	}
	return CategorySystemError
}
