package nuvei

import (
	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
)

// Success codes. Card rails approve with A; ACH rails accept with E.
const (
	CardApprovedCode = "A"
	ACHAcceptedCode  = "E"
)

// ResponseCodeInfo contains detailed information about a response code
type ResponseCodeInfo struct {
	Code               string
	Display            string
	Description        string
	IsApproved         bool
	IsDeclined         bool
	IsRetriable        bool
	RequiresUserAction bool
	Category           pkgerrors.ErrorCategory
	UserMessage        string
}

var cardResponseCodes = map[string]ResponseCodeInfo{
	"A": {
		Code:        "A",
		Display:     "APPROVAL",
		Description: "Transaction approved",
		IsApproved:  true,
		Category:    pkgerrors.CategoryApproved,
		UserMessage: "Payment successful",
	},
	"D": {
		Code:               "D",
		Display:            "DECLINED",
		Description:        "Transaction declined by the issuer",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "Transaction declined. Please try a different payment method.",
	},
	"R": {
		Code:               "R",
		Display:            "REFERRAL",
		Description:        "Issuer requests a voice referral",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryReferral,
		UserMessage:        "Your bank needs to verify this payment. Please contact your card issuer.",
	},
	"C": {
		Code:               "C",
		Display:            "PICK UP",
		Description:        "Issuer requests the card be retained",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "This card cannot be used. Please use a different payment method.",
	},
}

var achResponseCodes = map[string]ResponseCodeInfo{
	"E": {
		Code:        "E",
		Display:     "ACCEPTED",
		Description: "ACH debit accepted for processing",
		IsApproved:  true,
		Category:    pkgerrors.CategoryAccepted,
		UserMessage: "Payment accepted",
	},
	"D": {
		Code:               "D",
		Display:            "DECLINED",
		Description:        "ACH debit declined",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "Bank payment declined. Please verify your account details.",
	},
	"R": {
		Code:               "R",
		Display:            "REJECTED",
		Description:        "ACH debit rejected; account could not be verified",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidAccount,
		UserMessage:        "We could not verify this bank account. Please check the routing and account numbers.",
	},
}

func unknownResponseCode(code string) ResponseCodeInfo {
	return ResponseCodeInfo{
		Code:        code,
		Display:     "UNKNOWN",
		Description: "Unknown response code",
		IsDeclined:  true,
		Category:    pkgerrors.CategoryDeclined,
		UserMessage: "Transaction declined. Please try a different payment method or contact support.",
	}
}

// GetCardResponseCode retrieves response code information for card transactions
func GetCardResponseCode(code string) ResponseCodeInfo {
	if info, exists := cardResponseCodes[code]; exists {
		return info
	}
	return unknownResponseCode(code)
}

// GetACHResponseCode retrieves response code information for ACH transactions
func GetACHResponseCode(code string) ResponseCodeInfo {
	if info, exists := achResponseCodes[code]; exists {
		return info
	}
	return unknownResponseCode(code)
}

// LookupResponseCode picks the table for the originating payment method
func LookupResponseCode(method models.PaymentMethodType, code string) ResponseCodeInfo {
	if method == models.PaymentMethodACH {
		return GetACHResponseCode(code)
	}
	return GetCardResponseCode(code)
}

// IsSuccessCode applies the success rule of the originating payment method.
// An ACH "A" or a card "E" is not a success.
func IsSuccessCode(method models.PaymentMethodType, code string) bool {
	if method == models.PaymentMethodACH {
		return code == ACHAcceptedCode
	}
	return code == CardApprovedCode
}

// ToPaymentError converts a decline to a PaymentError for callers that
// prefer error returns over inspecting the response.
func (r ResponseCodeInfo) ToPaymentError(gatewayMessage string) *pkgerrors.PaymentError {
	return &pkgerrors.PaymentError{
		Code:           r.Code,
		Message:        r.UserMessage,
		GatewayMessage: gatewayMessage,
		IsRetriable:    r.IsRetriable,
		Category:       r.Category,
		Details:        map[string]interface{}{"display": r.Display, "description": r.Description},
	}
}
