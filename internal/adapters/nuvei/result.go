package nuvei

import (
	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
)

// MaskedCard echoes the card used, with all but the last four digits hidden
type MaskedCard struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Response is the outcome of a completed round trip. A decline is a
// Response with Successful false, not an error.
type Response struct {
	Successful           bool                     `json:"successful"`
	Variant              string                   `json:"variant"`
	PaymentMethod        models.PaymentMethodType `json:"payment_method"`
	OrderID              string                   `json:"order_id"`
	TransactionReference string                   `json:"transaction_reference"`
	AuthorizationCode    string                   `json:"authorization_code,omitempty"`
	ResponseCode         string                   `json:"response_code"`
	ResponseText         string                   `json:"response_text"`
	BankResponseCode     string                   `json:"bank_response_code,omitempty"`
	DateTime             string                   `json:"date_time,omitempty"`
	Hash                 string                   `json:"hash,omitempty"`
	AVSResponse          *string                  `json:"avs_response"`
	CVVResponse          *string                  `json:"cvv_response"`
	Card                 *MaskedCard              `json:"card,omitempty"`
	RawXML               string                   `json:"-"`

	parsed *ParsedResponse
}

func newResponse(variant Variant, orderID string, inst models.Instrument, parsed *ParsedResponse) *Response {
	method := variant.PaymentMethod()
	code := deref(parsed.ResponseCode)

	resp := &Response{
		Successful:           IsSuccessCode(method, code),
		Variant:              variant.String(),
		PaymentMethod:        method,
		OrderID:              orderID,
		TransactionReference: deref(parsed.UniqueRef),
		AuthorizationCode:    deref(parsed.ApprovalCode),
		ResponseCode:         code,
		ResponseText:         deref(parsed.ResponseText),
		BankResponseCode:     deref(parsed.BankResponseCode),
		DateTime:             deref(parsed.DateTime),
		Hash:                 deref(parsed.Hash),
		RawXML:               parsed.RawXML,
		parsed:               parsed,
	}

	if method == models.PaymentMethodCard {
		resp.AVSResponse = parsed.AVSResponse
		resp.CVVResponse = parsed.CVVResponse
		if card, ok := inst.(*models.Card); ok {
			resp.Card = maskCard(card)
		}
	}
	return resp
}

func maskCard(card *models.Card) *MaskedCard {
	details := card.CardDetails()
	if details.Number == "" {
		return nil
	}
	return &MaskedCard{
		Type:   details.Type,
		Number: models.MaskNumber(details.Number),
	}
}

// Data returns the extracted response values keyed by name
func (r *Response) Data() map[string]*string {
	if r.parsed == nil {
		return map[string]*string{}
	}
	return r.parsed.Data()
}

// CodeInfo describes the response code in terms of the originating payment method
func (r *Response) CodeInfo() ResponseCodeInfo {
	return LookupResponseCode(r.PaymentMethod, r.ResponseCode)
}

// DeclineError returns nil for a successful response, otherwise a PaymentError
// describing the decline.
func (r *Response) DeclineError() *pkgerrors.PaymentError {
	if r.Successful {
		return nil
	}
	return r.CodeInfo().ToPaymentError(r.ResponseText)
}
