package nuvei

import (
	"strings"

	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
)

// Envelope names probed on the raw body, in priority order
const (
	envelopePayment    = "PAYMENTRESPONSE"
	envelopeACHPayment = "PAYMENTACHRESPONSE"
	envelopeError      = "ERROR"
)

// Defaults for error envelopes that omit their code or text
const (
	DefaultErrorCode    = "E"
	DefaultErrorMessage = "Invalid Response"
	InvalidXMLMessage   = "Invalid Xml Response"
)

// Envelope identifies which success envelope a response arrived in
type Envelope string

const (
	EnvelopePayment    Envelope = "payment"
	EnvelopeACHPayment Envelope = "ach_payment"
)

// ParsedResponse is the extracted content of a success envelope.
// Elements missing from the body are nil.
type ParsedResponse struct {
	Envelope         Envelope
	UniqueRef        *string
	ResponseCode     *string
	ResponseText     *string
	ApprovalCode     *string
	BankResponseCode *string
	DateTime         *string
	AVSResponse      *string // card envelope only
	CVVResponse      *string // card envelope only
	Hash             *string
	RawXML           string
}

// IsACH reports whether the body was an ACH payment envelope
func (p *ParsedResponse) IsACH() bool {
	return p.Envelope == EnvelopeACHPayment
}

// Data returns the extracted values keyed by name. AVS and CVV keys are
// present only for card envelopes.
func (p *ParsedResponse) Data() map[string]*string {
	data := map[string]*string{
		"uniqueRef":        p.UniqueRef,
		"responseCode":     p.ResponseCode,
		"responseText":     p.ResponseText,
		"approvalCode":     p.ApprovalCode,
		"bankResponseCode": p.BankResponseCode,
		"dateTime":         p.DateTime,
		"hash":             p.Hash,
	}
	if !p.IsACH() {
		data["avsResponse"] = p.AVSResponse
		data["cvvResponse"] = p.CVVResponse
	}
	return data
}

// ParseResponse classifies a gateway body.
//
// Classification is by substring search on the raw body, checked in the
// order payment, ACH payment, error. A field value containing one of those
// literals can misclassify a response; the order is kept for wire
// compatibility. Bodies matching none of them are a default GatewayError.
func ParseResponse(body []byte) (*ParsedResponse, error) {
	raw := string(body)

	doc, err := parseDocument(body)
	if err != nil {
		return nil, &pkgerrors.InvalidResponseError{
			Message: InvalidXMLMessage,
			RawXML:  raw,
			Err:     err,
		}
	}

	switch {
	case strings.Contains(raw, envelopePayment):
		resp := extractPayment(doc, envelopePayment, true)
		resp.Envelope = EnvelopePayment
		resp.RawXML = raw
		return resp, nil

	case strings.Contains(raw, envelopeACHPayment):
		resp := extractPayment(doc, envelopeACHPayment, false)
		resp.Envelope = EnvelopeACHPayment
		resp.RawXML = raw
		return resp, nil

	case strings.Contains(raw, envelopeError):
		code := DefaultErrorCode
		if v := doc.textOf("ERRORCODE"); v != nil && strings.TrimSpace(*v) != "" {
			code = *v
		}
		message := DefaultErrorMessage
		if v := doc.textOf("ERRORSTRING"); v != nil && strings.TrimSpace(*v) != "" {
			message = *v
		}
		return nil, pkgerrors.NewGatewayError(code, message, raw)

	default:
		return nil, pkgerrors.NewGatewayError(DefaultErrorCode, DefaultErrorMessage, raw)
	}
}

// extractPayment reads the shared payment fields, scoped to the envelope
// element when the document has one.
func extractPayment(doc *node, envelope string, cardChecks bool) *ParsedResponse {
	scope := doc.lookup(envelope)
	if scope == nil {
		scope = doc
	}
	resp := &ParsedResponse{
		UniqueRef:        scope.textOf("UNIQUEREF"),
		ResponseCode:     scope.textOf("RESPONSECODE"),
		ResponseText:     scope.textOf("RESPONSETEXT"),
		ApprovalCode:     scope.textOf("APPROVALCODE"),
		BankResponseCode: scope.textOf("BANKRESPONSECODE"),
		DateTime:         scope.textOf("DATETIME"),
		Hash:             scope.textOf("HASH"),
	}
	if cardChecks {
		resp.AVSResponse = scope.textOf("AVSRESPONSE")
		resp.CVVResponse = scope.textOf("CVVRESPONSE")
	}
	return resp
}
