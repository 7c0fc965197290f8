package nuvei

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
	"github.com/kevin07696/nuvei-gateway/pkg/observability"
	"github.com/kevin07696/nuvei-gateway/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T, client *mocks.MockHTTPClient, opts ...Option) *Gateway {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	g, err := NewGateway(Config{
		TerminalID:   "T1",
		SharedSecret: testSecret,
		Currency:     "USD",
		Transport:    TransportConfig{TestMode: true},
	}, client, opts...)
	require.NoError(t, err)
	return g
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func visa() *models.Card {
	return &models.Card{
		FirstName:   "Bobby",
		LastName:    "Tables",
		Number:      "4111111111111111",
		ExpiryMonth: 12,
		ExpiryYear:  2026,
		CVV:         "123",
	}
}

func checking() *models.BankAccount {
	return &models.BankAccount{
		FirstName:     "Bobby",
		LastName:      "Tables",
		AccountNumber: "856667",
		RoutingNumber: "021000021",
		CheckType:     "C",
	}
}

func sentRoot(t *testing.T, client *mocks.MockHTTPClient) (string, Fields) {
	t.Helper()
	require.Len(t, client.Bodies, 1)
	root, fields, err := Unmarshal(client.Bodies[0])
	require.NoError(t, err)
	return root, fields
}

func TestNewGateway_RequiresCredentials(t *testing.T) {
	client := mocks.NewMockHTTPClient(nil)

	_, err := NewGateway(Config{SharedSecret: "x"}, client)
	assert.Error(t, err)

	_, err = NewGateway(Config{TerminalID: "T1"}, client)
	assert.Error(t, err)
}

func TestGateway_PurchaseCardApproved(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	logger := mocks.NewMockLogger()
	g := testGateway(t, client, WithLogger(logger))

	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Amount:        amount("10"),
		Instrument:    visa(),
	})
	require.NoError(t, err)

	assert.True(t, resp.Successful)
	assert.Equal(t, "card_payment", resp.Variant)
	assert.Equal(t, models.PaymentMethodCard, resp.PaymentMethod)
	assert.Equal(t, "O1", resp.OrderID)
	assert.Equal(t, "UR1234567", resp.TransactionReference)
	assert.Equal(t, "475318", resp.AuthorizationCode)
	assert.Equal(t, "A", resp.ResponseCode)
	assert.Equal(t, str("Y"), resp.AVSResponse)
	assert.Equal(t, str("M"), resp.CVVResponse)
	require.NotNil(t, resp.Card)
	assert.Equal(t, "VISA", resp.Card.Type)
	assert.Equal(t, "############1111", resp.Card.Number)
	assert.Nil(t, resp.DeclineError())

	root, fields := sentRoot(t, client)
	assert.Equal(t, "PAYMENT", root)
	assert.Equal(t, "application/xml", client.Calls[0].Header.Get("Content-Type"))
	assert.Equal(t, "https://testpayments.nuvei.com/merchant/xmlpayment", client.Calls[0].URL.String())

	got, _ := fields.Get("AMOUNT")
	assert.Equal(t, "10.00", got)
	got, _ = fields.Get("DATETIME")
	assert.Equal(t, testTimestamp, got)
	got, _ = fields.Get("HASH")
	assert.Equal(t, PaymentHash(PaymentHashInput{
		TerminalID: "T1", OrderID: "O1", Amount: "10.00", Timestamp: testTimestamp,
	}, testSecret), got)

	for _, call := range logger.AllCalls() {
		for _, f := range call.Fields {
			assert.NotContains(t, fmt.Sprint(f.Value), "4111111111111111", "card number leaked in %q", call.Message)
		}
	}
}

func TestGateway_PurchaseCardDeclined(t *testing.T) {
	declined := strings.Replace(cardApprovedXML, "<RESPONSECODE>A</RESPONSECODE>", "<RESPONSECODE>D</RESPONSECODE>", 1)
	client := mocks.NewXMLResponder(http.StatusOK, declined)
	g := testGateway(t, client)

	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Amount:        amount("10"),
		Instrument:    visa(),
	})
	require.NoError(t, err, "a decline is a response, not an error")

	assert.False(t, resp.Successful)
	perr := resp.DeclineError()
	require.NotNil(t, perr)
	assert.Equal(t, pkgerrors.CategoryDeclined, perr.Category)
}

func TestGateway_PurchaseACHAccepted(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, achAcceptedXML)
	g := testGateway(t, client)

	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O2",
		Amount:        amount("12"),
		Instrument:    checking(),
		Options:       Options{SECCode: models.SECCodePPD},
	})
	require.NoError(t, err)

	assert.True(t, resp.Successful)
	assert.Equal(t, "ach_payment", resp.Variant)
	assert.Equal(t, models.PaymentMethodACH, resp.PaymentMethod)
	assert.Equal(t, "UR7654321", resp.TransactionReference)
	assert.Nil(t, resp.AVSResponse)
	assert.Nil(t, resp.CVVResponse)
	assert.Nil(t, resp.Card)

	root, fields := sentRoot(t, client)
	assert.Equal(t, "PAYMENTACH", root)
	got, _ := fields.Get("ACCOUNT_TYPE")
	assert.Equal(t, "CHECKING", got)
	got, _ = fields.Get("SEC_CODE")
	assert.Equal(t, "PPD", got)
	names := fields.Names()
	assert.Equal(t, "HASH", names[len(names)-1])
}

func TestGateway_SuccessCodesDoNotCross(t *testing.T) {
	// "E" is an ACH acceptance but means nothing for a card
	cardE := strings.Replace(cardApprovedXML, "<RESPONSECODE>A</RESPONSECODE>", "<RESPONSECODE>E</RESPONSECODE>", 1)
	g := testGateway(t, mocks.NewXMLResponder(http.StatusOK, cardE))
	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Instrument: visa(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Successful)

	// and "A" is not an ACH acceptance
	achA := strings.Replace(achAcceptedXML, "<RESPONSECODE>E</RESPONSECODE>", "<RESPONSECODE>A</RESPONSECODE>", 1)
	g = testGateway(t, mocks.NewXMLResponder(http.StatusOK, achA))
	resp, err = g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O2", Amount: amount("12"), Instrument: checking(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Successful)
}

func TestGateway_DuplicateOrder(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, duplicateOrderXML)
	logger := mocks.NewMockLogger()
	g := testGateway(t, client, WithLogger(logger))

	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Instrument: visa(),
	})
	assert.Nil(t, resp)

	var gerr *pkgerrors.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "E10", gerr.Code)
	assert.Equal(t, "Order Already Processed", gerr.Message)
	require.Len(t, logger.WarnCalls, 1)
	code, _ := logger.WarnCalls[0].Field("error_code")
	assert.Equal(t, "E10", code)
	category, _ := logger.WarnCalls[0].Field("category")
	assert.Equal(t, string(pkgerrors.CategoryProtocolError), category)
}

func TestGateway_InvalidXML(t *testing.T) {
	g := testGateway(t, mocks.NewXMLResponder(http.StatusOK, "<PAYMENTRESPONSE><UNIQUEREF>"))

	_, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Instrument: visa(),
	})

	var ierr *pkgerrors.InvalidResponseError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, InvalidXMLMessage, ierr.Message)
}

func TestGateway_ValidationHappensBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		call    func(g *Gateway) error
		field   string
		instErr string
	}{
		{
			name: "purchase without amount",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{TransactionID: "O1", Instrument: visa()})
				return err
			},
			field: "amount",
		},
		{
			name: "amount is checked before transaction id",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{Instrument: visa()})
				return err
			},
			field: "amount",
		},
		{
			name: "purchase without transaction id",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{Amount: amount("1"), Instrument: visa()})
				return err
			},
			field: "transactionId",
		},
		{
			name: "transaction id too long",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: strings.Repeat("x", OrderIDLength+1), Amount: amount("1"), Instrument: visa(),
				})
				return err
			},
			field: "transactionId",
		},
		{
			name: "purchase without instrument",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{TransactionID: "O1", Amount: amount("1")})
				return err
			},
			field: "card",
		},
		{
			name: "pre-auth with a bank account",
			call: func(g *Gateway) error {
				_, err := g.PreAuthorize(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: checking(),
				})
				return err
			},
			field: "ach",
		},
		{
			name: "ach without routing number",
			call: func(g *Gateway) error {
				acct := checking()
				acct.RoutingNumber = ""
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: acct,
				})
				return err
			},
			instErr: "routing number",
		},
		{
			name: "stored card without reference",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: &models.StoredCard{},
				})
				return err
			},
			instErr: "Card Reference",
		},
		{
			name: "typed nil card",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: (*models.Card)(nil),
				})
				return err
			},
			instErr: "number",
		},
		{
			name: "typed nil stored card",
			call: func(g *Gateway) error {
				_, err := g.Authorize(context.Background(), &TransactionRequest{
					TransactionID: "O1", Instrument: (*models.StoredCard)(nil),
				})
				return err
			},
			instErr: "Card Reference",
		},
		{
			name: "typed nil bank account",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: (*models.BankAccount)(nil),
				})
				return err
			},
			instErr: "routing number",
		},
		{
			name: "typed nil stored bank account",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), &TransactionRequest{
					TransactionID: "O1", Amount: amount("1"), Instrument: (*models.StoredBankAccount)(nil),
				})
				return err
			},
			instErr: "Ach Reference",
		},
		{
			name: "nil request",
			call: func(g *Gateway) error {
				_, err := g.Purchase(context.Background(), nil)
				return err
			},
			field: "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
			logger := mocks.NewMockLogger()
			g := testGateway(t, client, WithLogger(logger))

			var err error
			require.NotPanics(t, func() { err = tt.call(g) })
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CategoryInvalidRequest, pkgerrors.CategoryOf(err))

			if tt.field != "" {
				var verr *pkgerrors.ValidationError
				require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
				assert.Equal(t, tt.field, verr.Field)
			}
			if tt.instErr != "" {
				var ierr *pkgerrors.InstrumentError
				require.True(t, errors.As(err, &ierr), "got %T: %v", err, err)
				assert.Equal(t, tt.instErr, ierr.Field)
			}
			assert.Empty(t, client.Calls, "no request may be sent")
		})
	}
}

func TestGateway_AuthorizeCardWithoutAmount(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	g := testGateway(t, client)

	resp, err := g.Authorize(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Instrument:    visa(),
	})
	require.NoError(t, err)
	assert.Equal(t, "card_auth", resp.Variant)

	root, fields := sentRoot(t, client)
	assert.Equal(t, "AUTH", root)
	assert.False(t, fields.Has("AMOUNT"))
	got, _ := fields.Get("HASH")
	assert.Equal(t, CardAuthHash(CardAuthHashInput{
		TerminalID: "T1", OrderID: "O1", Timestamp: testTimestamp,
		CardNumber: "4111111111111111", CardExpiry: "1226", CardType: "VISA", CardHolderName: "Bobby Tables",
	}, testSecret), got)
}

func TestGateway_AuthorizeACH(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, achAcceptedXML)
	g := testGateway(t, client)

	resp, err := g.Authorize(context.Background(), &TransactionRequest{
		TransactionID: "O2",
		Amount:        amount("12"),
		Instrument:    checking(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ach_auth", resp.Variant)
	assert.True(t, resp.Successful)

	root, fields := sentRoot(t, client)
	assert.Equal(t, "AUTHACH", root)
	got, _ := fields.Get("HASH")
	assert.Equal(t, ACHAuthHash(ACHAuthHashInput{
		TerminalID: "T1", OrderID: "O2", AccountNumber: "856667",
		AccountName: "Bobby Tables", AccountType: "CHECKING", RoutingNumber: "021000021",
	}, testSecret), got)
}

func TestGateway_PreAuthorize(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	g := testGateway(t, client)

	resp, err := g.PreAuthorize(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Amount:        amount("5.5"),
		Instrument:    visa(),
	})
	require.NoError(t, err)
	assert.Equal(t, "pre_auth", resp.Variant)

	root, fields := sentRoot(t, client)
	assert.Equal(t, "PREAUTH", root)
	got, _ := fields.Get("AMOUNT")
	assert.Equal(t, "5.50", got)
}

func TestGateway_StoredCard(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	g := testGateway(t, client)

	resp, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Amount:        amount("10"),
		Instrument:    &models.StoredCard{Reference: "2967531234567890", FirstName: "Bobby", LastName: "Tables"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Card, "stored cards are not echoed")

	_, fields := sentRoot(t, client)
	got, _ := fields.Get("CARDTYPE")
	assert.Equal(t, models.StoredCardType, got)
	got, _ = fields.Get("CARDNUMBER")
	assert.Equal(t, "2967531234567890", got)
}

func TestGateway_CardExpiryWithoutHolderName(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	g := testGateway(t, client)

	_, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1",
		Amount:        amount("10"),
		Instrument:    &models.Card{Number: "4111111111111111", ExpiryMonth: 12, ExpiryYear: 2026, CVV: "123"},
	})
	require.NoError(t, err)

	_, fields := sentRoot(t, client)
	got, ok := fields.Get("CARDEXPIRY")
	require.True(t, ok)
	assert.Equal(t, "1226", got)
	got, ok = fields.Get("CARDHOLDERNAME")
	require.True(t, ok)
	assert.Equal(t, "", got)
}

func TestGateway_LogsInstrumentType(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		instrument models.Instrument
		want       string
	}{
		{name: "card", response: cardApprovedXML, instrument: visa(), want: "VISA"},
		{name: "stored card", response: cardApprovedXML, instrument: &models.StoredCard{Reference: "2967531234567890"}, want: models.StoredCardType},
		{name: "bank account", response: achAcceptedXML, instrument: checking(), want: "CHECKING"},
		{name: "stored bank account", response: achAcceptedXML, instrument: &models.StoredBankAccount{Reference: "ACH-REF-1", CheckType: "S"}, want: models.StoredACHType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := mocks.NewMockLogger()
			g := testGateway(t, mocks.NewXMLResponder(http.StatusOK, tt.response), WithLogger(logger))

			_, err := g.Purchase(context.Background(), &TransactionRequest{
				TransactionID: "O1", Amount: amount("10"), Instrument: tt.instrument,
			})
			require.NoError(t, err)

			var sent *mocks.LogCall
			for i, call := range logger.InfoCalls {
				if call.Message == "Sending gateway transaction" {
					sent = &logger.InfoCalls[i]
				}
			}
			require.NotNil(t, sent)
			got, _ := sent.Field("instrument_type")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateway_CurrencyOverride(t *testing.T) {
	client := mocks.NewXMLResponder(http.StatusOK, cardApprovedXML)
	g := testGateway(t, client)

	_, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Currency: "EUR", Instrument: visa(),
	})
	require.NoError(t, err)

	_, fields := sentRoot(t, client)
	got, _ := fields.Get("CURRENCY")
	assert.Equal(t, "EUR", got)
}

func signedCardResponse(hash string) string {
	return fmt.Sprintf(`<PAYMENTRESPONSE>
  <UNIQUEREF>UR1</UNIQUEREF>
  <RESPONSECODE>A</RESPONSECODE>
  <RESPONSETEXT>APPROVAL</RESPONSETEXT>
  <APPROVALCODE>111111</APPROVALCODE>
  <DATETIME>2026-03-07T09:05:04</DATETIME>
  <HASH>%s</HASH>
</PAYMENTRESPONSE>`, hash)
}

func TestGateway_VerifyResponseHash(t *testing.T) {
	good := ResponseHash(ResponseHashInput{
		TerminalID:   "T1",
		UniqueRef:    "UR1",
		Currency:     "USD",
		Amount:       "10.00",
		DateTime:     "2026-03-07T09:05:04",
		ResponseCode: "A",
		ResponseText: "APPROVAL",
	}, testSecret)

	newGateway := func(body string) *Gateway {
		g, err := NewGateway(Config{
			TerminalID:         "T1",
			SharedSecret:       testSecret,
			Currency:           "USD",
			VerifyResponseHash: true,
		}, mocks.NewXMLResponder(http.StatusOK, body), WithClock(func() time.Time { return fixedTime }))
		require.NoError(t, err)
		return g
	}
	req := func() *TransactionRequest {
		return &TransactionRequest{TransactionID: "O1", Amount: amount("10"), Instrument: visa()}
	}

	t.Run("matching hash", func(t *testing.T) {
		resp, err := newGateway(signedCardResponse(strings.ToUpper(good))).Purchase(context.Background(), req())
		require.NoError(t, err)
		assert.True(t, resp.Successful)
	})

	t.Run("tampered hash", func(t *testing.T) {
		_, err := newGateway(signedCardResponse(strings.Repeat("0", 32))).Purchase(context.Background(), req())
		var herr *pkgerrors.HashMismatchError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, "O1", herr.OrderID)
		assert.Equal(t, good, herr.Expected)
	})

	t.Run("response text is hashed as received", func(t *testing.T) {
		padded := ResponseHash(ResponseHashInput{
			TerminalID:   "T1",
			UniqueRef:    "UR1",
			Currency:     "USD",
			Amount:       "10.00",
			DateTime:     "2026-03-07T09:05:04",
			ResponseCode: "A",
			ResponseText: " APPROVAL ",
		}, testSecret)
		body := strings.Replace(signedCardResponse(padded), "<RESPONSETEXT>APPROVAL<", "<RESPONSETEXT> APPROVAL <", 1)

		resp, err := newGateway(body).Purchase(context.Background(), req())
		require.NoError(t, err)
		assert.Equal(t, " APPROVAL ", resp.ResponseText)
	})
}

func TestGateway_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewGatewayMetrics(reg)

	g := testGateway(t, mocks.NewXMLResponder(http.StatusOK, cardApprovedXML), WithMetrics(metrics))
	_, err := g.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Instrument: visa(),
	})
	require.NoError(t, err)

	_, err = g.Purchase(context.Background(), &TransactionRequest{TransactionID: "O1", Instrument: visa()})
	require.Error(t, err)

	gerr := testGateway(t, mocks.NewXMLResponder(http.StatusOK, duplicateOrderXML), WithMetrics(metrics))
	_, err = gerr.Purchase(context.Background(), &TransactionRequest{
		TransactionID: "O1", Amount: amount("10"), Instrument: visa(),
	})
	require.Error(t, err)

	expected := `
# HELP nuvei_transactions_total Total number of XML gateway transactions by outcome
# TYPE nuvei_transactions_total counter
nuvei_transactions_total{outcome="approved",payment_method="card",variant="card_payment"} 1
nuvei_transactions_total{outcome="gateway_error",payment_method="card",variant="card_payment"} 1
nuvei_transactions_total{outcome="validation_error",payment_method="card",variant="card_payment"} 1
# HELP nuvei_response_codes_total Gateway RESPONSECODE and ERRORCODE values seen
# TYPE nuvei_response_codes_total counter
nuvei_response_codes_total{code="A",payment_method="card"} 1
nuvei_response_codes_total{code="E10",payment_method="card"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"nuvei_transactions_total", "nuvei_response_codes_total"))
}

func TestGateway_NewOrderID(t *testing.T) {
	g := testGateway(t, mocks.NewMockHTTPClient(nil), WithOrderIDGenerator(func() string { return "fixed" }))
	assert.Equal(t, "fixed", g.NewOrderID())

	g = testGateway(t, mocks.NewMockHTTPClient(nil))
	assert.Len(t, g.NewOrderID(), OrderIDLength)
	assert.Equal(t, "https://testpayments.nuvei.com/merchant/xmlpayment", g.Endpoint())
}
