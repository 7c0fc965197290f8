package nuvei

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/ports"
	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
	"github.com/kevin07696/nuvei-gateway/pkg/observability"
	"github.com/kevin07696/nuvei-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// Config holds terminal credentials and protocol switches
type Config struct {
	TerminalID   string
	SharedSecret string
	// Currency is used when a TransactionRequest leaves it empty
	Currency      string
	MultiCurrency bool
	// VerifyResponseHash checks the HASH on payment responses before returning them
	VerifyResponseHash bool
	Transport          TransportConfig
}

// Gateway runs one transaction per call: validate, build, sign, serialize,
// send, parse. It holds no per-transaction state and is safe for concurrent use.
type Gateway struct {
	config    Config
	transport *Transport
	logger    ports.Logger
	metrics   *observability.GatewayMetrics
	now       func() time.Time
	newID     func() string
}

// Option customises a Gateway
type Option func(*Gateway)

// WithLogger sets the logger
func WithLogger(logger ports.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.GatewayMetrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock replaces the clock used for DATETIME
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithOrderIDGenerator replaces the order ID generator used by NewOrderID
func WithOrderIDGenerator(gen func() string) Option {
	return func(g *Gateway) { g.newID = gen }
}

// NewGateway creates a gateway posting through httpClient
func NewGateway(cfg Config, httpClient ports.HTTPClient, opts ...Option) (*Gateway, error) {
	if cfg.TerminalID == "" {
		return nil, fmt.Errorf("terminal ID is required")
	}
	if cfg.SharedSecret == "" {
		return nil, fmt.Errorf("shared secret is required")
	}

	g := &Gateway{
		config: cfg,
		now:    timeutil.Now,
		newID:  GenerateOrderID,
	}
	for _, opt := range opts {
		opt(g)
	}

	transport, err := NewTransport(cfg.Transport, httpClient, g.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	g.transport = transport

	if g.logger != nil {
		g.logger.Info("Nuvei gateway initialized",
			ports.String("terminal_id", cfg.TerminalID),
			ports.String("endpoint", transport.Endpoint()),
			ports.Bool("multicurrency", cfg.MultiCurrency),
		)
	}
	return g, nil
}

// NewOrderID returns a fresh merchant order ID
func (g *Gateway) NewOrderID() string {
	return g.newID()
}

// Endpoint returns the URL transactions are posted to
func (g *Gateway) Endpoint() string {
	return g.transport.Endpoint()
}

// TransactionRequest is the caller's view of a transaction
type TransactionRequest struct {
	// TransactionID is the merchant order ID, unique per transaction
	TransactionID string
	Amount        *decimal.Decimal
	Currency      string
	Instrument    models.Instrument
	Options       Options
}

// Purchase charges a card or debits a bank account
func (g *Gateway) Purchase(ctx context.Context, req *TransactionRequest) (*Response, error) {
	if req == nil {
		return nil, pkgerrors.NewRequiredError("amount")
	}
	variant := VariantCardPayment
	if req.Instrument != nil && req.Instrument.PaymentMethod() == models.PaymentMethodACH {
		variant = VariantACHPayment
	}
	return g.execute(ctx, variant, req)
}

// Authorize checks a card without an amount, or authorizes an ACH debit
func (g *Gateway) Authorize(ctx context.Context, req *TransactionRequest) (*Response, error) {
	if req == nil {
		return nil, pkgerrors.NewRequiredError("transactionId")
	}
	variant := VariantCardAuth
	if req.Instrument != nil && req.Instrument.PaymentMethod() == models.PaymentMethodACH {
		variant = VariantACHAuth
	}
	return g.execute(ctx, variant, req)
}

// PreAuthorize reserves an amount on a card
func (g *Gateway) PreAuthorize(ctx context.Context, req *TransactionRequest) (*Response, error) {
	if req == nil {
		return nil, pkgerrors.NewRequiredError("amount")
	}
	return g.execute(ctx, VariantPreAuth, req)
}

func (g *Gateway) execute(ctx context.Context, variant Variant, req *TransactionRequest) (*Response, error) {
	start := time.Now()
	method := string(variant.PaymentMethod())

	params, err := g.params(variant, req)
	if err != nil {
		g.record(variant, observability.OutcomeRejectedInput, start)
		if g.logger != nil {
			g.logger.Warn("Gateway transaction rejected",
				ports.String("variant", variant.String()),
				ports.String("category", string(pkgerrors.CategoryOf(err))),
				ports.Err(err),
			)
		}
		return nil, err
	}

	request, err := Build(variant, params, g.config.SharedSecret)
	if err != nil {
		return nil, err
	}
	payload, err := request.XML()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", variant, err)
	}

	if g.logger != nil {
		g.logger.Info("Sending gateway transaction",
			ports.String("variant", variant.String()),
			ports.String("order_id", params.OrderID),
			ports.String("amount", params.Amount),
			ports.String("currency", params.Currency),
			ports.String("instrument_type", instrumentType(variant, params)),
		)
	}

	body, err := g.transport.Send(ctx, payload)
	if err != nil {
		g.record(variant, observability.OutcomeNetworkError, start)
		return nil, err
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		g.recordFailure(variant, method, params.OrderID, err, start)
		return nil, err
	}

	if g.config.VerifyResponseHash {
		if err := g.verify(params, parsed); err != nil {
			g.record(variant, observability.OutcomeHashMismatch, start)
			if g.logger != nil {
				g.logger.Error("Gateway response hash mismatch",
					ports.String("order_id", params.OrderID),
				)
			}
			return nil, err
		}
	}

	resp := newResponse(variant, params.OrderID, req.Instrument, parsed)

	outcome := observability.OutcomeDeclined
	if resp.Successful {
		outcome = observability.OutcomeApproved
	}
	g.record(variant, outcome, start)
	g.metrics.RecordResponseCode(method, resp.ResponseCode)

	if g.logger != nil {
		g.logger.Info("Gateway transaction completed",
			ports.String("variant", variant.String()),
			ports.String("order_id", params.OrderID),
			ports.String("response_code", resp.ResponseCode),
			ports.String("response_text", resp.ResponseText),
			ports.Bool("successful", resp.Successful),
			ports.Duration("elapsed", time.Since(start)),
		)
	}
	return resp, nil
}

// params validates the request for the variant and projects it onto Params.
// Nothing here touches the network.
func (g *Gateway) params(variant Variant, req *TransactionRequest) (Params, error) {
	instrumentKey := instrumentParam(variant, req.Instrument)

	if variant.HasAmount() && req.Amount == nil {
		return Params{}, pkgerrors.NewRequiredError("amount")
	}
	if req.TransactionID == "" {
		return Params{}, pkgerrors.NewRequiredError("transactionId")
	}
	if len(req.TransactionID) > OrderIDLength {
		return Params{}, pkgerrors.NewValidationError("transactionId",
			fmt.Sprintf("must be at most %d characters", OrderIDLength))
	}
	if req.Instrument == nil {
		return Params{}, pkgerrors.NewRequiredError(instrumentKey)
	}

	p := Params{
		TerminalID:    g.config.TerminalID,
		OrderID:       req.TransactionID,
		Currency:      req.Currency,
		Timestamp:     g.now(),
		MultiCurrency: g.config.MultiCurrency,
		Options:       req.Options,
	}
	if p.Currency == "" {
		p.Currency = g.config.Currency
	}
	if variant.HasAmount() {
		p.Amount = FormatAmount(*req.Amount)
	}

	switch variant.PaymentMethod() {
	case models.PaymentMethodACH:
		src, ok := req.Instrument.(models.BankSource)
		if !ok {
			return Params{}, pkgerrors.NewValidationError(instrumentKey, "instrument is not a bank account")
		}
		if err := src.Validate(); err != nil {
			return Params{}, err
		}
		p.Bank = src.BankDetails()
	default:
		src, ok := req.Instrument.(models.CardSource)
		if !ok {
			return Params{}, pkgerrors.NewValidationError(instrumentKey, "instrument is not a card")
		}
		if err := src.Validate(); err != nil {
			return Params{}, err
		}
		p.Card = src.CardDetails()
	}
	return p, nil
}

// instrumentParam names the instrument parameter in validation errors
func instrumentParam(variant Variant, inst models.Instrument) string {
	switch inst.(type) {
	case *models.StoredCard:
		return "storedCard"
	case *models.StoredBankAccount:
		return "storedAch"
	case *models.BankAccount:
		return "ach"
	case *models.Card:
		return "card"
	}
	if variant.PaymentMethod() == models.PaymentMethodACH {
		return "ach"
	}
	return "card"
}

// instrumentType is the card type for cards, SECUREACH for stored bank
// accounts and the account type otherwise.
func instrumentType(variant Variant, p Params) string {
	if variant.PaymentMethod() != models.PaymentMethodACH {
		return p.Card.Type
	}
	if p.Bank.Stored {
		return models.StoredACHType
	}
	return string(p.Bank.AccountType)
}

func (g *Gateway) verify(p Params, parsed *ParsedResponse) error {
	received := deref(parsed.Hash)
	in := ResponseHashInput{
		TerminalID:    p.TerminalID,
		UniqueRef:     deref(parsed.UniqueRef),
		Currency:      p.Currency,
		Amount:        p.Amount,
		DateTime:      deref(parsed.DateTime),
		ResponseCode:  deref(parsed.ResponseCode),
		ResponseText:  deref(parsed.ResponseText),
		MultiCurrency: p.MultiCurrency,
	}
	if VerifyResponseHash(in, g.config.SharedSecret, received) {
		return nil
	}
	return &pkgerrors.HashMismatchError{
		OrderID:  p.OrderID,
		Expected: ResponseHash(in, g.config.SharedSecret),
		Actual:   received,
	}
}

func (g *Gateway) recordFailure(variant Variant, method, orderID string, err error, start time.Time) {
	var gerr *pkgerrors.GatewayError
	if errors.As(err, &gerr) {
		g.record(variant, observability.OutcomeGatewayError, start)
		g.metrics.RecordResponseCode(method, gerr.Code)
		if g.logger != nil {
			g.logger.Warn("Gateway returned an error",
				ports.String("order_id", orderID),
				ports.String("error_code", gerr.Code),
				ports.String("error_string", gerr.Message),
				ports.String("category", string(pkgerrors.CategoryOf(err))),
			)
		}
		return
	}
	g.record(variant, observability.OutcomeInvalid, start)
	if g.logger != nil {
		g.logger.Error("Gateway response could not be parsed",
			ports.String("order_id", orderID),
			ports.String("category", string(pkgerrors.CategoryOf(err))),
			ports.Err(err),
		)
	}
}

func (g *Gateway) record(variant Variant, outcome string, start time.Time) {
	g.metrics.RecordTransaction(variant.String(), string(variant.PaymentMethod()), outcome, time.Since(start))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
