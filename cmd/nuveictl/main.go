package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/nuvei"
	"github.com/kevin07696/nuvei-gateway/internal/adapters/secrets"
	"github.com/kevin07696/nuvei-gateway/internal/config"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
	pkghttp "github.com/kevin07696/nuvei-gateway/pkg/http"
	"github.com/kevin07696/nuvei-gateway/pkg/logging"
	"github.com/kevin07696/nuvei-gateway/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// txFlags carries everything a transaction action reads from the command line
type txFlags struct {
	orderID     string
	amount      string
	currency    string
	description string
	ipAddress   string
	mailOrder   bool

	firstName string
	lastName  string
	email     string
	address1  string
	postcode  string
	country   string
	phone     string

	cardNumber string
	expiry     string
	cvv        string
	trackData  string
	cardRef    string

	accountNumber string
	routingNumber string
	checkType     string
	secCode       string
	achRef        string
}

func main() {
	var (
		envFile      = flag.String("env", ".env", "Optional env file")
		action       = flag.String("action", "", "Action to perform: purchase, authorize, preauth, order-id, verify-hash")
		promptSecret = flag.Bool("prompt-secret", false, "Read the shared secret from the terminal")
		metricsAddr  = flag.String("metrics-addr", "", "Serve /metrics on this address until interrupted")
		responseFile = flag.String("response", "", "Gateway response XML file (verify-hash)")
		tx           txFlags
	)
	flag.StringVar(&tx.orderID, "order-id", "", "Merchant order ID (generated when empty)")
	flag.StringVar(&tx.amount, "amount", "", "Amount, e.g. 10.00")
	flag.StringVar(&tx.currency, "currency", "", "Currency (config default when empty)")
	flag.StringVar(&tx.description, "description", "", "Transaction description")
	flag.StringVar(&tx.ipAddress, "ip", "", "Customer IP address")
	flag.BoolVar(&tx.mailOrder, "mail-order", false, "Mail order / telephone order terminal")
	flag.StringVar(&tx.firstName, "first-name", "", "Cardholder or account holder first name")
	flag.StringVar(&tx.lastName, "last-name", "", "Cardholder or account holder last name")
	flag.StringVar(&tx.email, "email", "", "Customer email")
	flag.StringVar(&tx.address1, "address", "", "Billing address line 1")
	flag.StringVar(&tx.postcode, "postcode", "", "Billing postcode")
	flag.StringVar(&tx.country, "country", "", "Billing country")
	flag.StringVar(&tx.phone, "phone", "", "Customer phone")
	flag.StringVar(&tx.cardNumber, "card", "", "Card number")
	flag.StringVar(&tx.expiry, "expiry", "", "Card expiry MMYY")
	flag.StringVar(&tx.cvv, "cvv", "", "Card CVV")
	flag.StringVar(&tx.trackData, "track", "", "Swiped track data")
	flag.StringVar(&tx.cardRef, "card-ref", "", "Stored card reference")
	flag.StringVar(&tx.accountNumber, "account", "", "Bank account number")
	flag.StringVar(&tx.routingNumber, "routing", "", "Bank routing number")
	flag.StringVar(&tx.checkType, "check-type", "C", "ACH check type: C, S, CHECKING, SAVINGS")
	flag.StringVar(&tx.secCode, "sec-code", "", "ACH SEC code (WEB when empty)")
	flag.StringVar(&tx.achRef, "ach-ref", "", "Stored ACH reference")
	flag.Parse()

	if *action == "" {
		fmt.Println("Usage: nuveictl -action=<action> [options]")
		fmt.Println("Actions:")
		fmt.Println("  purchase    - Charge a card or debit a bank account")
		fmt.Println("  authorize   - Verify a card, or authorize an ACH debit")
		fmt.Println("  preauth     - Reserve an amount on a card")
		fmt.Println("  order-id    - Print a fresh order ID")
		fmt.Println("  verify-hash - Check the HASH of a saved gateway response")
		os.Exit(1)
	}

	if *action == "order-id" {
		fmt.Println(nuvei.GenerateOrderID())
		return
	}

	if *promptSecret {
		secret, err := readSecret()
		if err != nil {
			log.Fatal("Failed to read shared secret:", err)
		}
		os.Setenv("NUVEI_SECRET_SOURCE", string(secrets.SourceEnv))
		os.Setenv("NUVEI_SHARED_SECRET", secret)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sharedSecret, err := secrets.ResolveSharedSecret(ctx, cfg.Secret.SecretsConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to resolve shared secret", zap.Error(err), zap.String("source", cfg.Secret.Source))
	}

	if *action == "verify-hash" {
		if err := verifyHash(cfg, sharedSecret, *responseFile, tx); err != nil {
			logger.Fatal("Hash verification failed", zap.Error(err))
		}
		return
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewGatewayMetrics(registry)

	httpClient := pkghttp.NewHTTPClient(pkghttp.GatewayPoolConfig(), cfg.Nuvei.RequestTimeout())
	gateway, err := nuvei.NewGateway(cfg.Nuvei.GatewayConfig(sharedSecret), httpClient,
		nuvei.WithLogger(logging.NewZapLogger(logger)),
		nuvei.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("Failed to create gateway", zap.Error(err))
	}

	req, err := buildRequest(gateway, tx)
	if err != nil {
		logger.Fatal("Invalid transaction flags", zap.Error(err))
	}

	var resp *nuvei.Response
	switch *action {
	case "purchase":
		resp, err = gateway.Purchase(ctx, req)
	case "authorize":
		resp, err = gateway.Authorize(ctx, req)
	case "preauth":
		resp, err = gateway.PreAuthorize(ctx, req)
	default:
		fmt.Printf("Unknown action: %s\n", *action)
		os.Exit(1)
	}

	exitCode := 0
	if err != nil {
		logger.Error("Transaction failed",
			zap.String("order_id", req.TransactionID),
			zap.String("category", string(pkgerrors.CategoryOf(err))),
			zap.Error(err),
		)
		exitCode = 2
	} else {
		printJSON(resp)
		if !resp.Successful {
			exitCode = 3
		}
	}

	if *metricsAddr != "" {
		server := observability.StartMetricsServer(*metricsAddr, registry, logger)
		<-ctx.Done()
		if err := observability.ShutdownMetricsServer(server); err != nil {
			logger.Warn("Metrics server shutdown", zap.Error(err))
		}
	}

	if exitCode != 0 {
		logger.Sync()
		os.Exit(exitCode)
	}
}

func readSecret() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Shared secret: ")
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func buildRequest(gateway *nuvei.Gateway, tx txFlags) (*nuvei.TransactionRequest, error) {
	instrument, err := tx.instrument()
	if err != nil {
		return nil, err
	}

	req := &nuvei.TransactionRequest{
		TransactionID: tx.orderID,
		Currency:      tx.currency,
		Instrument:    instrument,
		Options:       tx.options(),
	}
	if req.TransactionID == "" {
		req.TransactionID = gateway.NewOrderID()
	}
	if tx.amount != "" {
		amount, err := decimal.NewFromString(tx.amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", tx.amount, err)
		}
		req.Amount = &amount
	}
	return req, nil
}

type hashReport struct {
	OrderRef string `json:"transaction_reference"`
	Valid    bool   `json:"valid"`
	Expected string `json:"expected"`
	Received string `json:"received"`
}

func verifyHash(cfg *config.Config, sharedSecret, path string, tx txFlags) error {
	if path == "" {
		return errors.New("-response is required")
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	parsed, err := nuvei.ParseResponse(body)
	if err != nil {
		return err
	}

	amount := tx.amount
	if amount != "" {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		amount = nuvei.FormatAmount(d)
	}
	currency := tx.currency
	if currency == "" {
		currency = cfg.Nuvei.Currency
	}

	in := nuvei.ResponseHashInput{
		TerminalID:    cfg.Nuvei.TerminalID,
		UniqueRef:     value(parsed.UniqueRef),
		Currency:      currency,
		Amount:        amount,
		DateTime:      value(parsed.DateTime),
		ResponseCode:  value(parsed.ResponseCode),
		ResponseText:  value(parsed.ResponseText),
		MultiCurrency: cfg.Nuvei.MultiCurrency,
	}
	report := hashReport{
		OrderRef: in.UniqueRef,
		Received: value(parsed.Hash),
		Expected: nuvei.ResponseHash(in, sharedSecret),
	}
	report.Valid = nuvei.VerifyResponseHash(in, sharedSecret, report.Received)
	printJSON(report)

	if !report.Valid {
		return errors.New("response hash mismatch")
	}
	return nil
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Failed to encode output: %v", err)
	}
}

