package nuvei

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/ports"
	pkgerrors "github.com/kevin07696/nuvei-gateway/pkg/errors"
	"golang.org/x/time/rate"
)

// Processor is a white-label host running the same XML protocol
type Processor string

const (
	ProcessorNuvei            Processor = "nuvei"
	ProcessorWorldnet         Processor = "worldnet"
	ProcessorAnywhereCommerce Processor = "anywherecommerce"
)

// EndpointPath is fixed across processors and environments
const EndpointPath = "/merchant/xmlpayment"

// ContentType of every request
const ContentType = "application/xml"

var processorHosts = map[Processor]string{
	ProcessorNuvei:            "nuvei.com",
	ProcessorWorldnet:         "worldnettps.com",
	ProcessorAnywhereCommerce: "anywherecommerce.com",
}

// Endpoint returns the XML payment URL for a processor and mode
func Endpoint(p Processor, testMode bool) (string, error) {
	host, ok := processorHosts[p]
	if !ok {
		return "", fmt.Errorf("unknown processor: %q", p)
	}
	sub := "payments"
	if testMode {
		sub = "testpayments"
	}
	return fmt.Sprintf("https://%s.%s%s", sub, host, EndpointPath), nil
}

// TransportConfig selects the endpoint and optional outbound rate limit
type TransportConfig struct {
	Processor Processor
	TestMode  bool
	// BaseURL overrides the processor host, e.g. for a sandbox or httptest server.
	// EndpointPath is appended.
	BaseURL string
	// RateLimit is requests per second; zero disables limiting
	RateLimit float64
	RateBurst int
}

// Transport posts serialized requests and returns the raw body.
// It performs exactly one HTTP call per Send and never retries.
type Transport struct {
	endpoint   string
	httpClient ports.HTTPClient
	limiter    *rate.Limiter
	logger     ports.Logger
}

// NewTransport creates a transport. A nil logger disables logging.
func NewTransport(cfg TransportConfig, httpClient ports.HTTPClient, logger ports.Logger) (*Transport, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}

	endpoint := ""
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + EndpointPath
	} else {
		processor := cfg.Processor
		if processor == "" {
			processor = ProcessorNuvei
		}
		var err error
		endpoint, err = Endpoint(processor, cfg.TestMode)
		if err != nil {
			return nil, err
		}
	}

	t := &Transport{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return t, nil
}

// Endpoint returns the URL requests are posted to
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Send posts payload and returns the response body unmodified.
// Network failures are returned as a network PaymentError wrapping the cause.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.NewNetworkError("rate limiter wait aborted", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", ContentType)

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("Gateway request failed",
				ports.String("endpoint", t.endpoint),
				ports.Err(err),
			)
		}
		return nil, pkgerrors.NewNetworkError("Failed to connect to payment gateway", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("Failed to read payment gateway response", err)
	}

	if t.logger != nil {
		t.logger.Debug("Gateway response received",
			ports.String("endpoint", t.endpoint),
			ports.Int("status", httpResp.StatusCode),
			ports.Int("bytes", len(body)),
			ports.Duration("elapsed", time.Since(start)),
		)
	}

	// The gateway reports protocol errors in the body, so any body is handed
	// to the parser. Only an empty server error has nothing to classify.
	if httpResp.StatusCode >= 500 && len(bytes.TrimSpace(body)) == 0 {
		pe := pkgerrors.NewPaymentError("GATEWAY_ERROR", "Payment gateway error", pkgerrors.CategorySystemError, true)
		pe.Details["status"] = httpResp.StatusCode
		return nil, pe
	}

	return body, nil
}
