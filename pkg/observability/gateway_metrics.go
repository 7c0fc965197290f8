package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transaction outcomes recorded by the gateway
const (
	OutcomeApproved      = "approved"
	OutcomeDeclined      = "declined"
	OutcomeGatewayError  = "gateway_error"
	OutcomeInvalid       = "invalid_response"
	OutcomeNetworkError  = "network_error"
	OutcomeHashMismatch  = "hash_mismatch"
	OutcomeRejectedInput = "validation_error"
)

// GatewayMetrics tracks XML gateway transactions
type GatewayMetrics struct {
	transactionsTotal *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	responseCodes     *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway collectors on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	factory := promauto.With(reg)
	return &GatewayMetrics{
		transactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nuvei_transactions_total",
			Help: "Total number of XML gateway transactions by outcome",
		}, []string{
			"variant",        // card_payment, card_auth, ach_payment, ach_auth, pre_auth
			"payment_method", // card, ach
			"outcome",        // approved, declined, gateway_error, ...
		}),

		// Buckets: 100ms to 30s (typical gateway round trips)
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nuvei_request_duration_seconds",
			Help:    "Gateway round trip time including build and parse",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"variant"}),

		responseCodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nuvei_response_codes_total",
			Help: "Gateway RESPONSECODE and ERRORCODE values seen",
		}, []string{"payment_method", "code"}),
	}
}

// RecordTransaction records one completed or failed transaction
func (m *GatewayMetrics) RecordTransaction(variant, paymentMethod, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(variant, paymentMethod, outcome).Inc()
	m.duration.WithLabelValues(variant).Observe(elapsed.Seconds())
}

// RecordResponseCode counts a gateway response or error code
func (m *GatewayMetrics) RecordResponseCode(paymentMethod, code string) {
	if m == nil {
		return
	}
	m.responseCodes.WithLabelValues(paymentMethod, code).Inc()
}
