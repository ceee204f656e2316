package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout attempts and simulated gateway outcomes.
type CheckoutMetrics struct {
	attempts        *prometheus.CounterVec
	gatewayOutcomes *prometheus.CounterVec
	gatewayLatency  prometheus.Histogram
	orderValue      prometheus.Histogram
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts partitioned by result.",
	}, []string{"result"})
	gatewayOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_outcomes_total",
		Help: "Simulated gateway outcomes partitioned by status.",
	}, []string{"status"})
	gatewayLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of simulated gateway calls.",
		Buckets: prometheus.DefBuckets,
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_final_amount",
		Help:    "Distribution of order final amounts.",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	})
	reg.MustRegister(attempts, gatewayOutcomes, gatewayLatency, orderValue)
	return &CheckoutMetrics{
		attempts:        attempts,
		gatewayOutcomes: gatewayOutcomes,
		gatewayLatency:  gatewayLatency,
		orderValue:      orderValue,
	}
}

// IncAttempt increments the checkout attempts counter for the given result.
func (c *CheckoutMetrics) IncAttempt(result string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncGatewayOutcome increments the gateway outcome counter for the given status.
func (c *CheckoutMetrics) IncGatewayOutcome(status string) {
	if c == nil || c.gatewayOutcomes == nil {
		return
	}
	c.gatewayOutcomes.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveGatewayLatency records the duration of a gateway call.
func (c *CheckoutMetrics) ObserveGatewayLatency(d time.Duration) {
	if c == nil || c.gatewayLatency == nil {
		return
	}
	c.gatewayLatency.Observe(d.Seconds())
}

// ObserveOrderValue records the final amount of a created order.
func (c *CheckoutMetrics) ObserveOrderValue(amount float64) {
	if c == nil || c.orderValue == nil {
		return
	}
	c.orderValue.Observe(amount)
}
