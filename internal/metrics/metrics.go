package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	checkoutSessions    *prometheus.CounterVec
	webhookEvents       *prometheus.CounterVec
	stockLineItems      *prometheus.CounterVec
	fulfillmentAttempts *prometheus.CounterVec
	stepDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session creation attempts by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Payment webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
		stockLineItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_line_items_total",
			Help: "Cart lines processed by stock reconciliation, by outcome.",
		}, []string{"outcome"}),
		fulfillmentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_attempts_total",
			Help: "Fulfillment processing attempts by outcome.",
		}, []string{"outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fulfillment_step_duration_seconds",
			Help:    "Duration of individual fulfillment steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
	}
	reg.MustRegister(m.checkoutSessions, m.webhookEvents, m.stockLineItems, m.fulfillmentAttempts, m.stepDuration)
	return m
}

func (m *Metrics) CheckoutSession(outcome string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) StockLine(outcome string) {
	if m == nil {
		return
	}
	m.stockLineItems.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FulfillmentAttempt(outcome string) {
	if m == nil {
		return
	}
	m.fulfillmentAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}
