// Package metrics exposes checkout counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Session outcomes.
const (
	SessionCreated = "created"
	SessionReused  = "reused"
	SessionFailed  = "failed"
)

// Signature failure kinds.
const (
	SignatureCallback = "callback"
	SignatureWebhook  = "webhook"
)

// Metrics holds the checkout collectors.
type Metrics struct {
	ordersCreated     prometheus.Counter
	paymentSessions   *prometheus.CounterVec
	paymentsConfirmed *prometheus.CounterVec
	signatureFailures *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
	gatewayLatency    prometheus.Histogram
	gatherer          prometheus.Gatherer
}

// New registers the checkout collectors on a fresh registry that also
// carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ordersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created from a cart.",
		}),
		paymentSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_sessions_total",
			Help:      "Payment session requests by outcome.",
		}, []string{"outcome"}),
		paymentsConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_confirmed_total",
			Help:      "Orders moved to paid, by the path that confirmed them.",
		}, []string{"source"}),
		signatureFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_failures_total",
			Help:      "Rejected payment signatures.",
		}, []string{"kind"}),
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Verified webhook events by type and outcome.",
		}, []string{"event", "outcome"}),
		gatewayLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of gateway order creation calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: g,
	}
}

func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

func (m *Metrics) PaymentSession(outcome string) {
	m.paymentSessions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PaymentConfirmed(source string) {
	m.paymentsConfirmed.WithLabelValues(source).Inc()
}

func (m *Metrics) SignatureFailure(kind string) {
	m.signatureFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) WebhookEvent(event, outcome string) {
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveGateway(d time.Duration) {
	m.gatewayLatency.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
