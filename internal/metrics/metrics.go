// Package metrics exposes the shop's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors recorded by services and the dispatcher.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	redemptions   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	payments      prometheus.Counter
	queueDepth    prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diamond_shop",
			Name:      "promo_redemptions_total",
			Help:      "Promo code redemption attempts by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diamond_shop",
			Name:      "payment_transitions_total",
			Help:      "Payment status transitions by target status and whether the record changed.",
		}, []string{"status", "changed"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diamond_shop",
			Name:      "notifications_total",
			Help:      "Payment notifications by outcome.",
		}, []string{"outcome"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diamond_shop",
			Name:      "payments_created_total",
			Help:      "Payment records created.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diamond_shop",
			Name:      "notification_queue_depth",
			Help:      "Notifications waiting for a worker.",
		}),
	}
	reg.MustRegister(m.redemptions, m.transitions, m.notifications, m.payments, m.queueDepth)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PromoRedemption records a redemption attempt. result is "ok" or a
// rejection reason.
func (m *Metrics) PromoRedemption(result string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(result).Inc()
}

// PaymentCreated records a new payment record.
func (m *Metrics) PaymentCreated() {
	if m == nil {
		return
	}
	m.payments.Inc()
}

// PaymentTransition records a transition request.
func (m *Metrics) PaymentTransition(status string, changed bool) {
	if m == nil {
		return
	}
	c := "false"
	if changed {
		c = "true"
	}
	m.transitions.WithLabelValues(status, c).Inc()
}

// Notification records a notification outcome: sent, failed, dropped or
// unresolved.
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// SetQueueDepth records the current notification backlog.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
