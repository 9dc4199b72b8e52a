// Package metrics holds the Prometheus collectors for engagement workflow activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "engagement"

// Metrics owns a private registry so tests and multiple containers never collide
type Metrics struct {
	registry *prometheus.Registry

	transitionsTotal      *prometheus.CounterVec
	documentsRendered     *prometheus.CounterVec
	unresolvedTokensTotal *prometheus.CounterVec
	overdueTotal          prometheus.Counter
	notificationsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of workflow transition attempts",
			},
			[]string{"action", "outcome"},
		),
		documentsRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_rendered_total",
				Help:      "Total number of documents rendered from templates",
			},
			[]string{"template"},
		),
		unresolvedTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unresolved_tokens_total",
				Help:      "Total number of template placeholders that had no merge value",
			},
			[]string{"template"},
		),
		overdueTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdue_total",
				Help:      "Total number of engagements reported overdue",
			},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of chat notifications by status",
			},
			[]string{"status"}, // status: sent, failed
		),
	}

	m.registry.MustRegister(
		m.transitionsTotal,
		m.documentsRendered,
		m.unresolvedTokensTotal,
		m.overdueTotal,
		m.notificationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordTransition counts one transition attempt
func (m *Metrics) RecordTransition(action, outcome string) {
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordRender counts one rendered document and its unresolved placeholders
func (m *Metrics) RecordRender(template string, unresolved int) {
	m.documentsRendered.WithLabelValues(template).Inc()
	if unresolved > 0 {
		m.unresolvedTokensTotal.WithLabelValues(template).Add(float64(unresolved))
	}
}

// RecordOverdue counts one engagement reported overdue
func (m *Metrics) RecordOverdue() {
	m.overdueTotal.Inc()
}

// RecordNotification counts a notification delivery attempt
func (m *Metrics) RecordNotification(sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(status).Inc()
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: false,
	})
}
