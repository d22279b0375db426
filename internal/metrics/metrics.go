// Package metrics holds the Prometheus collectors for the sync layer and the
// RPC surface. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wishlist"

// Stream kinds.
const (
	StreamProfile  = "profile"
	StreamWishlist = "wishlist"
)

// Metrics records sync and RPC activity.
type Metrics struct {
	gatherer prometheus.Gatherer

	validationFailures *prometheus.CounterVec
	snapshots          *prometheus.CounterVec
	subscriptions      *prometheus.GaugeVec
	mutations          *prometheus.CounterVec
	rpcDuration        *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		gatherer: reg,
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "validation_failures_total",
				Help:      "Documents dropped because they failed schema validation.",
			},
			[]string{"record"},
		),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "snapshots_published_total",
				Help:      "Snapshots published to subscribers.",
			},
			[]string{"stream"},
		),
		subscriptions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "active_subscriptions",
				Help:      "Current number of live subscriptions.",
			},
			[]string{"stream"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "mutations_total",
				Help:      "Wishlist mutations by operation and result.",
			},
			[]string{"op", "result"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "duration_seconds",
				Help:      "Duration of RPCs. Streaming RPCs are measured until the stream ends.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"procedure", "code"},
		),
	}

	reg.MustRegister(
		m.validationFailures,
		m.snapshots,
		m.subscriptions,
		m.mutations,
		m.rpcDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ValidationFailed counts a dropped document.
func (m *Metrics) ValidationFailed(record string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(record).Inc()
}

// SnapshotPublished counts a snapshot handed to a subscriber.
func (m *Metrics) SnapshotPublished(stream string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(stream).Inc()
}

// SubscriptionOpened increments the active subscription gauge. The returned
// func decrements it and must be called exactly once.
func (m *Metrics) SubscriptionOpened(stream string) func() {
	if m == nil {
		return func() {}
	}
	g := m.subscriptions.WithLabelValues(stream)
	g.Inc()
	return g.Dec
}

// Mutation counts a create, update or delete by outcome.
func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

// ObserveRPC records how long an RPC took and the code it finished with.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}
