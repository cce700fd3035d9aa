package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the gateway's prometheus collectors on a private
// registry, so concurrent gateway instances (tests) never collide on
// registration.
type metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	errors         *prometheus.CounterVec
	streamMessages *prometheus.CounterVec
	tokens         *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmux",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Dispatch requests by endpoint and provider.",
	}, []string{"endpoint", "provider"})

	m.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmux",
		Subsystem: "gateway",
		Name:      "errors_total",
		Help:      "Failed dispatch requests by endpoint and provider.",
	}, []string{"endpoint", "provider"})

	m.streamMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmux",
		Subsystem: "gateway",
		Name:      "stream_messages_total",
		Help:      "Stream messages delivered by kind.",
	}, []string{"kind"})

	m.tokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmux",
		Subsystem: "gateway",
		Name:      "tokens_total",
		Help:      "Token usage by provider and direction.",
	}, []string{"provider", "direction"})

	m.registry.MustRegister(m.requests, m.errors, m.streamMessages, m.tokens)
	return m
}
