package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "broker"

// Outcome labels for finished exchanges.
const (
	OutcomeCompleted        = "completed"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeQuotaExhausted   = "quota_exhausted"
	OutcomeProviderInactive = "provider_inactive"
	OutcomeRejected         = "rejected"
	OutcomeTimeout          = "timeout"
	OutcomeCancelled        = "cancelled"
)

// BrokerMetrics groups the collectors of the prompt broker. A nil
// *BrokerMetrics is valid and records nothing.
type BrokerMetrics struct {
	registry *prometheus.Registry

	exchanges         *prometheus.CounterVec
	chunks            *prometheus.CounterVec
	deliveryMisses    prometheus.Counter
	activeConnections prometheus.Gauge
	exchangeDuration  *prometheus.HistogramVec
}

// NewBrokerMetrics registers the broker collectors on registry, or on a fresh
// registry when nil.
func NewBrokerMetrics(registry *prometheus.Registry) *BrokerMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &BrokerMetrics{
		registry: registry,
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Prompt exchanges by provider and terminal outcome.",
		}, []string{"provider", "outcome"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_delivered_total",
			Help:      "Frames handed to live connections by kind.",
		}, []string{"kind"}),
		deliveryMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_misses_total",
			Help:      "Frames addressed to a connection that was gone or congested.",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently registered connections.",
		}),
		exchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Time from prompt receipt to terminal frame.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
	}

	registry.MustRegister(m.exchanges, m.chunks, m.deliveryMisses, m.activeConnections, m.exchangeDuration)
	return m
}

func (m *BrokerMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *BrokerMetrics) ChunkDelivered(kind string) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(kind).Inc()
}

func (m *BrokerMetrics) DeliveryMissed() {
	if m == nil {
		return
	}
	m.deliveryMisses.Inc()
}

func (m *BrokerMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

func (m *BrokerMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *BrokerMetrics) ExchangeFinished(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(provider, outcome).Inc()
	m.exchangeDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
