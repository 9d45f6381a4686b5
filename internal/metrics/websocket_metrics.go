package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics tracks market data websocket connection and
// subscription counts, registered against the same registry as the
// matching/reconciliation metrics.
type ConnectionMetrics struct {
	ActiveConnections   prometheus.Gauge
	ConnectionTotal     prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	SubscriptionTotal   prometheus.Counter
}

// NewConnectionMetrics registers the websocket gauges/counters against reg.
func NewConnectionMetrics(reg prometheus.Registerer) *ConnectionMetrics {
	m := &ConnectionMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "marketdata",
			Name:      "active_connections",
			Help:      "Number of currently connected market data websocket clients.",
		}),
		ConnectionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "marketdata",
			Name:      "connections_total",
			Help:      "Total market data websocket connections accepted.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "marketdata",
			Name:      "active_subscriptions",
			Help:      "Number of currently active symbol subscriptions across all clients.",
		}),
		SubscriptionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "marketdata",
			Name:      "subscriptions_total",
			Help:      "Total symbol subscriptions accepted.",
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.ConnectionTotal, m.ActiveSubscriptions, m.SubscriptionTotal)
	return m
}

// RecordConnect records one client joining the hub.
func (m *ConnectionMetrics) RecordConnect() {
	m.ActiveConnections.Inc()
	m.ConnectionTotal.Inc()
}

// RecordDisconnect records one client leaving the hub.
func (m *ConnectionMetrics) RecordDisconnect() {
	m.ActiveConnections.Dec()
}

// RecordSubscribe records one symbol subscription being added.
func (m *ConnectionMetrics) RecordSubscribe() {
	m.ActiveSubscriptions.Inc()
	m.SubscriptionTotal.Inc()
}

// RecordUnsubscribe records one symbol subscription being removed.
func (m *ConnectionMetrics) RecordUnsubscribe() {
	m.ActiveSubscriptions.Dec()
}
