package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the AppView's prometheus collectors. A nil *Metrics is valid
// and turns every observation into a no-op, so components can take it as an
// optional dependency.
type Metrics struct {
	StreamConnections prometheus.Counter
	ReconnectAttempts prometheus.Counter
	StalenessChecks   *prometheus.CounterVec
	RecordsIndexed    prometheus.Counter
	OriginsRegistered prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StreamConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firehose_connections_total",
			Help: "Successful event-stream connections.",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firehose_reconnect_attempts_total",
			Help: "Reconnection attempts after a stream disconnect.",
		}),
		StalenessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staleness_checks_total",
			Help: "Staleness checks by outcome.",
		}, []string{"outcome"}),
		RecordsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scan_records_indexed_total",
			Help: "Records newly indexed by on-demand origin scans.",
		}),
		OriginsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "origins_registered_total",
			Help: "Origin servers registered.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.StreamConnections,
			m.ReconnectAttempts,
			m.StalenessChecks,
			m.RecordsIndexed,
			m.OriginsRegistered,
		)
	}
	return m
}

func (m *Metrics) ObserveStreamConnection() {
	if m == nil {
		return
	}
	m.StreamConnections.Inc()
}

func (m *Metrics) ObserveReconnectAttempt() {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Inc()
}

// ObserveStalenessCheck records an outcome of "fresh", "stale" or "error".
func (m *Metrics) ObserveStalenessCheck(outcome string) {
	if m == nil {
		return
	}
	m.StalenessChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRecordsIndexed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsIndexed.Add(float64(n))
}

func (m *Metrics) ObserveOriginRegistered() {
	if m == nil {
		return
	}
	m.OriginsRegistered.Inc()
}
