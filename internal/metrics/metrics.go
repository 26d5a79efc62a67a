package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurant_ops"

// Metrics groups the counters the data layer reports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Notifications    *prometheus.CounterVec
	ListenerPanics   *prometheus.CounterVec
	RemoteRefreshes  *prometheus.CounterVec
	RemoteFailures   *prometheus.CounterVec
	RemoteEvents     *prometheus.CounterVec
	Mutations        *prometheus.CounterVec
	Searches         prometheus.Counter
	SearchResultSize prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Snapshot publications per collection.",
		}, []string{"collection"}),
		ListenerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_panics_total",
			Help:      "Subscriber callbacks that panicked and were recovered.",
		}, []string{"collection"}),
		RemoteRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_refreshes_total",
			Help:      "Full collection re-reads from the remote store.",
		}, []string{"table"}),
		RemoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_failures_total",
			Help:      "Remote store failures by operation.",
		}, []string{"op"}),
		RemoteEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_events_total",
			Help:      "Change events received from the remote feed.",
		}, []string{"table", "action"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutation operations by name and outcome.",
		}, []string{"op", "outcome"}),
		Searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Global search queries served.",
		}),
		SearchResultSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results per global search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Notifications, m.ListenerPanics, m.RemoteRefreshes, m.RemoteFailures,
			m.RemoteEvents, m.Mutations, m.Searches, m.SearchResultSize,
		)
	}
	return m
}

func (m *Metrics) Notified(collection string) {
	if m != nil {
		m.Notifications.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) ListenerPanicked(collection string) {
	if m != nil {
		m.ListenerPanics.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) Refreshed(table string) {
	if m != nil {
		m.RemoteRefreshes.WithLabelValues(table).Inc()
	}
}

func (m *Metrics) RemoteFailed(op string) {
	if m != nil {
		m.RemoteFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) EventReceived(table, action string) {
	if m != nil {
		m.RemoteEvents.WithLabelValues(table, action).Inc()
	}
}

func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Searched(results int) {
	if m != nil {
		m.Searches.Inc()
		m.SearchResultSize.Observe(float64(results))
	}
}
