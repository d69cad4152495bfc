package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizbattle"

// Metrics holds the Prometheus collectors for the battle server.
type Metrics struct {
	MatchesStarted  prometheus.Counter
	MatchesFinished *prometheus.CounterVec
	ActiveMatches   prometheus.Gauge
	Answers         *prometheus.CounterVec
	PowerUps        *prometheus.CounterVec
	Searches        *prometheus.CounterVec
	Connections     prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered,
// which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MatchesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "started_total",
			Help:      "Matches started",
		}),
		MatchesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "finished_total",
			Help:      "Matches finished by outcome",
		}, []string{"outcome"}),
		ActiveMatches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "active",
			Help:      "Matches currently in progress",
		}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "answers_total",
			Help:      "Recorded answers by side and correctness",
		}, []string{"side", "correct"}),
		PowerUps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "power_ups_total",
			Help:      "Power-ups applied by type",
		}, []string{"type"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "searches_total",
			Help:      "Opponent searches by result",
		}, []string{"result"}),
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open WebSocket connections",
		}),
	}
}

// ObserveAnswer counts one recorded answer.
func (m *Metrics) ObserveAnswer(side string, correct bool) {
	m.Answers.WithLabelValues(side, strconv.FormatBool(correct)).Inc()
}
