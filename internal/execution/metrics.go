package execution

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the executor's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	Runs               *prometheus.CounterVec
	RemoteDuration     prometheus.Histogram
	AccountingFailures prometheus.Counter
}

// NewMetrics creates the executor collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_backtest_runs_total",
				Help: "Backtest runs by final state",
			},
			[]string{"state"},
		),
		RemoteDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screener_backtest_remote_duration_seconds",
				Help:    "Duration of remote executor calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		AccountingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_usage_accounting_failures_total",
				Help: "Usage increments that could not be persisted",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Runs, m.RemoteDuration, m.AccountingFailures)
	}
	return m
}

func (m *Metrics) observeState(s State) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) observeRemote(d time.Duration) {
	if m == nil {
		return
	}
	m.RemoteDuration.Observe(d.Seconds())
}

func (m *Metrics) observeAccountingFailure() {
	if m == nil {
		return
	}
	m.AccountingFailures.Inc()
}
