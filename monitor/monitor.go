// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers     prometheus.Gauge
	EncountersStarted prometheus.Counter
	Victories         prometheus.Counter
	Defeats           prometheus.Counter
	ChestsOpened      prometheus.Counter
	ReconcileRuns     prometheus.Counter
	SavesWritten      prometheus.Counter
	TransitionLatency prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected players",
		}),
		EncountersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encounters_started_total",
			Help:      "Total encounters begun",
		}),
		Victories: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "victories_total",
			Help:      "Total encounter victories",
		}),
		Defeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defeats_total",
			Help:      "Total encounter defeats",
		}),
		ChestsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chests_opened_total",
			Help:      "Total reward chests opened",
		}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Total idle reconciliations run on load",
		}),
		SavesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_written_total",
			Help:      "Total snapshots persisted",
		}),
		TransitionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_latency_seconds",
			Help:      "State transition processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.EncountersStarted,
		m.Victories,
		m.Defeats,
		m.ChestsOpened,
		m.ReconcileRuns,
		m.SavesWritten,
		m.TransitionLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("transitions", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncOnlinePlayers()     { m.metrics.OnlinePlayers.Inc() }
func (m *Monitor) DecOnlinePlayers()     { m.metrics.OnlinePlayers.Dec() }
func (m *Monitor) IncEncountersStarted() { m.metrics.EncountersStarted.Inc() }
func (m *Monitor) IncVictories()         { m.metrics.Victories.Inc() }
func (m *Monitor) IncDefeats()           { m.metrics.Defeats.Inc() }
func (m *Monitor) IncChestsOpened()      { m.metrics.ChestsOpened.Inc() }
func (m *Monitor) IncReconcileRuns()     { m.metrics.ReconcileRuns.Inc() }
func (m *Monitor) IncSavesWritten()      { m.metrics.SavesWritten.Inc() }

func (m *Monitor) ObserveTransitionLatency(duration time.Duration) {
	m.metrics.TransitionLatency.Observe(duration.Seconds())
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}
