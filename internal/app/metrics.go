package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxedit_tick_duration_seconds",
		Help:    "Time spent in each simulation tick",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	tickOverrunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxedit_tick_overruns_total",
		Help: "Total number of ticks that took longer than the tick interval",
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxedit_sessions_active",
		Help: "Number of operator sessions",
	})
)

// Metrics tracks tick timing. Prometheus collectors are updated alongside;
// Snapshot gives the same figures without scraping.
type Metrics struct {
	budget time.Duration

	tickCount   atomic.Uint64
	tickTotalNs atomic.Int64
	tickMinNs   atomic.Int64
	tickMaxNs   atomic.Int64
	lastTickNs  atomic.Int64
	overruns    atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a tracker. Ticks longer than budget count as overruns.
func NewMetrics(budget time.Duration) *Metrics {
	m := &Metrics{budget: budget, startTime: time.Now()}
	// Initialize min to max int64 so the first tick is smaller.
	m.tickMinNs.Store(1<<63 - 1)
	return m
}

// RecordTick records one tick's duration.
func (m *Metrics) RecordTick(d time.Duration) {
	ns := d.Nanoseconds()

	m.tickCount.Add(1)
	m.tickTotalNs.Add(ns)
	m.lastTickNs.Store(ns)
	tickDuration.Observe(d.Seconds())
	if m.budget > 0 && d > m.budget {
		m.overruns.Add(1)
		tickOverrunsTotal.Inc()
	}

	for {
		old := m.tickMinNs.Load()
		if ns >= old || m.tickMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.tickMaxNs.Load()
		if ns <= old || m.tickMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSessions updates the session gauge.
func (m *Metrics) RecordSessions(n int) {
	sessionsActive.Set(float64(n))
}

// Snapshot returns a point-in-time view.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.tickCount.Load()
	var avg time.Duration
	if count > 0 {
		avg = time.Duration(m.tickTotalNs.Load() / int64(count))
	}
	minNs := m.tickMinNs.Load()
	if minNs == 1<<63-1 {
		minNs = 0
	}
	return MetricsSnapshot{
		Uptime:    time.Since(m.startTime),
		TickCount: count,
		AvgTick:   avg,
		MinTick:   time.Duration(minNs),
		MaxTick:   time.Duration(m.tickMaxNs.Load()),
		LastTick:  time.Duration(m.lastTickNs.Load()),
		Overruns:  m.overruns.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of tick metrics.
type MetricsSnapshot struct {
	Uptime    time.Duration
	TickCount uint64
	AvgTick   time.Duration
	MinTick   time.Duration
	MaxTick   time.Duration
	LastTick  time.Duration
	Overruns  uint64
}

// OverrunRate returns the percentage of ticks over budget.
func (s MetricsSnapshot) OverrunRate() float64 {
	if s.TickCount == 0 {
		return 0
	}
	return float64(s.Overruns) / float64(s.TickCount) * 100
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// MetricsServer serves /metrics for Prometheus.
type MetricsServer struct {
	srv *http.Server
	ln  net.Listener
}

// StartMetricsServer listens on addr and serves in the background.
func StartMetricsServer(addr string) (*MetricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, NewComponentError("metrics", "listen", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s := &MetricsServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			GetLogger().WithComponent("metrics").Error("serve: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the listening address.
func (s *MetricsServer) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the server.
func (s *MetricsServer) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
