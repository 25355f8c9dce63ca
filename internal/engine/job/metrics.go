package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxedit_jobs_started_total",
		Help: "Total number of jobs started",
	})

	jobsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxedit_jobs_finished_total",
		Help: "Total number of jobs finished, by final state",
	}, []string{"state"})

	jobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxedit_jobs_active",
		Help: "Number of jobs currently registered",
	})

	jobUnitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxedit_job_units_total",
		Help: "Total number of work units consumed",
	})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxedit_job_duration_seconds",
		Help:    "Wall-clock duration of finished jobs",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)
