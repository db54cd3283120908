package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphedit_jobs_started_total",
		Help: "Background analysis jobs started, by kind",
	}, []string{"kind"})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphedit_jobs_finished_total",
		Help: "Background analysis jobs finished, by kind and outcome",
	}, []string{"kind", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graphedit_job_duration_seconds",
		Help:    "Wall time of completed analysis jobs",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"kind"})
)
