package queue

import (
	"net/http"
	"sync"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MetricsInjector = wire.NewSet(NewMetricsContainer, NewPrometheusHandler)
	sharedContainer *MetricsContainer
	once            sync.Once
)

type MetricsContainer struct {
	BufferedJobCount   prometheus.Gauge
	ClaimConflictCount prometheus.Counter
	ProcessedJobCount  *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	RecoveredCount     prometheus.Counter
}

func NewMetricsContainer() *MetricsContainer {
	once.Do(func() {
		sharedContainer = newMetricsContainer()
	})
	return sharedContainer
}

func newMetricsContainer() *MetricsContainer {
	container := &MetricsContainer{}
	container.BufferedJobCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buffered_job_count",
		Help: "The current number of jobs buffered for the worker pool",
	})
	container.ClaimConflictCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claim_conflict_count",
		Help: "Number of conditional claims lost to a concurrent worker",
	})
	container.ProcessedJobCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processed_job_count",
		Help: "Number of processed jobs per job type and outcome",
	}, []string{"jobType", "outcome"})
	container.ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "processing_duration_seconds",
		Help:    "Handler execution duration for completed jobs",
		Buckets: prometheus.DefBuckets,
	})
	container.RecoveredCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovered_entry_count",
		Help: "Number of timed out processing entries returned to pending",
	})
	return container
}

func NewPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
