package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WorkersActive is the number of undoworker goroutines currently
	// polling the manager for work.
	WorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "undomgrd_workers_active",
			Help: "Number of undo worker goroutines currently running",
		},
	)

	UndoExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undomgrd_undo_executions_total",
			Help: "Total number of background undo executions by outcome",
		},
		[]string{"outcome"},
	)

	UndoExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "undomgrd_undo_execution_duration_seconds",
			Help:    "Time taken to run a single background undo execution",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Persistence metrics
	PersistenceSaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "undomgrd_persistence_save_duration_seconds",
			Help:    "Time taken to persist the serialized manager state",
			Buckets: prometheus.DefBuckets,
		},
	)

	PersistenceLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "undomgrd_persistence_load_duration_seconds",
			Help:    "Time taken to load the serialized manager state at boot",
			Buckets: prometheus.DefBuckets,
		},
	)

	PersistenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undomgrd_persistence_errors_total",
			Help: "Total number of persistence failures by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(WorkersActive)
	prometheus.MustRegister(UndoExecutionsTotal)
	prometheus.MustRegister(UndoExecutionDuration)
	prometheus.MustRegister(PersistenceSaveDuration)
	prometheus.MustRegister(PersistenceLoadDuration)
	prometheus.MustRegister(PersistenceErrorsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}
