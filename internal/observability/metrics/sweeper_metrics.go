package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SweeperJobReasonDeadlineExceeded     = "deadline_exceeded"
	SweeperJobReasonDBLockTimeout        = "db_lock_timeout"
	SweeperJobReasonSerializationFailure = "serialization_failure"
	SweeperJobReasonUniqueViolation      = "unique_violation"
	SweeperJobReasonUnknown              = "unknown"
)

// SweeperMetrics captures retention sweeper health signals.
type SweeperMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	batchProcessed *prometheus.CounterVec
	runLoopLag     prometheus.Observer
}

var (
	sweeperMetricsOnce sync.Once
	sweeperMetrics     *SweeperMetrics
)

// Sweeper returns the singleton sweeper metrics registry.
func Sweeper() *SweeperMetrics {
	return SweeperWithConfig(Config{})
}

// SweeperWithConfig returns the singleton sweeper metrics registry using config labels.
func SweeperWithConfig(cfg Config) *SweeperMetrics {
	sweeperMetricsOnce.Do(func() {
		sweeperMetrics = newSweeperMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweeperMetrics
}

// ResetSweeperMetricsForTest resets the sweeper metrics singleton for tests.
func ResetSweeperMetricsForTest() {
	sweeperMetricsOnce = sync.Once{}
	sweeperMetrics = nil
}

func newSweeperMetrics(registerer prometheus.Registerer, cfg Config) *SweeperMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "modoocon"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "modoocon_sweeper_job_runs_total",
		Help:        "Sweeper job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "modoocon_sweeper_job_duration_seconds",
		Help:        "Sweeper job latency to keep retention windows honest.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "modoocon_sweeper_job_timeouts_total",
		Help:        "Sweeper jobs cut off by their per-run deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "modoocon_sweeper_job_errors_total",
		Help:        "Sweeper job errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	batchProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "modoocon_sweeper_batch_processed_total",
		Help:        "Rows processed per sweeper job and resource.",
		ConstLabels: constLabels,
	}, []string{"job", "resource"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "modoocon_sweeper_runloop_lag_seconds",
		Help:        "Sweeper run loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60, 300},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(jobRuns, jobDuration, jobTimeouts, jobErrors, batchProcessed, runLoopLag)

	return &SweeperMetrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		jobTimeouts:    jobTimeouts,
		jobErrors:      jobErrors,
		batchProcessed: batchProcessed,
		runLoopLag:     runLoopLag,
	}
}

// IncJobRun increments the run counter for a sweeper job.
func (m *SweeperMetrics) IncJobRun(job string) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

// ObserveJobDuration records sweeper job latency in seconds.
func (m *SweeperMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncJobTimeout increments the timeout counter for the sweeper job.
func (m *SweeperMetrics) IncJobTimeout(job string) {
	if m == nil || m.jobTimeouts == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

// IncJobError increments the sweeper job error counter with classification.
func (m *SweeperMetrics) IncJobError(job string, err error) {
	if m == nil || m.jobErrors == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySweeperJobReason(err)).Inc()
}

// AddBatchProcessed increments the batch processed counter for a resource by count.
func (m *SweeperMetrics) AddBatchProcessed(job, resource string, count int) {
	if m == nil || m.batchProcessed == nil || count <= 0 {
		return
	}
	m.batchProcessed.WithLabelValues(job, resource).Add(float64(count))
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *SweeperMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.runLoopLag.Observe(duration.Seconds())
}

// ClassifySweeperJobReason maps sweeper job errors to low-cardinality reasons.
func ClassifySweeperJobReason(err error) string {
	if err == nil {
		return SweeperJobReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SweeperJobReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return SweeperJobReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return SweeperJobReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return SweeperJobReasonUniqueViolation
	}
	return SweeperJobReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
