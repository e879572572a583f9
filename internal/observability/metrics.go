package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	adminRequestsTotal   *prometheus.CounterVec
	adminLatencySeconds  *prometheus.HistogramVec
	adminErrorsTotal     *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	normalizationSeconds prometheus.Histogram
	importEntriesTotal   *prometheus.CounterVec
	importsTotal         *prometheus.CounterVec
	officeSeconds        prometheus.Histogram
	officeFailuresTotal  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roots_solution_submissions_total",
			Help: "Solution submissions by result (created, updated, incomplete_profile, conversion_error, rejected).",
		}, []string{"result"})

		normalizationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roots_normalization_seconds",
			Help:    "Time spent converting and merging uploaded files into one PDF.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		})

		importEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roots_correction_import_entries_total",
			Help: "Archive entries processed by the correction importer, by outcome.",
		}, []string{"outcome"})

		importsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roots_correction_imports_total",
			Help: "Correction archive imports by result (completed, corrupt, aborted).",
		}, []string{"result"})

		officeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roots_office_conversion_duration_seconds",
			Help:    "Duration of office to pdf conversions.",
			Buckets: prometheus.DefBuckets,
		})

		officeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roots_office_conversion_failures_total",
			Help: "Number of office conversions that failed or timed out.",
		})

		prometheus.MustRegister(
			adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			submissionsTotal, normalizationSeconds, importEntriesTotal, importsTotal,
			officeSeconds, officeFailuresTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// SolutionSubmissions counts submissions by result.
func SolutionSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// NormalizationLatency observes normalizer run time.
func NormalizationLatency() prometheus.Histogram {
	RegisterMetrics()
	return normalizationSeconds
}

// ImportEntries counts importer entry outcomes.
func ImportEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return importEntriesTotal
}

// Imports counts whole import runs.
func Imports() *prometheus.CounterVec {
	RegisterMetrics()
	return importsTotal
}

// OfficeConversionLatency observes LibreOffice run time.
func OfficeConversionLatency() prometheus.Histogram {
	RegisterMetrics()
	return officeSeconds
}

// OfficeConversionFailures counts failed or timed out office conversions.
func OfficeConversionFailures() prometheus.Counter {
	RegisterMetrics()
	return officeFailuresTotal
}
