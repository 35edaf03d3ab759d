package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

const namespace = "hsncheck"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Validation metrics
var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of codes validated, by outcome",
		},
		[]string{"outcome"}, // valid, not_found, bad_format
	)

	BulkBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_batch_size",
			Help:      "Number of codes per bulk validation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// Reference data metrics
var (
	ReferenceReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_reloads_total",
			Help:      "Total number of reference reload attempts",
		},
		[]string{"status"},
	)

	ReferenceReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reference_reload_duration_seconds",
			Help:      "Reference reload time distribution",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
	)

	ReferenceCodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_codes",
			Help:      "Number of codes in the published reference table",
		},
	)

	ReferenceLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_loaded_timestamp_seconds",
			Help:      "Unix time the published reference table was built",
		},
	)
)

// Outcome labels a validation result for ValidationsTotal.
func Outcome(r core.ValidationResult) string {
	switch {
	case !r.FormatValid:
		return "bad_format"
	case !r.Exists:
		return "not_found"
	default:
		return "valid"
	}
}

// ServiceObserver feeds core.Service events into the package metrics.
type ServiceObserver struct{}

var _ core.Observer = ServiceObserver{}

func (ServiceObserver) ObserveValidation(r core.ValidationResult) {
	ValidationsTotal.WithLabelValues(Outcome(r)).Inc()
}

func (ServiceObserver) ObserveReload(table *core.ReferenceTable, err error, took time.Duration) {
	ReferenceReloadDuration.Observe(took.Seconds())
	if err != nil {
		ReferenceReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	ReferenceReloadsTotal.WithLabelValues("success").Inc()
	ReferenceCodes.Set(float64(table.Len()))
	ReferenceLoadedTimestamp.Set(float64(table.LoadedAt().Unix()))
}
