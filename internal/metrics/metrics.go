package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SweepDuration tracks how long one sweep tick takes.
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of one lateness sweep tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SweepMonitorsEvaluated counts monitors evaluated across all ticks.
	SweepMonitorsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_monitors_evaluated_total",
			Help: "Total number of monitors evaluated by the sweeper",
		},
	)

	// AlertsTotal counts alerts emitted by type (missed, recovered).
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Total number of alerts emitted by the sweeper by type",
		},
		[]string{"type"},
	)

	// MonitorsAlerting is the number of monitors currently in status alerting.
	MonitorsAlerting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitors_alerting",
			Help: "Number of monitors currently overdue beyond grace",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	checkinToken       = regexp.MustCompile(`^/ping/[^/]+$`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal,
			SweepDuration, SweepMonitorsEvaluated, AlertsTotal, MonitorsAlerting)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with
// {id} and check-in tokens with {token}.
// E.g. /v1/monitors/123 -> /v1/monitors/{id}, /ping/<uuid> -> /ping/{token}.
func NormalizePath(path string) string {
	if checkinToken.MatchString(path) {
		return "/ping/{token}"
	}
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSweep records one tick: its duration, how many monitors it looked at,
// and how many are left alerting afterwards.
func RecordSweep(durationSeconds float64, evaluated, alerting int) {
	SweepDuration.Observe(durationSeconds)
	SweepMonitorsEvaluated.Add(float64(evaluated))
	MonitorsAlerting.Set(float64(alerting))
}

// IncAlerts increments the emitted-alerts counter for the given type.
func IncAlerts(alertType string) {
	AlertsTotal.WithLabelValues(alertType).Inc()
}
