package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	builds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "manifest",
			Name:      "builds_total",
			Help:      "Manifest builds performed.",
		},
	)
	buildCases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "manifest",
			Name:      "cases_total",
			Help:      "Cases seen by the manifest builder, by outcome.",
		},
		[]string{"outcome"},
	)
	buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "manifest",
			Name:      "build_duration_seconds",
			Help:      "Manifest build duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "validator",
			Name:      "cases_total",
			Help:      "Cases validated, by result.",
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(builds, buildCases, buildDuration, validations, httpRequests, httpDuration)
	})
}

func RecordBuild(included, skipped int, duration time.Duration) {
	Register()
	builds.Inc()
	buildCases.WithLabelValues("included").Add(float64(included))
	buildCases.WithLabelValues("skipped").Add(float64(skipped))
	buildDuration.Observe(duration.Seconds())
}

func RecordValidation(passed bool) {
	Register()
	result := "fail"
	if passed {
		result = "pass"
	}
	validations.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
