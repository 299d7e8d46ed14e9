package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alyx_executor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alyx_executor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alyx_executor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	functionInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alyx_executor_function_invocations_total",
			Help: "Total number of function invocations",
		},
		[]string{"function", "status"},
	)

	functionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alyx_executor_function_duration_seconds",
			Help:    "Function execution time in seconds",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"function"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alyx_executor_function_cache_lookups_total",
			Help: "Function cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	cacheLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alyx_executor_function_loads_total",
			Help: "Function loads from disk by outcome",
		},
		[]string{"outcome"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alyx_executor_function_cache_entries",
			Help: "Number of function definitions currently cached",
		},
	)

	cacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alyx_executor_function_cache_clears_total",
			Help: "Number of times the function cache was cleared",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

// RecordFunctionInvocation counts one invocation. status is success, error or
// the executor error code when the function never ran.
func RecordFunctionInvocation(name, status string, duration time.Duration) {
	functionInvocations.WithLabelValues(name, status).Inc()
	functionDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func RecordFunctionLoad(outcome string) {
	cacheLoads.WithLabelValues(outcome).Inc()
}

func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

func RecordCacheClear() {
	cacheClears.Inc()
}
