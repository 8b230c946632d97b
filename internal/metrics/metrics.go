package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fix results used as the "result" label.
const (
	ResultOK             = "ok"
	ResultDecayed        = "decayed"
	ResultInvalid        = "invalid"
	ResultNonConvergence = "nonconvergence"
	ResultEOPRange       = "eop_out_of_range"
	ResultError          = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issblh_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issblh_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	fixesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issblh_fixes_total",
			Help: "Total number of position fixes computed, by result.",
		},
		[]string{"result"},
	)

	fixDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issblh_fix_duration_seconds",
			Help:    "Time to compute one fix from UTC to geodetic.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	batchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issblh_batch_duration_seconds",
			Help:    "Time to compute an ephemeris series.",
			Buckets: prometheus.DefBuckets,
		},
	)

	propagatorRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issblh_propagator_rebuilds_total",
			Help: "Number of times the SGP4 propagator was rebuilt for new elements.",
		},
	)

	elementAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "issblh_element_age_seconds",
			Help: "Age of the active element set epoch at the last fix.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(fixesTotal)
	prometheus.MustRegister(fixDurationSeconds)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(propagatorRebuildsTotal)
	prometheus.MustRegister(elementAgeSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFix counts one fix and its duration.
func RecordFix(result string, d time.Duration) {
	fixesTotal.WithLabelValues(result).Inc()
	fixDurationSeconds.Observe(d.Seconds())
}

// RecordBatch records the duration of an ephemeris series.
func RecordBatch(d time.Duration) {
	batchDurationSeconds.Observe(d.Seconds())
}

// RecordRebuild counts a propagator rebuild.
func RecordRebuild() {
	propagatorRebuildsTotal.Inc()
}

// SetElementAge records how far the fix instant is from the element epoch.
func SetElementAge(d time.Duration) {
	elementAgeSeconds.Set(d.Seconds())
}

// knownRoutes are the registered paths reported as their own label.
var knownRoutes = map[string]bool{
	"/":                 true,
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/api/v1/position":  true,
	"/api/v1/ephemeris": true,
	"/api/v1/elements":  true,
}

// normalizeRoute maps a request path to a bounded label set so that
// arbitrary client paths cannot grow the metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
