package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	// GatewayPending tracks operations admitted to the gateway but not completed.
	GatewayPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blabber",
			Subsystem: "gateway",
			Name:      "pending",
			Help:      "Storage operations admitted but not yet completed.",
		},
	)

	// GatewayRejected counts submissions refused before running.
	GatewayRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blabber",
			Subsystem: "gateway",
			Name:      "rejected_total",
			Help:      "Storage operations rejected at admission.",
		},
		[]string{"reason"},
	)

	// GatewayDuration observes how long each storage operation ran.
	GatewayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blabber",
			Subsystem: "gateway",
			Name:      "op_duration_seconds",
			Help:      "Duration of storage operations on the gateway worker.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blabber",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blabber",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		GatewayPending,
		GatewayRejected,
		GatewayDuration,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and durations per named route.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := routeName(r)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeName keeps label cardinality bounded by using the mux route name.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unmatched"
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}
