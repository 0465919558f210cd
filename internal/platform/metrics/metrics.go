// Copyright (c) 2026 FitHub. All rights reserved.

// Package metrics exposes Prometheus instrumentation for the API server.
//
// # Architecture
//
// Metrics live in the default Prometheus registry; [Init] must be called once
// at startup before [Instrument] or [ObserveAuthOperation] are used. Path
// labels use the chi route pattern rather than the raw URL so that
// parameterized routes do not explode cardinality.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Authentication operations by outcome.",
		},
		[]string{"operation", "result"},
	)
)

// Init registers all metrics in the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, authOperationsTotal)
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuthOperation counts a single auth flow outcome.
//
// operation is the flow name (signup, signin, refresh, google, forgot_password,
// reset_password); result is "ok" or "error".
func ObserveAuthOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	authOperationsTotal.WithLabelValues(operation, result).Inc()
}

// Instrument wraps a handler with RPS, latency, and in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		// Resolved after ServeHTTP so chi has matched the route pattern.
		path := request.URL.Path
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(recorder.code)

		httpRequestDuration.WithLabelValues(request.Method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(request.Method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for labeling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
