// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus metrics for HTTP traffic, policy
// decisions and the storage janitor.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/portal/internal/authz"
)

const namespace = "portal"

// Metrics owns a private registry and the collectors registered in it.
type Metrics struct {
	reg *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authzDecisions      *prometheus.CounterVec
	janitorRuns         *prometheus.CounterVec
	janitorDeleted      prometheus.Counter
	buildInfo           *prometheus.GaugeVec
}

// New creates and registers all collectors, including Go runtime and
// process collectors, and sets build_info{version,commit} to 1.
func New(version, commit string) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Authorization decisions by resource, operation and outcome.",
		}, []string{"resource", "op", "decision"}),
		janitorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_runs_total",
			Help:      "Storage janitor runs by result.",
		}, []string{"result"}),
		janitorDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_deleted_objects_total",
			Help:      "Unreferenced objects removed by the storage janitor.",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Portal build information.",
		}, []string{"version", "commit"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authzDecisions,
		m.janitorRuns,
		m.janitorDeleted,
		m.buildInfo,
	)
	m.buildInfo.WithLabelValues(version, commit).Set(1)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveAuthz counts one policy decision. Its signature matches authz.Observer.
func (m *Metrics) ObserveAuthz(resource string, op authz.Op, decision string) {
	m.authzDecisions.WithLabelValues(resource, op.String(), decision).Inc()
}

// ObserveJanitor records one janitor run.
func (m *Metrics) ObserveJanitor(deleted int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.janitorRuns.WithLabelValues(result).Inc()
	m.janitorDeleted.Add(float64(deleted))
}

// Instrument measures request count, latency and in-flight requests. The
// route label is the chi route pattern, so ids do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		labels := []string{r.Method, routePattern(r), strconv.Itoa(sw.code)}
		m.httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(labels...).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
