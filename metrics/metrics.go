// Package metrics exposes the sealing service's Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Seal outcomes, used as the "outcome" label.
const (
	OutcomeSealed        = "sealed"
	OutcomeAlreadySealed = "already_sealed"
	OutcomeLostRace      = "lost_race"
	OutcomeCancelled     = "cancelled"
	OutcomeOracleError   = "oracle_error"
	OutcomeInvalidSecret = "invalid_secret"
)

// Metrics groups the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sealAttempts   *prometheus.CounterVec
	oracleLatency  *prometheus.HistogramVec
	sealed         prometheus.Gauge
	numsCounter    prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry. The namespace is
// sanitized so that a package name like "tee-sealing-service" is accepted.
func NewMetrics(namespace string) *Metrics {
	namespace = strings.ReplaceAll(namespace, "-", "_")
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		sealAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seal_attempts_total",
			Help:      "Seal attempts by outcome",
		}, []string{"outcome"}),
		oracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Duration of key agreement oracle requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		sealed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sealed",
			Help:      "1 once a key pair has been sealed",
		}),
		numsCounter: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nums_key_counter",
			Help:      "Counter at which the NUMS key was found",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) RecordSeal(outcome string) {
	if m == nil {
		return
	}
	m.sealAttempts.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSealed {
		m.sealed.Set(1)
	}
}

func (m *Metrics) ObserveOracleRequest(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.oracleLatency.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) SetNumsCounter(counter uint32) {
	if m == nil {
		return
	}
	m.numsCounter.Set(float64(counter))
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.requestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// MetricsServer serves /metrics from the Metrics registry.
type MetricsServer struct {
	metrics *Metrics
	srv     *http.Server
}

func New(namespace, addr string) (*MetricsServer, error) {
	m := NewMetrics(namespace)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))

	return &MetricsServer{
		metrics: m,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) Metrics() *Metrics {
	return s.metrics
}

func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
