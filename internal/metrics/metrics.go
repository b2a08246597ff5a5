// Package metrics holds the process's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

type Metrics struct {
	registry           *prometheus.Registry
	readingsIngested   *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquadash_readings_ingested_total",
			Help: "Readings stored, by ingestion source.",
		}, []string{"source"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquadash_validation_failures_total",
			Help: "Payloads rejected by validation, by ingestion source.",
		}, []string{"source"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aquadash_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.readingsIngested,
		m.validationFailures,
		m.requestDuration,
	)
	return m
}

func (m *Metrics) ReadingIngested(source string) {
	if m == nil {
		return
	}
	m.readingsIngested.WithLabelValues(source).Inc()
}

func (m *Metrics) ValidationFailed(source string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
