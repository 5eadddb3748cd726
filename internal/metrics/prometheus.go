package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements Collector on its own registry, so
// repeated construction in tests cannot collide.
type PrometheusCollector struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	entries       *prometheus.CounterVec
	alertsSent    *prometheus.CounterVec
	seenCount     prometheus.Gauge
}

// NewPrometheusCollector creates and registers the service metrics
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	c := &PrometheusCollector{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quakealert_http_requests_total",
			Help: "HTTP requests served by the ops endpoints",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quakealert_http_request_duration_seconds",
			Help:    "Latency of the ops endpoints",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quakealert_feed_fetches_total",
			Help: "Feed fetch results after retries",
		}, []string{"status"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quakealert_poll_cycles_total",
			Help: "Completed poll cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quakealert_poll_cycle_duration_seconds",
			Help:    "Duration of a poll cycle including deliveries",
			Buckets: prometheus.DefBuckets,
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quakealert_entries_total",
			Help: "Feed entries by processing outcome",
		}, []string{"outcome"}),
		alertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quakealert_alerts_sent_total",
			Help: "Alerts delivered to the channel by severity",
		}, []string{"severity"}),
		seenCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quakealert_seen_ids",
			Help: "Identifiers recorded in the seen store",
		}),
	}

	registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.fetches,
		c.cycles,
		c.cycleDuration,
		c.entries,
		c.alertsSent,
		c.seenCount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordHTTPRequest records one served ops request
func (c *PrometheusCollector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	c.httpRequests.WithLabelValues(method, endpoint, status).Inc()
	c.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFetch records the result of one feed fetch, after retries
func (c *PrometheusCollector) RecordFetch(status string) {
	c.fetches.WithLabelValues(status).Inc()
}

// RecordCycle records one completed poll cycle
func (c *PrometheusCollector) RecordCycle(duration time.Duration) {
	c.cycles.Inc()
	c.cycleDuration.Observe(duration.Seconds())
}

// RecordEntry records the outcome of one processed feed entry
func (c *PrometheusCollector) RecordEntry(outcome string) {
	c.entries.WithLabelValues(outcome).Inc()
}

// RecordAlertSent records one delivered alert
func (c *PrometheusCollector) RecordAlertSent(severity string) {
	c.alertsSent.WithLabelValues(severity).Inc()
}

// SetSeenCount publishes the current size of the seen store
func (c *PrometheusCollector) SetSeenCount(count float64) {
	c.seenCount.Set(count)
}

// Handler serves the exposition endpoint for this registry
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
