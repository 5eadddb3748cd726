package metrics

import (
	"net/http"
	"time"
)

// Collector records operational metrics for dependency injection
type Collector interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordFetch(status string)
	RecordCycle(duration time.Duration)
	RecordEntry(outcome string)
	RecordAlertSent(severity string)
	SetSeenCount(count float64)
	Handler() http.Handler
}

// New returns the prometheus collector, or the no-op one when metrics
// are disabled
func New(enabled bool) Collector {
	if !enabled {
		return &NoOpCollector{}
	}
	return NewPrometheusCollector()
}

// NoOpCollector provides a no-op implementation
type NoOpCollector struct{}

func (c *NoOpCollector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (c *NoOpCollector) RecordFetch(status string)          {}
func (c *NoOpCollector) RecordCycle(duration time.Duration) {}
func (c *NoOpCollector) RecordEntry(outcome string)         {}
func (c *NoOpCollector) RecordAlertSent(severity string)    {}
func (c *NoOpCollector) SetSeenCount(count float64)         {}
func (c *NoOpCollector) Handler() http.Handler              { return http.NotFoundHandler() }
