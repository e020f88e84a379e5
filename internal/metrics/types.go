package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	EventsHandled      *prometheus.CounterVec
	EventsSkipped      *prometheus.CounterVec
	EventDuration      *prometheus.HistogramVec
	DeliveriesSent     *prometheus.CounterVec
	DeliveriesFailed   *prometheus.CounterVec
	TemplateErrors     *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge

	// store is optional; when set, event and delivery totals are also persisted.
	store MetricsStore
}
