package metrics

import "context"

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncEventsHandled(kind string)
	IncEventsSkipped(kind, reason string)
	ObserveEventDuration(kind string, duration float64)
	IncDeliverySent(channel string)
	IncDeliveryFailed(channel string)
	IncTemplateErrors(family string)
	SetStartupTime(duration float64)
}

// MetricsStore persists counters across restarts so the CLI can report totals.
type MetricsStore interface {
	Increment(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]int, error)
}
