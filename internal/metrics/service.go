package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

const persistTimeout = 2 * time.Second

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		EventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_events_handled_total",
			Help: "The total number of domain events routed to a handler.",
		}, []string{"kind"}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_events_skipped_total",
			Help: "The total number of domain events dropped by business gating.",
		}, []string{"kind", "reason"}),
		EventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "league_event_processing_duration_seconds",
			Help:    "The duration of processing a single domain event, including pacing.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		DeliveriesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_deliveries_sent_total",
			Help: "The total number of deliveries handed to the transport successfully.",
		}, []string{"channel"}),
		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_deliveries_failed_total",
			Help: "The total number of deliveries the transport rejected.",
		}, []string{"channel"}),
		TemplateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_template_errors_total",
			Help: "The total number of renderings aborted by a template/parameter mismatch.",
		}, []string{"family"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "league_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.EventsHandled,
		s.EventsSkipped,
		s.EventDuration,
		s.DeliveriesSent,
		s.DeliveriesFailed,
		s.TemplateErrors,
		s.StartupTimeSeconds,
	)

	return s
}

// WithStore makes the service persist event and delivery totals.
func (s *Service) WithStore(store MetricsStore) *Service {
	s.store = store
	return s
}

// persist is best effort; a failed write only loses the persisted total.
func (s *Service) persist(key string) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Increment(ctx, key); err != nil {
		log.Error("Failed to persist metric", "key", key, "error", err)
	}
}

func (s *Service) IncEventsHandled(kind string) {
	s.EventsHandled.WithLabelValues(kind).Inc()
	s.persist("events_handled")
}

func (s *Service) IncEventsSkipped(kind, reason string) {
	s.EventsSkipped.WithLabelValues(kind, reason).Inc()
	s.persist("events_skipped")
}

func (s *Service) ObserveEventDuration(kind string, duration float64) {
	s.EventDuration.WithLabelValues(kind).Observe(duration)
}

func (s *Service) IncDeliverySent(channel string) {
	s.DeliveriesSent.WithLabelValues(channel).Inc()
	s.persist("deliveries_sent_" + channel)
}

func (s *Service) IncDeliveryFailed(channel string) {
	s.DeliveriesFailed.WithLabelValues(channel).Inc()
	s.persist("deliveries_failed_" + channel)
}

func (s *Service) IncTemplateErrors(family string) {
	s.TemplateErrors.WithLabelValues(family).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
