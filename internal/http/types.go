package http

import (
	"context"
	"net/http"

	"github.com/mauv0809/league-notifier/internal/config"
	"github.com/mauv0809/league-notifier/internal/events"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/pubsub"
)

// EventHandler routes one league event. *events.Router implements it.
type EventHandler interface {
	Handle(ctx context.Context, ev events.Event, dryRun bool) ([]notifier.Delivery, error)
	Kinds() []events.Kind
}

type Server struct {
	Events         EventHandler
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}

// previewResponse is the body returned by /events/preview.
type previewResponse struct {
	Kind       events.Kind         `json:"kind"`
	Deliveries []notifier.Delivery `json:"deliveries"`
}

type errorResponse struct {
	Error string `json:"error"`
}
