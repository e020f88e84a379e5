package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/events"
	"github.com/mauv0809/league-notifier/internal/notifier"
)

const maxEventBody = 1 << 20

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// EventPushHandler receives Pub/Sub push deliveries. The message data is a
// MessagePack encoded event. Unknown kinds are acknowledged so they are not redelivered.
func (s *Server) EventPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received event message", "body", string(bodyBytes))

		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data      string `json:"data"`
				MessageID string `json:"messageId"`
			} `json:"message"`
		}
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		ev := events.Event{}
		if err := s.pubsub.ProcessMessage(rawData, &ev); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		if ev.ID == "" {
			ev.ID = pubsubMsg.Message.MessageID
		}

		_, err = s.Events.Handle(r.Context(), ev, isDryRunFromContext(r))
		if errors.Is(err, events.ErrUnknownKind) {
			log.Warn("Dropping event of unknown kind", "kind", ev.Kind, "subscription", pubsubMsg.Subscription)
			w.Write([]byte("OK"))
			return
		}
		if errors.Is(err, events.ErrInvalidEvent) {
			log.Warn("Dropping invalid event", "kind", ev.Kind, "error", err)
			w.Write([]byte("OK"))
			return
		}
		if err != nil {
			log.Error("Failed to handle event", "kind", ev.Kind, "error", err)
			http.Error(w, "Failed to handle event", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

// PreviewEventHandler routes a JSON event in dry run and returns the planned deliveries.
func (s *Server) PreviewEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ev := events.Event{}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBody)).Decode(&ev); err != nil {
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event: " + err.Error()})
			return
		}

		deliveries, err := s.Events.Handle(r.Context(), ev, true)
		switch {
		case errors.Is(err, events.ErrUnknownKind):
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		case err != nil:
			respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		if deliveries == nil {
			deliveries = []notifier.Delivery{}
		}
		respondWithJSON(w, http.StatusOK, previewResponse{Kind: ev.Kind, Deliveries: deliveries})
	}
}

func (s *Server) ListKindsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.Events.Kinds())
	}
}

func respondWithJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
