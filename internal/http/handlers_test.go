package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mauv0809/league-notifier/internal/config"
	"github.com/mauv0809/league-notifier/internal/events"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type handleCall struct {
	Event  events.Event
	DryRun bool
}

type mockEventHandler struct {
	mu         sync.Mutex
	HandleFunc func(ev events.Event, dryRun bool) ([]notifier.Delivery, error)
	Calls      []handleCall
}

func (m *mockEventHandler) Handle(ctx context.Context, ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, handleCall{Event: ev, DryRun: dryRun})
	if m.HandleFunc != nil {
		return m.HandleFunc(ev, dryRun)
	}
	return nil, nil
}

func (m *mockEventHandler) Kinds() []events.Kind {
	return []events.Kind{events.KindGameWarning, events.KindPlayersRoundStart}
}

func setupTestServer(t *testing.T) (*Server, *mockEventHandler, *pubsub.MockPubSubClient) {
	t.Helper()
	reg := prometheus.NewRegistry()
	handler := &mockEventHandler{}
	ps := pubsub.NewMock("TEST")
	server := NewServer(handler, metrics.NewService(reg), metrics.NewMetricsHandler(reg), config.Config{}, ps)
	return server, handler, ps
}

func pushBody(t *testing.T, ev events.Event) string {
	t.Helper()
	data, err := msgpack.Marshal(ev)
	require.NoError(t, err)
	return fmt.Sprintf(`{"subscription":"projects/p/subscriptions/league-events-push","message":{"data":%q,"messageId":"m-1"}}`,
		base64.StdEncoding.EncodeToString(data))
}

func TestHealthCheckHandler(t *testing.T) {
	server, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestMetricsHandler(t *testing.T) {
	server, _, _ := setupTestServer(t)
	server.Metrics.IncEventsHandled(string(events.KindGameWarning))

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "game_warning")
}

func TestEventPushHandler(t *testing.T) {
	t.Run("decodes and routes the event", func(t *testing.T) {
		server, handler, ps := setupTestServer(t)
		ev := events.Event{Kind: events.KindGameWarning, PairingID: "p1", Warning: "the time control is wrong"}

		req := httptest.NewRequest(http.MethodPost, "/events?dry_run=true", strings.NewReader(pushBody(t, ev)))
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, handler.Calls, 1)
		assert.True(t, handler.Calls[0].DryRun)
		assert.Equal(t, "m-1", handler.Calls[0].Event.ID)
		assert.Equal(t, "p1", handler.Calls[0].Event.PairingID)
		assert.Equal(t, "the time control is wrong", handler.Calls[0].Event.Warning)
		assert.Len(t, ps.ProcessMessageCalls, 1)
	})

	t.Run("invalid envelopes are rejected", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		for name, body := range map[string]string{
			"not json":   `{`,
			"bad base64": `{"message":{"data":"%%%"}}`,
			"bad data":   `{"message":{"data":"wQ=="}}`,
		} {
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		}
		assert.Empty(t, handler.Calls)
	})

	t.Run("unknown kinds are acknowledged", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		handler.HandleFunc = func(ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
			return nil, fmt.Errorf("%w: %q", events.ErrUnknownKind, ev.Kind)
		}

		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(pushBody(t, events.Event{Kind: "player_sneezed"}))))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("invalid events are acknowledged", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		handler.HandleFunc = func(ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
			return nil, fmt.Errorf("failed to handle %s: %w", ev.Kind, fmt.Errorf("%w: pairing deleted", events.ErrInvalidEvent))
		}

		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(pushBody(t, events.Event{Kind: events.KindBeforeGameTime, PairingID: "deleted"}))))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, handler.Calls, 1)
	})

	t.Run("handler errors ask for redelivery", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		handler.HandleFunc = func(ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
			return nil, errors.New("database is locked")
		}

		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(pushBody(t, events.Event{Kind: events.KindPlayersRoundStart, RoundID: "r1"}))))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("only POST is accepted", func(t *testing.T) {
		server, _, _ := setupTestServer(t)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestPreviewEventHandler(t *testing.T) {
	t.Run("returns the planned deliveries", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		handler.HandleFunc = func(ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
			return []notifier.Delivery{notifier.ChannelMessage("MOD", "Pairings generated for round 3.")}, nil
		}

		body := `{"kind":"pairings_generated","round_id":"r1"}`
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events/preview", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, handler.Calls, 1)
		assert.True(t, handler.Calls[0].DryRun, "preview never sends")
		assert.Equal(t, "r1", handler.Calls[0].Event.RoundID)

		var resp previewResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, events.KindPairingsGenerated, resp.Kind)
		require.Len(t, resp.Deliveries, 1)
		assert.Equal(t, "MOD", resp.Deliveries[0].Target)
	})

	t.Run("no deliveries is an empty list", func(t *testing.T) {
		server, _, _ := setupTestServer(t)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events/preview", strings.NewReader(`{"kind":"mods_pending_regs","season_id":"s1"}`)))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"kind":"mods_pending_regs","deliveries":[]}`, rr.Body.String())
	})

	t.Run("errors", func(t *testing.T) {
		server, handler, _ := setupTestServer(t)
		handler.HandleFunc = func(ev events.Event, dryRun bool) ([]notifier.Delivery, error) {
			if ev.Kind == "player_sneezed" {
				return nil, fmt.Errorf("%w: %q", events.ErrUnknownKind, ev.Kind)
			}
			return nil, errors.New("round missing not found")
		}

		tests := []struct {
			body string
			code int
		}{
			{`not json`, http.StatusBadRequest},
			{`{"kind":"player_sneezed"}`, http.StatusBadRequest},
			{`{"kind":"pairings_generated","round_id":"missing"}`, http.StatusUnprocessableEntity},
		}
		for _, tt := range tests {
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/events/preview", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rr.Code, tt.body)
			assert.Contains(t, rr.Body.String(), `"error"`)
		}
	})
}

func TestListKindsHandler(t *testing.T) {
	server, _, _ := setupTestServer(t)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events/kinds", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["game_warning","players_round_start"]`, rr.Body.String())
}

func TestParamsMiddleware(t *testing.T) {
	var dryRun bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dryRun = isDryRunFromContext(r)
	}), paramsMiddleware)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?dry_run=true&verbose=true", nil))
	assert.True(t, dryRun)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.False(t, dryRun)
}
