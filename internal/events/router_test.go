package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/league-notifier/internal/alternates"
	"github.com/mauv0809/league-notifier/internal/dispatch"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/lock"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/preference"
	"github.com/mauv0809/league-notifier/internal/urls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

type fixture struct {
	store    *league.MockStore
	sender   *notifier.Mock
	metrics  *metrics.Mock
	router   *Router
	league   *league.League
	season   *league.Season
	round    *league.Round
	players  map[string]*league.Player
	teams    map[string]*league.Team
	pairings map[string]*league.Pairing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seasonStart := testNow.Add(-24 * time.Hour)
	f := &fixture{
		store:   league.NewMock(),
		sender:  notifier.NewMock(),
		metrics: metrics.NewMock(),
		league: &league.League{
			ID: "lw", Tag: "team4545", Name: "Team 4545", CompetitorType: league.CompetitorTeam,
			EnableNotifications: true,
			Settings: league.LeagueSetting{
				ContactPeriod:                   48 * time.Hour,
				NotifyForComments:               true,
				NotifyForRegistrations:          true,
				NotifyForPreSeasonRegistrations: false,
				NotifyForLateregAndWithdraw:     true,
				NotifyForForfeits:               true,
			},
			Channels: []league.LeagueChannel{
				{Type: league.ChannelMod, SlackChannel: "#mods", ChannelID: "MOD", SendMessages: true},
				{Type: league.ChannelCaptains, SlackChannel: "#captains", ChannelID: "CAP", SendMessages: true},
				{Type: league.ChannelNoTransition, SlackChannel: "#transition", ChannelID: "NT", SendMessages: true},
			},
		},
		players: map[string]*league.Player{
			"a1": {ID: "a1", Username: "Alice", SlackUserID: "U1"},
			"a2": {ID: "a2", Username: "Arthur"},
			"b1": {ID: "b1", Username: "Bob"},
			"b2": {ID: "b2", Username: "Bea"},
			"n1": {ID: "n1", Username: "Nina"},
		},
	}
	f.season = &league.Season{ID: "s1", Tag: "9", Name: "Season 9", StartDate: &seasonStart, IsActive: true, AlternatesManagerEnabled: true, League: f.league}
	f.round = &league.Round{ID: "r1", Number: 3, PublishPairings: true, Season: f.season}
	f.teams = map[string]*league.Team{
		"ta": {ID: "ta", Name: "Knights", Captain: f.players["a1"]},
		"tb": {ID: "tb", Name: "Rooks", Captain: f.players["b2"]},
	}
	f.pairings = map[string]*league.Pairing{
		"p1": {ID: "p1", Round: f.round, TeamPairingID: "tp1", BoardNumber: 1, TimeControl: "45+45",
			White: f.players["a1"], Black: f.players["b1"], WhiteTeam: f.teams["ta"], BlackTeam: f.teams["tb"]},
		"p2": {ID: "p2", Round: f.round, TeamPairingID: "tp1", BoardNumber: 2, TimeControl: "45+45",
			White: f.players["b2"], Black: f.players["a2"], WhiteTeam: f.teams["tb"], BlackTeam: f.teams["ta"]},
	}

	f.store.GetLeagueFunc = func(id string) (*league.League, error) {
		if id == f.league.ID {
			return f.league, nil
		}
		return nil, league.ErrNotFound
	}
	f.store.GetSeasonFunc = func(id string) (*league.Season, error) {
		if id == f.season.ID {
			return f.season, nil
		}
		return nil, league.ErrNotFound
	}
	f.store.GetRoundFunc = func(id string) (*league.Round, error) {
		if id == f.round.ID {
			return f.round, nil
		}
		return nil, league.ErrNotFound
	}
	f.store.GetPlayerFunc = func(id string) (*league.Player, error) {
		if p, ok := f.players[id]; ok {
			return p, nil
		}
		return nil, league.ErrNotFound
	}
	f.store.GetTeamFunc = func(id string) (*league.Team, error) {
		if team, ok := f.teams[id]; ok {
			return team, nil
		}
		return nil, league.ErrNotFound
	}
	f.store.GetPairingFunc = func(id string) (*league.Pairing, error) {
		if p, ok := f.pairings[id]; ok {
			return p, nil
		}
		return nil, league.ErrNotFound
	}

	resolver := preference.NewResolver(f.store)
	cfg := dispatch.Config{BotName: "chesster"}
	dispatcher := dispatch.New(resolver, f.metrics, cfg)
	builder := urls.New("https://www.lichess4545.com")
	orchestrator := alternates.New(f.store, dispatcher, resolver, builder, cfg)
	f.router = NewRouter(f.store, f.sender, f.metrics, dispatcher, orchestrator, builder, lock.New(time.Second), dispatch.NewPacer(0))
	f.router.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) teamPaired() {
	f.store.FindTeamPairingFunc = func(teamID, roundID string) (*league.TeamPairing, error) {
		return &league.TeamPairing{ID: "tp1", WhiteTeam: f.teams["ta"], BlackTeam: f.teams["tb"], Round: f.round}, nil
	}
}

func (f *fixture) handle(t *testing.T, ev Event) []notifier.Delivery {
	t.Helper()
	ds, err := f.router.Handle(context.Background(), ev, false)
	require.NoError(t, err)
	return ds
}

func texts(ds []notifier.Delivery) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Text
	}
	return out
}

func TestRouterCoversCatalog(t *testing.T) {
	f := newFixture(t)
	assert.Len(t, f.router.Kinds(), 38)
	for _, k := range f.router.Kinds() {
		assert.NotNil(t, f.router.routes[k].handle, k)
	}
}

func TestHandle_UnknownKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Handle(context.Background(), Event{Kind: "player_sneezed", RoundID: "r1"}, false)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, 1, f.metrics.EventsSkipped("player_sneezed", "unknown_kind"))
}

func TestHandle_EventWithoutLeague(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Handle(context.Background(), Event{Kind: KindModsPairingsPublished}, false)
	assert.Error(t, err)

	_, err = f.router.Handle(context.Background(), Event{Kind: KindModsPairingsPublished, RoundID: "missing"}, false)
	assert.ErrorIs(t, err, league.ErrNotFound)
}

func TestHandle_InvalidEvents(t *testing.T) {
	t.Run("deleted pairing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.router.Handle(context.Background(), Event{Kind: KindBeforeGameTime, PairingID: "deleted"}, false)
		assert.ErrorIs(t, err, ErrInvalidEvent)
		assert.ErrorIs(t, err, league.ErrNotFound)
		assert.Equal(t, 1, f.metrics.EventsSkipped(string(KindBeforeGameTime), "invalid_event"))
	})

	t.Run("missing player", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.router.Handle(context.Background(), Event{Kind: KindNoShow, SeasonID: "s1", PlayerID: "ghost", OpponentID: "b1"}, false)
		assert.ErrorIs(t, err, ErrInvalidEvent)
		assert.Equal(t, 1, f.metrics.EventsSkipped(string(KindNoShow), "invalid_event"))
		assert.Zero(t, f.metrics.EventsHandled(string(KindNoShow)))
	})

	t.Run("store outage stays retryable", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("connection reset")
		f.store.GetPairingFunc = func(id string) (*league.Pairing, error) {
			return nil, boom
		}

		_, err := f.router.Handle(context.Background(), Event{Kind: KindBeforeGameTime, PairingID: "p1"}, false)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidEvent)
		assert.Zero(t, f.metrics.EventsSkipped(string(KindBeforeGameTime), "invalid_event"))
	})
}

func TestHandle_NotificationsDisabled(t *testing.T) {
	events := []Event{
		{Kind: KindModsPairingsPublished, RoundID: "r1"},
		{Kind: KindPlayersRoundStart, RoundID: "r1"},
		{Kind: KindGameWarning, PairingID: "p1", Warning: "the time control is wrong"},
		{Kind: KindAlternateSearchFailed, RoundID: "r1", TeamID: "ta", BoardNumber: 2},
		{Kind: KindNoRoundTransition, SeasonID: "s1", Messages: []string{"Round 3 is not completed"}},
		{Kind: KindModsUnresponsive, LeagueID: "lw"},
	}
	for _, ev := range events {
		t.Run(string(ev.Kind), func(t *testing.T) {
			f := newFixture(t)
			f.league.EnableNotifications = false

			ds := f.handle(t, ev)
			assert.Empty(t, ds)
			assert.Zero(t, f.sender.TotalCalls())
			assert.Equal(t, 1, f.metrics.EventsSkipped(string(ev.Kind), "notifications_disabled"))
			assert.Empty(t, f.store.PairingGroupsCalls)
		})
	}
}

func TestHandle_RoundStateGate(t *testing.T) {
	for _, kind := range []Kind{KindPlayersRoundStart, KindPlayersUnscheduled} {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			f.round.IsCompleted = true

			ds := f.handle(t, Event{Kind: kind, RoundID: "r1"})
			assert.Empty(t, ds)
			assert.Equal(t, 1, f.metrics.EventsSkipped(string(kind), "round_state"))
		})
	}

	t.Run("late pairing in unpublished round", func(t *testing.T) {
		f := newFixture(t)
		f.round.PublishPairings = false

		ds := f.handle(t, Event{Kind: KindPlayersLatePairing, RoundID: "r1", PairingIDs: []string{"p1"}})
		assert.Empty(t, ds)
	})
}

func TestHandle_TransportFailuresAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.league.Channels = append(f.league.Channels, league.LeagueChannel{Type: league.ChannelMod, SlackChannel: "#mods-2", ChannelID: "MOD2", SendMessages: true})
	f.sender.SendChannelMessageFunc = func(channel, text string) error {
		if channel == "MOD" {
			return errors.New("channel_not_found")
		}
		return nil
	}

	ds := f.handle(t, Event{Kind: KindModsPairingsPublished, RoundID: "r1"})
	assert.Len(t, ds, 2)
	assert.Equal(t, 1, f.metrics.DeliveriesFailed("channel"))
	assert.Equal(t, 1, f.metrics.DeliveriesSent("channel"))
	assert.Equal(t, 1, f.metrics.EventsHandled(string(KindModsPairingsPublished)))
	assert.Len(t, f.metrics.EventDurations(), 1)
}

func TestHandle_DryRunSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.store.PairingGroupsFunc = func(roundID string) ([]league.PairingGroup, error) {
		return []league.PairingGroup{{f.pairings["p1"], f.pairings["p2"]}}, nil
	}

	ds, err := f.router.Handle(context.Background(), Event{Kind: KindPlayersRoundStart, RoundID: "r1"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, ds)
	assert.Zero(t, f.sender.TotalCalls())
}
