package league_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/league-notifier/internal/database"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (league.Store, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return league.New(db), db, teardown
}

// seedTeamRound creates a team league with one round, two teams of two boards and one team pairing.
func seedTeamRound(t *testing.T, store league.Store) *league.Round {
	t.Helper()
	ctx := context.Background()

	l := &league.League{
		ID: "lonewolf", Tag: "team4545", Name: "Team 4545", CompetitorType: league.CompetitorTeam,
		EnableNotifications: true,
		Settings:            league.LeagueSetting{ContactPeriod: 48 * time.Hour, NotifyForForfeits: true},
		Channels: []league.LeagueChannel{
			{Type: league.ChannelMod, SlackChannel: "#mods", ChannelID: "C1", SendMessages: true},
			{Type: league.ChannelScheduling, SlackChannel: "#scheduling", ChannelID: "C2", SendMessages: false},
		},
	}
	require.NoError(t, store.SaveLeague(ctx, l))
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	season := &league.Season{ID: "s1", Tag: "s1", Name: "Season 1", StartDate: &start, IsActive: true, League: l}
	require.NoError(t, store.SaveSeason(ctx, season))
	round := &league.Round{ID: "r1", Number: 1, PublishPairings: true, Season: season}
	require.NoError(t, store.SaveRound(ctx, round))

	for _, p := range []*league.Player{
		{ID: "a1", Username: "Alice", SlackUserID: "U1", Timezone: "UTC"},
		{ID: "a2", Username: "Arthur"},
		{ID: "b1", Username: "Bob"},
		{ID: "b2", Username: "Bea"},
	} {
		require.NoError(t, store.SavePlayer(ctx, p))
	}
	teamA := &league.Team{ID: "ta", Number: 1, Name: "Knights"}
	teamB := &league.Team{ID: "tb", Number: 2, Name: "Rooks"}
	require.NoError(t, store.SaveTeam(ctx, "s1", teamA))
	require.NoError(t, store.SaveTeam(ctx, "s1", teamB))
	require.NoError(t, store.SaveTeamMember(ctx, "ta", "a1", 1, true))
	require.NoError(t, store.SaveTeamMember(ctx, "ta", "a2", 2, false))
	require.NoError(t, store.SaveTeamMember(ctx, "tb", "b1", 1, false))
	require.NoError(t, store.SaveTeamMember(ctx, "tb", "b2", 2, true))

	tp := &league.TeamPairing{ID: "tp1", WhiteTeam: teamA, BlackTeam: teamB, Round: round}
	require.NoError(t, store.SaveTeamPairing(ctx, tp))
	require.NoError(t, store.SavePairing(ctx, &league.Pairing{
		ID: "p1", Round: round, TeamPairingID: "tp1", BoardNumber: 1,
		White: &league.Player{ID: "a1"}, Black: &league.Player{ID: "b1"},
		WhiteTeam: teamA, BlackTeam: teamB, TimeControl: "45+45",
	}))
	require.NoError(t, store.SavePairing(ctx, &league.Pairing{
		ID: "p2", Round: round, TeamPairingID: "tp1", BoardNumber: 2,
		White: &league.Player{ID: "b2"}, Black: &league.Player{ID: "a2"},
		WhiteTeam: teamB, BlackTeam: teamA, TimeControl: "45+45",
	}))
	return round
}

func TestGetRoundLoadsSeasonAndLeague(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)

	round, err := store.GetRound(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Season 1 - Round 1", round.String())
	assert.True(t, round.AcceptsPlayerNotifications())
	require.NotNil(t, round.League())
	assert.Equal(t, league.CompetitorTeam, round.League().CompetitorType)
	assert.Equal(t, 48*time.Hour, round.League().Settings.ContactPeriod)
	assert.Len(t, round.League().Channels, 2)
	assert.Len(t, round.League().ChannelsFor(league.ChannelMod), 1)
	assert.Empty(t, round.League().ChannelsFor(league.ChannelScheduling))
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.GetPlayer(context.Background(), "nobody")
	assert.ErrorIs(t, err, league.ErrNotFound)
	_, err = store.GetRound(context.Background(), "nope")
	assert.ErrorIs(t, err, league.ErrNotFound)
}

func TestGetTeamResolvesCaptain(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)

	team, err := store.GetTeam(context.Background(), "tb")
	require.NoError(t, err)
	require.NotNil(t, team.Captain)
	assert.Equal(t, "b2", team.Captain.ID)
	assert.Equal(t, league.DisplayHandle("bea"), team.Captain.Handle())
}

func TestPairingGroupsGroupsByTeamPairing(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)

	groups, err := store.PairingGroups(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)
	assert.Equal(t, 1, groups[0].First().BoardNumber)
	assert.Equal(t, "alice", string(groups[0].First().White.Handle()))
	assert.Equal(t, "Knights", groups[0].First().WhiteTeam.Name)
}

func TestBoardPairingsSkipsFinishedGames(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	pairings, err := store.BoardPairings(ctx, "tp1", 2)
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	assert.Equal(t, "p2", pairings[0].ID)

	_, err = db.Exec(`UPDATE pairings SET result = '1-0' WHERE id = 'p2'`)
	require.NoError(t, err)
	pairings, err = store.BoardPairings(ctx, "tp1", 2)
	require.NoError(t, err)
	assert.Empty(t, pairings)
}

func TestRoundPairingsFilters(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	_, err := db.Exec(`UPDATE pairings SET scheduled_time = ? WHERE id = 'p1'`, time.Now().Unix())
	require.NoError(t, err)

	all, err := store.RoundPairings(ctx, "r1", league.PairingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unscheduled, err := store.RoundPairings(ctx, "r1", league.PairingFilter{Unscheduled: true, NoResult: true})
	require.NoError(t, err)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, "p2", unscheduled[0].ID)
}

func TestFindTeamPairingAndRoster(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	tp, err := store.FindTeamPairing(ctx, "tb", "r1")
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.Equal(t, "ta", tp.OpponentOf(&league.Team{ID: "tb"}).ID)

	tp, err = store.FindTeamPairing(ctx, "tb", "r2")
	require.NoError(t, err)
	assert.Nil(t, tp)

	p, err := store.FindRosterPlayer(ctx, "ta", 2)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "a2", p.ID)

	p, err = store.FindRosterPlayer(ctx, "ta", 5)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFindPreferenceMatchesExactKey(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	hour := time.Hour
	require.NoError(t, store.SavePreference(ctx, &league.NotificationPreference{
		PlayerID: "a1", Type: league.NotifyBeforeGameTime, LeagueID: "lonewolf", Offset: &hour, EnableSlackIM: true,
	}))
	require.NoError(t, store.SavePreference(ctx, &league.NotificationPreference{
		Type: league.NotifyBeforeGameTime, LeagueID: "lonewolf", EnableLichessMail: true,
	}))

	pref, err := store.FindPreference(ctx, league.PreferenceKey{PlayerID: "a1", Type: league.NotifyBeforeGameTime, LeagueID: "lonewolf", Offset: &hour})
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.True(t, pref.EnableSlackIM)
	require.NotNil(t, pref.Offset)
	assert.Equal(t, time.Hour, *pref.Offset)

	pref, err = store.FindPreference(ctx, league.PreferenceKey{PlayerID: "a1", Type: league.NotifyBeforeGameTime, LeagueID: "lonewolf"})
	require.NoError(t, err)
	assert.Nil(t, pref)

	pref, err = store.FindPreference(ctx, league.PreferenceKey{Type: league.NotifyBeforeGameTime, LeagueID: "lonewolf"})
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Empty(t, pref.PlayerID)
	assert.True(t, pref.EnableLichessMail)
}

func TestAvailability(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	ok, err := store.IsAvailable(ctx, "a1", "r1")
	require.NoError(t, err)
	assert.True(t, ok, "missing record means available")

	require.NoError(t, store.SetAvailability(ctx, "a1", "r1", false))
	ok, err = store.IsAvailable(ctx, "a1", "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	unavailable, err := store.UnavailablePlayers(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a1": true}, unavailable)
}

func TestLeaguesForPlayerAndRegistrations(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	seedTeamRound(t, store)
	ctx := context.Background()

	require.NoError(t, store.SavePlayer(ctx, &league.Player{ID: "n1", Username: "Newbie"}))
	require.NoError(t, store.SaveRegistration(ctx, "s1", "newbie", "pending"))

	count, err := store.PendingRegistrationCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	leagues, err := store.LeaguesForPlayer(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, "lonewolf", leagues[0].ID)

	leagues, err = store.LeaguesForPlayer(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, leagues, 1)

	season, err := store.FindLatestActiveSeason(ctx, "lonewolf")
	require.NoError(t, err)
	require.NotNil(t, season)
	assert.Equal(t, "s1", season.ID)
}
