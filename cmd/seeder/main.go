package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/league-notifier/internal/database"
	"github.com/mauv0809/league-notifier/internal/events"
	"github.com/mauv0809/league-notifier/internal/league"
)

const (
	numTeams  = 8
	numBoards = 4
	sampleDir = "sample-events"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "league.db",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := league.New(db)
	startTime := time.Now()
	round, err := seed(context.Background(), store, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatalf("Failed to seed league: %s", err)
	}
	log.Info("Seeded demo league", "round", round.String(), "teams", numTeams, "boards", numBoards, "duration", time.Since(startTime))

	if err := writeSamples(sampleDir, round); err != nil {
		log.Fatalf("Failed to write sample events: %s", err)
	}
	log.Info("Wrote sample events", "dir", sampleDir)
}

// seed creates a team league with one running round where every team is paired.
// Tags and usernames carry a run suffix so the seeder can run more than once.
func seed(ctx context.Context, store league.Store, rng *rand.Rand) (*league.Round, error) {
	run := uuid.NewString()[:8]
	l := &league.League{
		ID: uuid.NewString(), Tag: "demo-" + run, Name: "Demo League " + run, CompetitorType: league.CompetitorTeam,
		EnableNotifications: true,
		Settings: league.LeagueSetting{
			ContactPeriod:               48 * time.Hour,
			NotifyForComments:           true,
			NotifyForRegistrations:      true,
			NotifyForLateregAndWithdraw: true,
			NotifyForForfeits:           true,
		},
		Channels: []league.LeagueChannel{
			{Type: league.ChannelMod, SlackChannel: "#team-mods", SendMessages: true},
			{Type: league.ChannelCaptains, SlackChannel: "#team-captains", SendMessages: true},
			{Type: league.ChannelNoTransition, SlackChannel: "#team-mods", SendMessages: true},
			{Type: league.ChannelScheduling, SlackChannel: "#team-scheduling", SendMessages: false},
		},
	}
	if err := store.SaveLeague(ctx, l); err != nil {
		return nil, err
	}
	for _, t := range []league.NotificationType{league.NotifyRoundStarted, league.NotifyGameTime, league.NotifyUnscheduledGame, league.NotifyGameWarning} {
		pref := &league.NotificationPreference{Type: t, LeagueID: l.ID, EnableSlackIM: true, EnableSlackMPIM: true}
		if err := store.SavePreference(ctx, pref); err != nil {
			return nil, err
		}
	}

	start := time.Now().Add(-7 * 24 * time.Hour)
	season := &league.Season{ID: uuid.NewString(), Tag: "1", Name: "Season 1", StartDate: &start, IsActive: true, AlternatesManagerEnabled: true, League: l}
	if err := store.SaveSeason(ctx, season); err != nil {
		return nil, err
	}
	round := &league.Round{ID: uuid.NewString(), Number: 1, PublishPairings: true, Season: season}
	if err := store.SaveRound(ctx, round); err != nil {
		return nil, err
	}

	teams := make([]*league.Team, numTeams)
	rosters := make([][]*league.Player, numTeams)
	for i := range teams {
		teams[i] = &league.Team{ID: uuid.NewString(), Number: i + 1, Name: fmt.Sprintf("Team %d", i+1)}
		if err := store.SaveTeam(ctx, season.ID, teams[i]); err != nil {
			return nil, err
		}
		for board := 1; board <= numBoards; board++ {
			p := &league.Player{ID: uuid.NewString(), Username: fmt.Sprintf("Seeder%s_%d_%d", run, i+1, board), Timezone: "UTC"}
			if err := store.SavePlayer(ctx, p); err != nil {
				return nil, err
			}
			if err := store.SaveTeamMember(ctx, teams[i].ID, p.ID, board, board == 1); err != nil {
				return nil, err
			}
			rosters[i] = append(rosters[i], p)
		}
	}

	order := rng.Perm(numTeams)
	for i := 0; i+1 < len(order); i += 2 {
		a, b := order[i], order[i+1]
		tp := &league.TeamPairing{ID: uuid.NewString(), WhiteTeam: teams[a], BlackTeam: teams[b], Round: round}
		if err := store.SaveTeamPairing(ctx, tp); err != nil {
			return nil, err
		}
		for board := 1; board <= numBoards; board++ {
			// Colors alternate by board.
			white, black, whiteTeam, blackTeam := rosters[a][board-1], rosters[b][board-1], teams[a], teams[b]
			if board%2 == 0 {
				white, black, whiteTeam, blackTeam = black, white, blackTeam, whiteTeam
			}
			p := &league.Pairing{
				ID: uuid.NewString(), Round: round, TeamPairingID: tp.ID, BoardNumber: board, TimeControl: "45+45",
				White: white, Black: black, WhiteTeam: whiteTeam, BlackTeam: blackTeam,
			}
			if err := store.SavePairing(ctx, p); err != nil {
				return nil, err
			}
		}
	}

	// One player per round sits out so the alternates flow has something to do.
	absent := rosters[rng.Intn(numTeams)][rng.Intn(numBoards)]
	if err := store.SetAvailability(ctx, absent.ID, round.ID, false); err != nil {
		return nil, err
	}
	return round, nil
}

func writeSamples(dir string, round *league.Round) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	samples := map[string]events.Event{
		"players_round_start.json":     {Kind: events.KindPlayersRoundStart, RoundID: round.ID},
		"players_unscheduled.json":     {Kind: events.KindPlayersUnscheduled, RoundID: round.ID},
		"mods_pairings_published.json": {Kind: events.KindModsPairingsPublished, RoundID: round.ID},
		"mods_unscheduled.json":        {Kind: events.KindModsUnscheduled, RoundID: round.ID},
	}
	for name, ev := range samples {
		data, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
