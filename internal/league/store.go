package league

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new league Store backed by the given database.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

var _ Store = (*store)(nil)

func (s *store) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLeague(ctx, leagueID)
}

func (s *store) getLeague(ctx context.Context, leagueID string) (*League, error) {
	var (
		l             League
		competitor    string
		contactPeriod int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tag, name, competitor_type, enable_notifications, contact_period_seconds,
			notify_for_comments, notify_for_registrations, notify_for_pre_season_registrations,
			notify_for_latereg_and_withdraw, notify_for_forfeits
		FROM leagues WHERE id = ?`, leagueID).Scan(
		&l.ID, &l.Tag, &l.Name, &competitor, &l.EnableNotifications, &contactPeriod,
		&l.Settings.NotifyForComments, &l.Settings.NotifyForRegistrations, &l.Settings.NotifyForPreSeasonRegistrations,
		&l.Settings.NotifyForLateregAndWithdraw, &l.Settings.NotifyForForfeits,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("league %s: %w", leagueID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load league %s: %w", leagueID, err)
	}
	l.CompetitorType = CompetitorType(competitor)
	l.Settings.ContactPeriod = time.Duration(contactPeriod) * time.Second

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, slack_channel, slack_channel_id, send_messages
		FROM league_channels WHERE league_id = ? ORDER BY id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load channels for league %s: %w", leagueID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c LeagueChannel
		var channelType string
		if err := rows.Scan(&channelType, &c.SlackChannel, &c.ChannelID, &c.SendMessages); err != nil {
			return nil, err
		}
		c.Type = ChannelType(channelType)
		l.Channels = append(l.Channels, c)
	}
	return &l, rows.Err()
}

func (s *store) GetSeason(ctx context.Context, seasonID string) (*Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSeason(ctx, seasonID)
}

func (s *store) getSeason(ctx context.Context, seasonID string) (*Season, error) {
	var (
		season    Season
		leagueID  string
		startDate sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, league_id, tag, name, start_date, is_active, alternates_manager_enabled
		FROM seasons WHERE id = ?`, seasonID).Scan(
		&season.ID, &leagueID, &season.Tag, &season.Name, &startDate, &season.IsActive, &season.AlternatesManagerEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("season %s: %w", seasonID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load season %s: %w", seasonID, err)
	}
	if startDate.Valid {
		t := time.Unix(startDate.Int64, 0).UTC()
		season.StartDate = &t
	}
	season.League, err = s.getLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return &season, nil
}

func (s *store) GetRound(ctx context.Context, roundID string) (*Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRound(ctx, roundID)
}

func (s *store) getRound(ctx context.Context, roundID string) (*Round, error) {
	var (
		round    Round
		seasonID string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, season_id, number, publish_pairings, is_completed
		FROM rounds WHERE id = ?`, roundID).Scan(
		&round.ID, &seasonID, &round.Number, &round.PublishPairings, &round.IsCompleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load round %s: %w", roundID, err)
	}
	round.Season, err = s.getSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *store) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayer(ctx, playerID)
}

func (s *store) getPlayer(ctx context.Context, playerID string) (*Player, error) {
	var (
		p                 Player
		slackID, timezone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, slack_user_id, timezone, account_status
		FROM players WHERE id = ?`, playerID).Scan(&p.ID, &p.Username, &slackID, &timezone, &p.AccountStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}
	p.SlackUserID = slackID.String
	p.Timezone = timezone.String
	return &p, nil
}

// optionalPlayer loads a nullable player reference.
func (s *store) optionalPlayer(ctx context.Context, id sql.NullString) (*Player, error) {
	if !id.Valid || id.String == "" {
		return nil, nil
	}
	return s.getPlayer(ctx, id.String)
}

func (s *store) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTeam(ctx, teamID)
}

func (s *store) getTeam(ctx context.Context, teamID string) (*Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx, `SELECT id, number, name FROM teams WHERE id = ?`, teamID).Scan(&t.ID, &t.Number, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team %s: %w", teamID, err)
	}

	var captainID string
	err = s.db.QueryRowContext(ctx, `
		SELECT player_id FROM team_members WHERE team_id = ? AND is_captain = 1
		ORDER BY board_number LIMIT 1`, teamID).Scan(&captainID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to load captain of team %s: %w", teamID, err)
	default:
		if t.Captain, err = s.getPlayer(ctx, captainID); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (s *store) optionalTeam(ctx context.Context, id sql.NullString) (*Team, error) {
	if !id.Valid || id.String == "" {
		return nil, nil
	}
	return s.getTeam(ctx, id.String)
}

const pairingColumns = `id, round_id, team_pairing_id, board_number, white_id, black_id, white_team_id, black_team_id,
	time_control, scheduled_time, game_link, result`

func (s *store) GetPairing(ctx context.Context, pairingID string) (*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairings, err := s.queryPairings(ctx, `SELECT `+pairingColumns+` FROM pairings WHERE id = ?`, pairingID)
	if err != nil {
		return nil, err
	}
	if len(pairings) == 0 {
		return nil, fmt.Errorf("pairing %s: %w", pairingID, ErrNotFound)
	}
	return pairings[0], nil
}

// queryPairings scans pairing rows first and resolves references afterwards,
// so that only one result set is open on the connection at a time.
func (s *store) queryPairings(ctx context.Context, query string, args ...any) ([]*Pairing, error) {
	type pairingRow struct {
		p                               Pairing
		roundID                         string
		teamPairingID, whiteID, blackID sql.NullString
		whiteTeamID, blackTeamID        sql.NullString
		scheduled                       sql.NullInt64
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings: %w", err)
	}
	var scanned []pairingRow
	for rows.Next() {
		var r pairingRow
		if err := rows.Scan(&r.p.ID, &r.roundID, &r.teamPairingID, &r.p.BoardNumber, &r.whiteID, &r.blackID,
			&r.whiteTeamID, &r.blackTeamID, &r.p.TimeControl, &r.scheduled, &r.p.GameLink, &r.p.Result); err != nil {
			rows.Close()
			return nil, err
		}
		scanned = append(scanned, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rounds := make(map[string]*Round)
	pairings := make([]*Pairing, 0, len(scanned))
	for _, r := range scanned {
		p := r.p
		p.TeamPairingID = r.teamPairingID.String
		if r.scheduled.Valid {
			t := time.Unix(r.scheduled.Int64, 0).UTC()
			p.ScheduledTime = &t
		}
		if p.White, err = s.optionalPlayer(ctx, r.whiteID); err != nil {
			return nil, err
		}
		if p.Black, err = s.optionalPlayer(ctx, r.blackID); err != nil {
			return nil, err
		}
		if p.WhiteTeam, err = s.optionalTeam(ctx, r.whiteTeamID); err != nil {
			return nil, err
		}
		if p.BlackTeam, err = s.optionalTeam(ctx, r.blackTeamID); err != nil {
			return nil, err
		}
		round, ok := rounds[r.roundID]
		if !ok {
			if round, err = s.getRound(ctx, r.roundID); err != nil {
				return nil, err
			}
			rounds[r.roundID] = round
		}
		p.Round = round
		pairings = append(pairings, &p)
	}
	return pairings, nil
}

func (s *store) FindTeamPairing(ctx context.Context, teamID, roundID string) (*TeamPairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tp TeamPairing
	var whiteID, blackID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, white_team_id, black_team_id FROM team_pairings
		WHERE round_id = ? AND (white_team_id = ? OR black_team_id = ?)
		LIMIT 1`, roundID, teamID, teamID).Scan(&tp.ID, &whiteID, &blackID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find team pairing: %w", err)
	}
	if tp.WhiteTeam, err = s.getTeam(ctx, whiteID); err != nil {
		return nil, err
	}
	if tp.BlackTeam, err = s.getTeam(ctx, blackID); err != nil {
		return nil, err
	}
	if tp.Round, err = s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	return &tp, nil
}

func (s *store) FindRosterPlayer(ctx context.Context, teamID string, boardNumber int) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var playerID string
	err := s.db.QueryRowContext(ctx, `
		SELECT player_id FROM team_members WHERE team_id = ? AND board_number = ?`, teamID, boardNumber).Scan(&playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find roster player: %w", err)
	}
	return s.getPlayer(ctx, playerID)
}

func (s *store) FindPreference(ctx context.Context, key PreferenceKey) (*NotificationPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT player_id, offset_seconds, enable_slack_im, enable_slack_mpim, enable_lichess_mail
		FROM notification_preferences
		WHERE type = ? AND league_id = ?`
	args := []any{string(key.Type), key.LeagueID}
	if key.PlayerID == "" {
		query += ` AND player_id IS NULL`
	} else {
		query += ` AND player_id = ?`
		args = append(args, key.PlayerID)
	}
	if key.Offset == nil {
		query += ` AND offset_seconds IS NULL`
	} else {
		query += ` AND offset_seconds = ?`
		args = append(args, int64(key.Offset.Seconds()))
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var (
		pref     NotificationPreference
		playerID sql.NullString
		offset   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&playerID, &offset, &pref.EnableSlackIM, &pref.EnableSlackMPIM, &pref.EnableLichessMail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preference: %w", err)
	}
	pref.PlayerID = playerID.String
	pref.Type = key.Type
	pref.LeagueID = key.LeagueID
	if offset.Valid {
		d := time.Duration(offset.Int64) * time.Second
		pref.Offset = &d
	}
	return &pref, nil
}

func (s *store) FindLatestActiveSeason(ctx context.Context, leagueID string) (*Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var seasonID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM seasons WHERE league_id = ? AND is_active = 1
		ORDER BY start_date DESC, id DESC LIMIT 1`, leagueID).Scan(&seasonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest season: %w", err)
	}
	return s.getSeason(ctx, seasonID)
}

// BoardPairings returns the active pairings on one board of a team pairing.
func (s *store) BoardPairings(ctx context.Context, teamPairingID string, boardNumber int) ([]*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPairings(ctx, `SELECT `+pairingColumns+` FROM pairings
		WHERE team_pairing_id = ? AND board_number = ? AND result = ''
			AND white_id IS NOT NULL AND black_id IS NOT NULL
		ORDER BY id`, teamPairingID, boardNumber)
}

// RoundPairings returns the round's pairings that have both sides assigned.
func (s *store) RoundPairings(ctx context.Context, roundID string, filter PairingFilter) ([]*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + pairingColumns + ` FROM pairings
		WHERE round_id = ? AND white_id IS NOT NULL AND black_id IS NOT NULL`
	if filter.NoResult {
		query += ` AND result = ''`
	}
	if filter.Unscheduled {
		query += ` AND scheduled_time IS NULL`
	}
	if filter.NoGameLink {
		query += ` AND game_link = ''`
	}
	query += ` ORDER BY team_pairing_id, board_number, id`
	return s.queryPairings(ctx, query, roundID)
}

// PairingGroups returns one group per team pairing (ordered by board) in team
// leagues, and one group per pairing otherwise.
func (s *store) PairingGroups(ctx context.Context, roundID string) ([]PairingGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairings, err := s.queryPairings(ctx, `SELECT `+pairingColumns+` FROM pairings
		WHERE round_id = ? ORDER BY team_pairing_id, board_number, id`, roundID)
	if err != nil {
		return nil, err
	}

	var groups []PairingGroup
	index := make(map[string]int)
	for _, p := range pairings {
		if p.TeamPairingID == "" {
			groups = append(groups, PairingGroup{p})
			continue
		}
		if i, ok := index[p.TeamPairingID]; ok {
			groups[i] = append(groups[i], p)
			continue
		}
		index[p.TeamPairingID] = len(groups)
		groups = append(groups, PairingGroup{p})
	}
	log.Debug("Loaded pairing groups", "round", roundID, "groups", len(groups))
	return groups, nil
}

// IsAvailable treats a missing availability record as available.
func (s *store) IsAvailable(ctx context.Context, playerID, roundID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var available bool
	err := s.db.QueryRowContext(ctx, `
		SELECT is_available FROM player_availability WHERE player_id = ? AND round_id = ?`, playerID, roundID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load availability: %w", err)
	}
	return available, nil
}

func (s *store) UnavailablePlayers(ctx context.Context, roundID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id FROM player_availability WHERE round_id = ? AND is_available = 0`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unavailable players: %w", err)
	}
	defer rows.Close()

	unavailable := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unavailable[id] = true
	}
	return unavailable, rows.Err()
}

func (s *store) PendingRegistrationCount(ctx context.Context, seasonID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registrations WHERE season_id = ? AND status = 'pending'`, seasonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// LeaguesForPlayer returns the leagues in which the player has a roster spot or a pending registration.
func (s *store) LeaguesForPlayer(ctx context.Context, playerID string) ([]*League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT s.league_id FROM team_members tm
			JOIN teams t ON t.id = tm.team_id
			JOIN seasons s ON s.id = t.season_id
		WHERE tm.player_id = ?
		UNION
		SELECT DISTINCT s.league_id FROM registrations r
			JOIN seasons s ON s.id = r.season_id
			JOIN players p ON LOWER(p.username) = LOWER(r.username)
		WHERE p.id = ? AND r.status = 'pending'`, playerID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leagues for player: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	leagues := make([]*League, 0, len(ids))
	for _, id := range ids {
		l, err := s.getLeague(ctx, id)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, l)
	}
	return leagues, nil
}
