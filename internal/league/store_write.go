package league

import (
	"context"
	"database/sql"
	"fmt"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPlayerID(p *Player) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return nullString(p.ID)
}

func nullTeamID(t *Team) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return nullString(t.ID)
}

func (s *store) SavePlayer(ctx context.Context, player *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := player.AccountStatus
	if status == "" {
		status = "normal"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, username, slack_user_id, timezone, account_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			slack_user_id = excluded.slack_user_id,
			timezone = excluded.timezone,
			account_status = excluded.account_status`,
		player.ID, player.Username, nullString(player.SlackUserID), nullString(player.Timezone), status)
	if err != nil {
		return fmt.Errorf("failed to save player %s: %w", player.ID, err)
	}
	return nil
}

// SaveLeague upserts the league and replaces its channel bindings.
func (s *store) SaveLeague(ctx context.Context, league *League) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	competitor := league.CompetitorType
	if competitor == "" {
		competitor = CompetitorTeam
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO leagues (id, tag, name, competitor_type, enable_notifications, contact_period_seconds,
			notify_for_comments, notify_for_registrations, notify_for_pre_season_registrations,
			notify_for_latereg_and_withdraw, notify_for_forfeits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tag = excluded.tag,
			name = excluded.name,
			competitor_type = excluded.competitor_type,
			enable_notifications = excluded.enable_notifications,
			contact_period_seconds = excluded.contact_period_seconds,
			notify_for_comments = excluded.notify_for_comments,
			notify_for_registrations = excluded.notify_for_registrations,
			notify_for_pre_season_registrations = excluded.notify_for_pre_season_registrations,
			notify_for_latereg_and_withdraw = excluded.notify_for_latereg_and_withdraw,
			notify_for_forfeits = excluded.notify_for_forfeits`,
		league.ID, league.Tag, league.Name, string(competitor), league.EnableNotifications,
		int64(league.Settings.ContactPeriod.Seconds()),
		league.Settings.NotifyForComments, league.Settings.NotifyForRegistrations,
		league.Settings.NotifyForPreSeasonRegistrations, league.Settings.NotifyForLateregAndWithdraw,
		league.Settings.NotifyForForfeits)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save league %s: %w", league.ID, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM league_channels WHERE league_id = ?`, league.ID); err != nil {
		tx.Rollback()
		return err
	}
	for _, c := range league.Channels {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO league_channels (league_id, type, slack_channel, slack_channel_id, send_messages)
			VALUES (?, ?, ?, ?, ?)`, league.ID, string(c.Type), c.SlackChannel, c.ChannelID, c.SendMessages)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save channel %s: %w", c.SlackChannel, err)
		}
	}
	return tx.Commit()
}

func (s *store) SaveSeason(ctx context.Context, season *Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var startDate sql.NullInt64
	if season.StartDate != nil {
		startDate = sql.NullInt64{Int64: season.StartDate.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seasons (id, league_id, tag, name, start_date, is_active, alternates_manager_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			league_id = excluded.league_id,
			tag = excluded.tag,
			name = excluded.name,
			start_date = excluded.start_date,
			is_active = excluded.is_active,
			alternates_manager_enabled = excluded.alternates_manager_enabled`,
		season.ID, season.League.ID, season.Tag, season.Name, startDate, season.IsActive, season.AlternatesManagerEnabled)
	if err != nil {
		return fmt.Errorf("failed to save season %s: %w", season.ID, err)
	}
	return nil
}

func (s *store) SaveRound(ctx context.Context, round *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rounds (id, season_id, number, publish_pairings, is_completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			season_id = excluded.season_id,
			number = excluded.number,
			publish_pairings = excluded.publish_pairings,
			is_completed = excluded.is_completed`,
		round.ID, round.Season.ID, round.Number, round.PublishPairings, round.IsCompleted)
	if err != nil {
		return fmt.Errorf("failed to save round %s: %w", round.ID, err)
	}
	return nil
}

func (s *store) SaveTeam(ctx context.Context, seasonID string, team *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, season_id, number, name) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET number = excluded.number, name = excluded.name`,
		team.ID, seasonID, team.Number, team.Name)
	if err != nil {
		return fmt.Errorf("failed to save team %s: %w", team.ID, err)
	}
	return nil
}

func (s *store) SaveTeamMember(ctx context.Context, teamID, playerID string, boardNumber int, isCaptain bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, player_id, board_number, is_captain) VALUES (?, ?, ?, ?)
		ON CONFLICT(team_id, board_number) DO UPDATE SET
			player_id = excluded.player_id,
			is_captain = excluded.is_captain`,
		teamID, playerID, boardNumber, isCaptain)
	if err != nil {
		return fmt.Errorf("failed to save member of team %s: %w", teamID, err)
	}
	return nil
}

func (s *store) SaveTeamPairing(ctx context.Context, tp *TeamPairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_pairings (id, round_id, white_team_id, black_team_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			white_team_id = excluded.white_team_id,
			black_team_id = excluded.black_team_id`,
		tp.ID, tp.Round.ID, tp.WhiteTeam.ID, tp.BlackTeam.ID)
	if err != nil {
		return fmt.Errorf("failed to save team pairing %s: %w", tp.ID, err)
	}
	return nil
}

func (s *store) SavePairing(ctx context.Context, pairing *Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scheduled sql.NullInt64
	if pairing.ScheduledTime != nil {
		scheduled = sql.NullInt64{Int64: pairing.ScheduledTime.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pairings (`+pairingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			white_id = excluded.white_id,
			black_id = excluded.black_id,
			white_team_id = excluded.white_team_id,
			black_team_id = excluded.black_team_id,
			time_control = excluded.time_control,
			scheduled_time = excluded.scheduled_time,
			game_link = excluded.game_link,
			result = excluded.result`,
		pairing.ID, pairing.Round.ID, nullString(pairing.TeamPairingID), pairing.BoardNumber,
		nullPlayerID(pairing.White), nullPlayerID(pairing.Black),
		nullTeamID(pairing.WhiteTeam), nullTeamID(pairing.BlackTeam),
		pairing.TimeControl, scheduled, pairing.GameLink, pairing.Result)
	if err != nil {
		return fmt.Errorf("failed to save pairing %s: %w", pairing.ID, err)
	}
	return nil
}

func (s *store) SavePreference(ctx context.Context, pref *NotificationPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var offset sql.NullInt64
	if pref.Offset != nil {
		offset = sql.NullInt64{Int64: int64(pref.Offset.Seconds()), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences
			(player_id, type, league_id, offset_seconds, enable_slack_im, enable_slack_mpim, enable_lichess_mail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(pref.PlayerID), string(pref.Type), pref.LeagueID, offset,
		pref.EnableSlackIM, pref.EnableSlackMPIM, pref.EnableLichessMail)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

func (s *store) SetAvailability(ctx context.Context, playerID, roundID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_availability (player_id, round_id, is_available) VALUES (?, ?, ?)
		ON CONFLICT(player_id, round_id) DO UPDATE SET is_available = excluded.is_available`,
		playerID, roundID, available)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

func (s *store) SaveRegistration(ctx context.Context, seasonID, username, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (season_id, username, status) VALUES (?, ?, ?)`, seasonID, username, status)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}
