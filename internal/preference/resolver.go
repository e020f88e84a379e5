// Package preference resolves the effective delivery settings of a player
// for one notification type.
package preference

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/league"
)

// Settings is the effective, fully-defined delivery configuration.
type Settings struct {
	DirectMessage bool
	GroupMessage  bool
	ExternalMail  bool
}

// defaults holds the global fallback per notification type.
var defaults = map[league.NotificationType]Settings{
	league.NotifyRoundStarted:    {DirectMessage: true, GroupMessage: true},
	league.NotifyBeforeGameTime:  {DirectMessage: true, GroupMessage: true},
	league.NotifyGameTime:        {DirectMessage: true, GroupMessage: true},
	league.NotifyUnscheduledGame: {DirectMessage: true, GroupMessage: true},
	league.NotifyGameWarning:     {DirectMessage: true, GroupMessage: true},
	league.NotifyAlternateNeeded: {DirectMessage: true, GroupMessage: true, ExternalMail: true},
}

// Default returns the global default settings for the type.
// Unknown types get chat enabled and mail disabled.
func Default(t league.NotificationType) Settings {
	if s, ok := defaults[t]; ok {
		return s
	}
	return Settings{DirectMessage: true, GroupMessage: true}
}

func fromRecord(p *league.NotificationPreference) Settings {
	return Settings{
		DirectMessage: p.EnableSlackIM,
		GroupMessage:  p.EnableSlackMPIM,
		ExternalMail:  p.EnableLichessMail,
	}
}

// Resolver looks preferences up most-specific first.
type Resolver struct {
	store league.Store
}

// NewResolver creates a Resolver reading from the given store.
func NewResolver(store league.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve never fails. The lookup chain is: exact (player, type, league, offset),
// then the same without offset, then the league default record, then the global default.
// A store error is logged and treated as a missing record.
func (r *Resolver) Resolve(ctx context.Context, player *league.Player, t league.NotificationType, leagueID string, offset *time.Duration) Settings {
	var keys []league.PreferenceKey
	if player != nil {
		if offset != nil {
			keys = append(keys, league.PreferenceKey{PlayerID: player.ID, Type: t, LeagueID: leagueID, Offset: offset})
		}
		keys = append(keys, league.PreferenceKey{PlayerID: player.ID, Type: t, LeagueID: leagueID})
	}
	keys = append(keys, league.PreferenceKey{Type: t, LeagueID: leagueID})

	for _, key := range keys {
		rec, err := r.store.FindPreference(ctx, key)
		if err != nil {
			log.Warn("Preference lookup failed, falling back", "player", key.PlayerID, "type", t, "league", leagueID, "error", err)
			continue
		}
		if rec != nil {
			return fromRecord(rec)
		}
	}
	return Default(t)
}
