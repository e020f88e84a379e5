package league

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by the Get* store methods when the record does not exist.
var ErrNotFound = errors.New("not found")

// store handles all database operations for league entities.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// DisplayHandle is the lower-cased chat/lichess handle of a player.
type DisplayHandle string

// UnknownHandle is used wherever a player reference is missing.
const UnknownHandle DisplayHandle = "?"

// CompetitorType distinguishes team leagues from individual leagues.
type CompetitorType string

const (
	CompetitorTeam       CompetitorType = "team"
	CompetitorIndividual CompetitorType = "individual"
)

// ChannelType is the category a league channel is bound to.
type ChannelType string

const (
	ChannelMod          ChannelType = "mod"
	ChannelCaptains     ChannelType = "captains"
	ChannelNoTransition ChannelType = "no_transition"
	ChannelScheduling   ChannelType = "scheduling"
)

// NotificationType is the preference category a player can opt in or out of.
type NotificationType string

const (
	NotifyRoundStarted    NotificationType = "round_started"
	NotifyBeforeGameTime  NotificationType = "before_game_time"
	NotifyGameTime        NotificationType = "game_time"
	NotifyUnscheduledGame NotificationType = "unscheduled_game"
	NotifyGameWarning     NotificationType = "game_warning"
	NotifyAlternateNeeded NotificationType = "alternate_needed"
)

// Player is a league participant.
type Player struct {
	ID            string `json:"id" msgpack:"id"`
	Username      string `json:"username" msgpack:"username"`
	SlackUserID   string `json:"slack_user_id,omitempty" msgpack:"slack_user_id,omitempty"`
	Timezone      string `json:"timezone,omitempty" msgpack:"timezone,omitempty"`
	AccountStatus string `json:"account_status,omitempty" msgpack:"account_status,omitempty"`
}

// Handle returns the display handle of the player, or UnknownHandle for a nil player.
func (p *Player) Handle() DisplayHandle {
	if p == nil || p.Username == "" {
		return UnknownHandle
	}
	return DisplayHandle(strings.ToLower(p.Username))
}

// TimezoneString mirrors what players see in their profile.
func (p *Player) TimezoneString() string {
	if p == nil || p.Timezone == "" {
		return "unknown"
	}
	return p.Timezone
}

// Same reports whether two player references point at the same player.
func (p *Player) Same(other *Player) bool {
	if p == nil || other == nil {
		return p == nil && other == nil
	}
	return p.ID == other.ID
}

// Team is one roster in a team league season.
type Team struct {
	ID      string
	Number  int
	Name    string
	Captain *Player
}

// LeagueSetting holds the per-league toggles for mod notifications.
type LeagueSetting struct {
	ContactPeriod                   time.Duration
	NotifyForComments               bool
	NotifyForRegistrations          bool
	NotifyForPreSeasonRegistrations bool
	NotifyForLateregAndWithdraw     bool
	NotifyForForfeits               bool
}

// LeagueChannel binds a notification category to a chat channel.
type LeagueChannel struct {
	Type         ChannelType
	SlackChannel string
	ChannelID    string
	SendMessages bool
}

// ChannelLink renders the channel as a chat link when the channel ID is known.
func (c LeagueChannel) ChannelLink() string {
	if c.ChannelID == "" {
		return c.SlackChannel
	}
	return fmt.Sprintf("<#%s|%s>", c.ChannelID, strings.TrimPrefix(c.SlackChannel, "#"))
}

// League is the top-level competition tenant.
type League struct {
	ID                  string
	Tag                 string
	Name                string
	CompetitorType      CompetitorType
	EnableNotifications bool
	Settings            LeagueSetting
	Channels            []LeagueChannel
}

// ChannelsFor returns the channels of the given type that accept messages.
func (l *League) ChannelsFor(t ChannelType) []LeagueChannel {
	var out []LeagueChannel
	for _, c := range l.Channels {
		if c.Type == t && c.SendMessages {
			out = append(out, c)
		}
	}
	return out
}

// SchedulingChannel returns the first scheduling channel, if any.
func (l *League) SchedulingChannel() (LeagueChannel, bool) {
	for _, c := range l.Channels {
		if c.Type == ChannelScheduling {
			return c, true
		}
	}
	return LeagueChannel{}, false
}

// Season is a time-boxed instance of a league.
type Season struct {
	ID                       string
	Tag                      string
	Name                     string
	StartDate                *time.Time
	IsActive                 bool
	AlternatesManagerEnabled bool
	League                   *League
}

func (s *Season) String() string {
	return s.Name
}

// Round is the weekly sub-unit of a season.
type Round struct {
	ID              string
	Number          int
	PublishPairings bool
	IsCompleted     bool
	Season          *Season
}

func (r *Round) String() string {
	return fmt.Sprintf("%s - Round %d", r.Season, r.Number)
}

// League is a shortcut for r.Season.League.
func (r *Round) League() *League {
	return r.Season.League
}

// AcceptsPlayerNotifications reports whether pairings are published and the round is still running.
func (r *Round) AcceptsPlayerNotifications() bool {
	return r.PublishPairings && !r.IsCompleted
}

// TeamPairing is the match between two teams in a round.
type TeamPairing struct {
	ID        string
	WhiteTeam *Team
	BlackTeam *Team
	Round     *Round
}

// OpponentOf returns the other team of the pairing.
func (tp *TeamPairing) OpponentOf(team *Team) *Team {
	if tp == nil || team == nil {
		return nil
	}
	if tp.WhiteTeam != nil && tp.WhiteTeam.ID == team.ID {
		return tp.BlackTeam
	}
	return tp.WhiteTeam
}

// Pairing is a single game. Team league pairings carry the teams and board.
type Pairing struct {
	ID            string
	White         *Player
	Black         *Player
	WhiteTeam     *Team
	BlackTeam     *Team
	TeamPairingID string
	BoardNumber   int
	TimeControl   string
	ScheduledTime *time.Time
	GameLink      string
	Result        string
	Round         *Round
}

// IsTeam reports whether the pairing is a board of a team pairing.
func (p *Pairing) IsTeam() bool {
	return p.TeamPairingID != ""
}

// HasBothSides reports whether both players are assigned.
func (p *Pairing) HasBothSides() bool {
	return p.White != nil && p.Black != nil
}

// IsActive reports whether both sides are assigned and no result is recorded.
func (p *Pairing) IsActive() bool {
	return p.HasBothSides() && p.Result == ""
}

// OpponentOf returns the other side of the pairing.
func (p *Pairing) OpponentOf(player *Player) *Player {
	if p.White.Same(player) {
		return p.Black
	}
	return p.White
}

// SideOf returns the player of the pairing belonging to the given team.
func (p *Pairing) SideOf(team *Team) (*Player, *Player) {
	if team != nil && p.WhiteTeam != nil && p.WhiteTeam.ID == team.ID {
		return p.White, p.Black
	}
	return p.Black, p.White
}

// SlackString renders the pairing as one chat line.
func (p *Pairing) SlackString() string {
	return fmt.Sprintf("<@%s> (_white pieces_) vs <@%s> (_black pieces_) @ %s", p.White.Handle(), p.Black.Handle(), p.TimeControl)
}

// LichessString renders the pairing as one mail line.
func (p *Pairing) LichessString() string {
	return fmt.Sprintf("@%s (white pieces) vs @%s (black pieces) @ %s", p.White.Handle(), p.Black.Handle(), p.TimeControl)
}

// PairingGroup is a non-empty set of pairings notified together.
type PairingGroup []*Pairing

// NewPairingGroup builds a group, rejecting an empty set.
func NewPairingGroup(pairings ...*Pairing) (PairingGroup, error) {
	if len(pairings) == 0 {
		return nil, errors.New("pairing group must not be empty")
	}
	return PairingGroup(pairings), nil
}

// First returns the representative pairing of the group.
func (g PairingGroup) First() *Pairing {
	return g[0]
}

// NotificationPreference is a stored opt-in/opt-out record.
// An empty PlayerID marks a league-level default.
type NotificationPreference struct {
	PlayerID          string
	Type              NotificationType
	LeagueID          string
	Offset            *time.Duration
	EnableSlackIM     bool
	EnableSlackMPIM   bool
	EnableLichessMail bool
}

// PreferenceKey identifies a preference record. An empty PlayerID selects the league default.
type PreferenceKey struct {
	PlayerID string
	Type     NotificationType
	LeagueID string
	Offset   *time.Duration
}

// AlternateAssignment describes a roster slot change for one round.
// ReplacedPlayer equal to Player means the incumbent was confirmed.
type AlternateAssignment struct {
	Team           *Team
	Round          *Round
	BoardNumber    int
	ReplacedPlayer *Player
	Player         *Player
}

// IsSelfConfirmation reports whether the incumbent was reassigned to their own slot.
func (aa *AlternateAssignment) IsSelfConfirmation() bool {
	return aa.ReplacedPlayer != nil && aa.Player.Same(aa.ReplacedPlayer)
}

// PairingFilter narrows RoundPairings.
type PairingFilter struct {
	NoResult    bool
	Unscheduled bool
	NoGameLink  bool
}
