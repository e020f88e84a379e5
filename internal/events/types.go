package events

import (
	"time"
)

// Kind names one event of the closed catalog.
type Kind string

// Mod channel events.
const (
	KindLeagueComment              Kind = "league_comment"
	KindRegistrationCreated        Kind = "registration_created"
	KindLateRegistration           Kind = "late_registration"
	KindWithdrawal                 Kind = "withdrawal"
	KindPairingForfeitChanged      Kind = "pairing_forfeit_changed"
	KindPlayerAccountStatusChanged Kind = "player_account_status_changed"
	KindModsUnscheduled            Kind = "mods_unscheduled"
	KindModsNoResult               Kind = "mods_no_result"
	KindModsPendingRegs            Kind = "mods_pending_regs"
	KindModsPairingsPublished      Kind = "mods_pairings_published"
	KindModsRoundStartDone         Kind = "mods_round_start_done"
	KindPairingsGenerated          Kind = "pairings_generated"
	KindNoRoundTransition          Kind = "no_round_transition"
	KindStartingRoundTransition    Kind = "starting_round_transition"
	KindPublishScheduled           Kind = "publish_scheduled"
	KindModRequestCreated          Kind = "mod_request_created"
	KindModRequestApproved         Kind = "mod_request_approved"
	KindModRequestRejected         Kind = "mod_request_rejected"
	KindModsUnresponsive           Kind = "mods_unresponsive"
)

// Player events.
const (
	KindPlayersRoundStart    Kind = "players_round_start"
	KindPlayersLatePairing   Kind = "players_late_pairing"
	KindPlayersGameTime      Kind = "players_game_time"
	KindBeforeGameTime       Kind = "before_game_time"
	KindPlayersUnscheduled   Kind = "players_unscheduled"
	KindGameWarning          Kind = "game_warning"
	KindUnresponsive         Kind = "unresponsive"
	KindSchedulingDrawClaim  Kind = "scheduling_draw_claim"
	KindOpponentUnresponsive Kind = "opponent_unresponsive"
	KindNoShow               Kind = "noshow"
	KindNoShowClaim          Kind = "noshow_claim"
	KindSlackAccountLinked   Kind = "slack_account_linked"
)

// Alternate search events.
const (
	KindAlternateSearchStarted      Kind = "alternate_search_started"
	KindAlternateSearchReminder     Kind = "alternate_search_reminder"
	KindAlternateSearchAllContacted Kind = "alternate_search_all_contacted"
	KindAlternateSearchFailed       Kind = "alternate_search_failed"
	KindAlternateAssigned           Kind = "alternate_assigned"
	KindAlternateNeeded             Kind = "alternate_needed"
	KindAlternateSpotsFilled        Kind = "alternate_spots_filled"
)

// Event is one domain occurrence published by the league website.
// Records are referenced by ID and loaded from the store when the event is handled.
// Which fields are read depends on Kind.
type Event struct {
	ID   string `json:"id,omitempty" msgpack:"id,omitempty"`
	Kind Kind   `json:"kind" msgpack:"kind"`

	LeagueID   string   `json:"league_id,omitempty" msgpack:"league_id,omitempty"`
	SeasonID   string   `json:"season_id,omitempty" msgpack:"season_id,omitempty"`
	RoundID    string   `json:"round_id,omitempty" msgpack:"round_id,omitempty"`
	PairingID  string   `json:"pairing_id,omitempty" msgpack:"pairing_id,omitempty"`
	PairingIDs []string `json:"pairing_ids,omitempty" msgpack:"pairing_ids,omitempty"`
	PlayerID   string   `json:"player_id,omitempty" msgpack:"player_id,omitempty"`
	OpponentID string   `json:"opponent_id,omitempty" msgpack:"opponent_id,omitempty"`
	TeamID     string   `json:"team_id,omitempty" msgpack:"team_id,omitempty"`

	BoardNumber      int    `json:"board_number,omitempty" msgpack:"board_number,omitempty"`
	ReplacedPlayerID string `json:"replaced_player_id,omitempty" msgpack:"replaced_player_id,omitempty"`
	NumberContacted  int    `json:"number_contacted,omitempty" msgpack:"number_contacted,omitempty"`

	// OffsetSeconds is the lead time of a before_game_time reminder.
	OffsetSeconds *int64 `json:"offset_seconds,omitempty" msgpack:"offset_seconds,omitempty"`
	// ResponseTimeSeconds is how long an alternate has to answer.
	ResponseTimeSeconds *int64 `json:"response_time_seconds,omitempty" msgpack:"response_time_seconds,omitempty"`

	AcceptURL    string `json:"accept_url,omitempty" msgpack:"accept_url,omitempty"`
	DeclineURL   string `json:"decline_url,omitempty" msgpack:"decline_url,omitempty"`
	Unresponsive bool   `json:"unresponsive,omitempty" msgpack:"unresponsive,omitempty"`

	Warning   string     `json:"warning,omitempty" msgpack:"warning,omitempty"`
	Messages  []string   `json:"messages,omitempty" msgpack:"messages,omitempty"`
	PublishAt *time.Time `json:"publish_at,omitempty" msgpack:"publish_at,omitempty"`

	OldStatus string `json:"old_status,omitempty" msgpack:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty" msgpack:"new_status,omitempty"`

	Username    string `json:"username,omitempty" msgpack:"username,omitempty"`
	SlackUserID string `json:"slack_user_id,omitempty" msgpack:"slack_user_id,omitempty"`

	Comment      *Comment      `json:"comment,omitempty" msgpack:"comment,omitempty"`
	Registration *Registration `json:"registration,omitempty" msgpack:"registration,omitempty"`
	ModRequest   *ModRequest   `json:"mod_request,omitempty" msgpack:"mod_request,omitempty"`
	Sanction     *Sanction     `json:"sanction,omitempty" msgpack:"sanction,omitempty"`
	Cards        *Cards        `json:"cards,omitempty" msgpack:"cards,omitempty"`
}

// Comment is a moderator note attached to an admin record.
type Comment struct {
	// Author is empty for system-generated comments.
	Author      string `json:"author,omitempty" msgpack:"author,omitempty"`
	Model       string `json:"model" msgpack:"model"`
	ModelName   string `json:"model_name" msgpack:"model_name"`
	ObjectID    string `json:"object_id" msgpack:"object_id"`
	ObjectLabel string `json:"object_label" msgpack:"object_label"`
	Text        string `json:"text" msgpack:"text"`
}

// Registration is a newly created season registration.
type Registration struct {
	ID       string `json:"id" msgpack:"id"`
	Username string `json:"username" msgpack:"username"`
	Rating   int    `json:"rating" msgpack:"rating"`
}

// ModRequest is a player request reviewed by the moderators.
type ModRequest struct {
	ID          string `json:"id" msgpack:"id"`
	Type        string `json:"type" msgpack:"type"`
	RequesterID string `json:"requester_id" msgpack:"requester_id"`
	// ChangedBy is "System" for automatic decisions.
	ChangedBy string `json:"changed_by,omitempty" msgpack:"changed_by,omitempty"`
	Response  string `json:"response,omitempty" msgpack:"response,omitempty"`
}

// Sanction describes the consequence applied to a player.
type Sanction struct {
	Punishment    string `json:"punishment" msgpack:"punishment"`
	AllowContinue bool   `json:"allow_continue" msgpack:"allow_continue"`
}

// Cards lists the players that received each kind of unresponsiveness penalty.
type Cards struct {
	Warnings []string `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
	Yellows  []string `json:"yellows,omitempty" msgpack:"yellows,omitempty"`
	Reds     []string `json:"reds,omitempty" msgpack:"reds,omitempty"`
}

func seconds(s *int64) *time.Duration {
	if s == nil {
		return nil
	}
	d := time.Duration(*s) * time.Second
	return &d
}
