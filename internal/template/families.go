package template

import (
	"fmt"
	"sort"
)

// Family names. The registry is closed; callers refer to families by these names.
const (
	RoundStarted             = "round_started"
	LatePairing              = "late_pairing"
	GameTime                 = "game_time"
	BeforeGameTime           = "before_game_time"
	UnscheduledGame          = "unscheduled_game"
	GameWarning              = "game_warning"
	AlternateAssignedPairing = "alternate_assigned_pairing"
)

// Side parameters are computed per pairing side.
const (
	ParamSelf     = "self"
	ParamOpponent = "opponent"
	ParamColor    = "color"
	ParamSlackURL = "slack_url"
)

// Shared parameters are computed once per pairing.
const (
	ParamWhite                 = "white"
	ParamWhiteTZ               = "white_tz"
	ParamBlack                 = "black"
	ParamBlackTZ               = "black_tz"
	ParamRound                 = "round"
	ParamSeason                = "season"
	ParamLeague                = "league"
	ParamTimeControl           = "time_control"
	ParamOffset                = "offset"
	ParamContactPeriod         = "contact_period"
	ParamSchedulingChannel     = "scheduling_channel"
	ParamSchedulingChannelLink = "scheduling_channel_link"
	ParamSlackPairings         = "slack_pairings"
	ParamLichessPairings       = "lichess_pairings"
	ParamGamePhrase            = "game_phrase"
	ParamWarning               = "warning"
)

// SideParams lists the parameters every side binding must carry.
var SideParams = []string{ParamSelf, ParamOpponent, ParamColor, ParamSlackURL}

const (
	pairedIntro   = "You have been paired for Round {round} in {season}.\n"
	roundSubject  = "Round {round} - {league}"
	schedulingIM  = "When you have agreed on a time, post it in {scheduling_channel_link}."
	schedulingLi  = "When you have agreed on a time, post it in {scheduling_channel}."
	invalidFooter = "If this was a mistake, please correct it and try again.\n" +
		"If this is not a league game, you may ignore this message."
)

var pairedIM = pairedIntro +
	"{slack_pairings}\n" +
	"Send a direct message to your opponent, <@{opponent}>, as soon as possible.\n" +
	schedulingIM

var pairedMPIM = pairedIntro +
	"{slack_pairings}\n" +
	"Message your opponent here as soon as possible.\n" +
	schedulingIM

var pairedMail = pairedIntro +
	"{lichess_pairings}\n" +
	"Message your opponent on Slack as soon as possible.\n" +
	"{slack_url}\n" +
	schedulingLi

var pairedRequired = []string{ParamRound, ParamSeason, ParamLeague, ParamSlackPairings, ParamLichessPairings,
	ParamSchedulingChannel, ParamSchedulingChannelLink}

var registry = map[string]Family{
	RoundStarted: {
		Name: RoundStarted,
		IM:   pairedIM,
		MPIM: pairedMPIM + "\n\n" +
			"[Experimental] Your team captains have been included this week to help make sure scheduling goes smoothly",
		MailSubject: roundSubject,
		MailBody:    pairedMail,
		Required:    pairedRequired,
	},
	LatePairing: {
		Name:        LatePairing,
		IM:          pairedIM,
		MPIM:        pairedMPIM,
		MailSubject: roundSubject,
		MailBody:    pairedMail,
		Required:    pairedRequired,
	},
	AlternateAssignedPairing: {
		Name:        AlternateAssignedPairing,
		IM:          pairedIM,
		MPIM:        pairedMPIM,
		MailSubject: roundSubject,
		MailBody:    pairedMail,
		Required:    pairedRequired,
	},
	GameTime: {
		Name: GameTime,
		IM: "Your {game_phrase} about to start.\n{slack_pairings}\n" +
			"Send a <https://lichess.org/?user={opponent}#friend|lichess challenge> for a rated {time_control} game as {color}.",
		MPIM:        "Your {game_phrase} about to start.\n{slack_pairings}\nSend a lichess challenge for a rated {time_control} game.",
		MailSubject: roundSubject,
		MailBody: "Your {game_phrase} about to start.\n{lichess_pairings}\n" +
			"Send a challenge for a rated {time_control} game.\n" +
			"https://lichess.org/?user={opponent}#friend",
		Required: []string{ParamGamePhrase, ParamSlackPairings, ParamLichessPairings, ParamTimeControl, ParamRound, ParamLeague},
	},
	BeforeGameTime: {
		Name:        BeforeGameTime,
		IM:          "Reminder: Your game will start in {offset}.\n<@{white}> (_white pieces_) vs <@{black}> (_black pieces_)",
		MPIM:        "Reminder: Your game will start in {offset}.",
		MailSubject: roundSubject,
		MailBody:    "Reminder: Your game will start in {offset}.\n@{white} (white pieces) vs @{black} (black pieces)",
		Required:    []string{ParamOffset, ParamWhite, ParamBlack, ParamRound, ParamLeague},
	},
	UnscheduledGame: {
		Name: UnscheduledGame,
		IM: "Reminder: Your game is currently unscheduled.\n" +
			"<@{white}> (_white pieces_) vs <@{black}> (_black pieces_)\n" +
			schedulingIM + "\n" +
			"If you have any issues, please contact a mod.",
		MPIM: "Reminder: Your game is currently unscheduled.\n" +
			schedulingIM + "\n" +
			"If you have any issues, please contact a mod.",
		MailSubject: roundSubject,
		MailBody: "Reminder: Your game is currently unscheduled.\n" +
			"@{white} (white pieces) vs @{black} (black pieces)\n" +
			schedulingLi + "\n" +
			"If you have any issues, please contact a mod.",
		Required: []string{ParamWhite, ParamBlack, ParamSchedulingChannel, ParamSchedulingChannelLink, ParamRound, ParamLeague},
	},
	GameWarning: {
		Name:        GameWarning,
		IM:          "Important: Your game is not valid because *{warning}*\n" + invalidFooter,
		MPIM:        "Important: Your game is not valid because *{warning}*\n" + invalidFooter,
		MailSubject: roundSubject,
		MailBody:    "Important: Your game is not valid because {warning}\n" + invalidFooter,
		Required:    []string{ParamWarning, ParamRound, ParamLeague},
	},
}

// Lookup returns the named family.
func Lookup(name string) (Family, error) {
	f, ok := registry[name]
	if !ok {
		return Family{}, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
	}
	return f, nil
}

// MustLookup is Lookup for names defined in this package.
func MustLookup(name string) Family {
	f, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Names returns every registered family name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
