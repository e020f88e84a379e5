// Package dispatch fans a pairing notification out into per-recipient deliveries.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/preference"
	"github.com/mauv0809/league-notifier/internal/template"
)

const defaultSchedulingChannel = "#scheduling"

// PreferenceResolver returns the effective settings of one player.
type PreferenceResolver interface {
	Resolve(ctx context.Context, player *league.Player, t league.NotificationType, leagueID string, offset *time.Duration) preference.Settings
}

// Config holds the chat workspace details used to build conversation links.
type Config struct {
	SlackHost string
	BotName   string
}

// Request is one pairing notification.
type Request struct {
	Type   league.NotificationType
	Group  league.PairingGroup
	Family template.Family
	Offset *time.Duration
	// RestrictTo limits the notification to one side of the pairing.
	RestrictTo *league.Player
	// Extra parameters are added to the shared parameters, e.g. a game warning.
	Extra template.Params
}

// Dispatcher plans and sends pairing notifications.
type Dispatcher struct {
	resolver PreferenceResolver
	metrics  metrics.Metrics
	cfg      Config
}

// New creates a Dispatcher.
func New(resolver PreferenceResolver, m metrics.Metrics, cfg Config) *Dispatcher {
	if cfg.SlackHost == "" {
		cfg.SlackHost = "lichess4545.slack.com"
	}
	return &Dispatcher{resolver: resolver, metrics: m, cfg: cfg}
}

// Dispatch plans the request and hands every delivery to the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, batch *notifier.Batch, req Request) []notifier.Delivery {
	deliveries := d.Plan(ctx, req)
	batch.SendAll(ctx, deliveries)
	return deliveries
}

// Plan computes the deliveries for a request without sending anything.
// Given the same inputs and stored preferences it returns the same deliveries.
func (d *Dispatcher) Plan(ctx context.Context, req Request) []notifier.Delivery {
	if len(req.Group) == 0 {
		return nil
	}
	p := req.Group.First()
	if !p.HasBothSides() {
		log.Debug("Skipping pairing notification for incomplete pairing", "pairing", p.ID, "type", req.Type)
		return nil
	}
	l := p.Round.League()

	whiteSettings := d.resolver.Resolve(ctx, p.White, req.Type, l.ID, req.Offset)
	blackSettings := d.resolver.Resolve(ctx, p.Black, req.Type, l.ID, req.Offset)
	useMPIM := whiteSettings.GroupMessage && blackSettings.GroupMessage && req.Family.MPIM != ""
	sendTo := map[template.Side]bool{
		template.White: req.RestrictTo == nil || req.RestrictTo.Same(p.White),
		template.Black: req.RestrictTo == nil || req.RestrictTo.Same(p.Black),
	}
	settings := map[template.Side]preference.Settings{template.White: whiteSettings, template.Black: blackSettings}
	players := map[template.Side]*league.Player{template.White: p.White, template.Black: p.Black}

	var groupRecipients []notifier.Recipient
	slackURL := map[template.Side]string{}
	if useMPIM {
		groupRecipients = mpimRecipients(p)
		slackURL[template.White] = d.mpimURL(groupRecipients, p.White.Handle())
		slackURL[template.Black] = d.mpimURL(groupRecipients, p.Black.Handle())
	} else {
		slackURL[template.White] = d.dmURL(p.Black.Handle())
		slackURL[template.Black] = d.dmURL(p.White.Handle())
	}

	shared := sharedParams(req, p)
	sides := map[template.Side]template.Params{
		template.White: {
			template.ParamSelf:     string(p.White.Handle()),
			template.ParamOpponent: string(p.Black.Handle()),
			template.ParamColor:    "white",
			template.ParamSlackURL: slackURL[template.White],
		},
		template.Black: {
			template.ParamSelf:     string(p.Black.Handle()),
			template.ParamOpponent: string(p.White.Handle()),
			template.ParamColor:    "black",
			template.ParamSlackURL: slackURL[template.Black],
		},
	}
	rs := template.Bind(req.Family, shared, sides)
	for _, err := range rs.Errors() {
		d.metrics.IncTemplateErrors(req.Family.Name)
		log.Error("Template rendering failed", "family", req.Family.Name, "pairing", p.ID, "type", req.Type, "error", err)
	}

	var out []notifier.Delivery
	for _, side := range template.Sides {
		if !sendTo[side] || !settings[side].ExternalMail {
			continue
		}
		subject, body := rs.MailSubject[side], rs.MailBody[side]
		if subject.OK() && body.OK() {
			out = append(out, notifier.ExternalMail(notifier.RecipientOf(players[side]), subject.Text, body.Text))
		}
	}

	if useMPIM {
		if sendTo[template.White] && rs.MPIM.OK() {
			out = append(out, notifier.GroupMessage(groupRecipients, rs.MPIM.Text))
		}
		return out
	}
	for _, side := range template.Sides {
		s := settings[side]
		if !sendTo[side] || !(s.DirectMessage || s.GroupMessage) {
			continue
		}
		if im := rs.IM[side]; im.OK() {
			out = append(out, notifier.DirectMessage(notifier.RecipientOf(players[side]), im.Text))
		}
	}
	return out
}

func sharedParams(req Request, p *league.Pairing) template.Params {
	round := p.Round
	l := round.League()

	schedulingName, schedulingLink := defaultSchedulingChannel, defaultSchedulingChannel
	if ch, ok := l.SchedulingChannel(); ok {
		schedulingName, schedulingLink = ch.SlackChannel, ch.ChannelLink()
	}
	contact := l.Settings.ContactPeriod

	slackLines := make([]string, len(req.Group))
	lichessLines := make([]string, len(req.Group))
	for i, gp := range req.Group {
		slackLines[i] = gp.SlackString()
		lichessLines[i] = gp.LichessString()
	}
	gamePhrase := "game is"
	if len(req.Group) > 1 {
		gamePhrase = "games are"
	}

	params := template.Params{
		template.ParamWhite:                 string(p.White.Handle()),
		template.ParamWhiteTZ:               p.White.TimezoneString(),
		template.ParamBlack:                 string(p.Black.Handle()),
		template.ParamBlackTZ:               p.Black.TimezoneString(),
		template.ParamRound:                 strconv.Itoa(round.Number),
		template.ParamSeason:                round.Season.Name,
		template.ParamLeague:                l.Name,
		template.ParamTimeControl:           p.TimeControl,
		template.ParamOffset:                template.OffsetString(req.Offset),
		template.ParamContactPeriod:         template.OffsetString(&contact),
		template.ParamSchedulingChannel:     schedulingName,
		template.ParamSchedulingChannelLink: schedulingLink,
		template.ParamSlackPairings:         strings.Join(slackLines, "\n"),
		template.ParamLichessPairings:       strings.Join(lichessLines, "\n"),
		template.ParamGamePhrase:            gamePhrase,
	}
	for k, v := range req.Extra {
		params[k] = v
	}
	return params
}

// mpimRecipients returns white, black and, for team pairings, both captains, without duplicates.
func mpimRecipients(p *league.Pairing) []notifier.Recipient {
	candidates := []*league.Player{p.White, p.Black}
	if p.IsTeam() {
		if p.WhiteTeam != nil && p.WhiteTeam.Captain != nil {
			candidates = append(candidates, p.WhiteTeam.Captain)
		}
		if p.BlackTeam != nil && p.BlackTeam.Captain != nil {
			candidates = append(candidates, p.BlackTeam.Captain)
		}
	}
	seen := make(map[league.DisplayHandle]bool)
	var out []notifier.Recipient
	for _, c := range candidates {
		r := notifier.RecipientOf(c)
		if seen[r.Handle] {
			continue
		}
		seen[r.Handle] = true
		out = append(out, r)
	}
	return out
}

func (d *Dispatcher) mpimURL(recipients []notifier.Recipient, self league.DisplayHandle) string {
	users := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.Handle != self {
			users = append(users, string(r.Handle))
		}
	}
	users = append(users, d.cfg.BotName)
	return fmt.Sprintf("https://%s/messages/@%s/", d.cfg.SlackHost, strings.Join(users, ","))
}

func (d *Dispatcher) dmURL(opponent league.DisplayHandle) string {
	return fmt.Sprintf("https://%s/messages/@%s/", d.cfg.SlackHost, opponent)
}
