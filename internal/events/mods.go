package events

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/urls"
)

// excludedCommentModels are admin records whose comments are not forwarded.
var excludedCommentModels = map[string]bool{"gamenomination": true}

func (r *Router) leagueComment(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	c := ev.Comment
	if c == nil {
		return fmt.Errorf("%w: missing comment", ErrInvalidEvent)
	}
	if c.Author == "" {
		return skip("system_comment")
	}
	if excludedCommentModels[c.Model] {
		return skip("excluded_model")
	}
	if !sc.League.Settings.NotifyForComments {
		return skip("setting_disabled")
	}
	adminURL := r.urls.AbsURL(urls.AdminChange(c.Model, c.ObjectID))
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("%s commented on %s <%s|%s>:\n>>> %s",
		c.Author, c.ModelName, adminURL, c.ObjectLabel, c.Text))
	return nil
}

func (r *Router) registrationCreated(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	reg := ev.Registration
	if reg == nil {
		return fmt.Errorf("%w: missing registration", ErrInvalidEvent)
	}

	settings := sc.League.Settings
	preSeason := sc.Season.StartDate != nil && r.now().Before(*sc.Season.StartDate)
	if preSeason && !settings.NotifyForPreSeasonRegistrations || !preSeason && !settings.NotifyForRegistrations {
		return skip("setting_disabled")
	}

	pending, err := r.store.PendingRegistrationCount(ctx, sc.Season.ID)
	if err != nil {
		return fmt.Errorf("failed to count pending registrations: %w", err)
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("@%s (%d) has <%s|registered> for %s. <%s|%d pending>",
		reg.Username, reg.Rating,
		r.urls.AbsURL(urls.ReviewRegistration(reg.ID, sc.Season.ID)), sc.League.Name,
		r.urls.AbsURL(urls.PendingRegistrations(sc.Season.ID)), pending))
	return nil
}

func (r *Router) lateRegistration(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	return r.rosterChange(ctx, b, ev, sc, "added")
}

func (r *Router) withdrawal(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	return r.rosterChange(ctx, b, ev, sc, "withdrawn")
}

func (r *Router) rosterChange(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope, action string) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	if !sc.League.Settings.NotifyForLateregAndWithdraw {
		return skip("setting_disabled")
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	manageURL := r.urls.AbsURL(urls.ManagePlayers(sc.Season.ID))
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("@%s <%s|%s> for round %d",
		player.Username, manageURL, action, sc.Round.Number))
	return nil
}

func (r *Router) pairingForfeitChanged(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requirePairing(sc); err != nil {
		return err
	}
	if !sc.League.Settings.NotifyForForfeits {
		return skip("setting_disabled")
	}
	p := sc.Pairing
	result := p.Result
	if result == "" {
		result = "*"
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("@%s vs @%s %s", p.White.Handle(), p.Black.Handle(), result))
	return nil
}

// accountStatusChanged notifies the mods of every league the player plays in or registered for.
func (r *Router) accountStatusChanged(ctx context.Context, b *notifier.Batch, ev *Event, _ *scope) error {
	if ev.OldStatus != "normal" && ev.NewStatus == "closed" {
		return skip("flagged_account_closed")
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	leagues, err := r.store.LeaguesForPlayer(ctx, player.ID)
	if err != nil {
		return fmt.Errorf("failed to load leagues of player: %w", err)
	}

	notified := 0
	for _, l := range leagues {
		if !l.EnableNotifications {
			log.Debug("Notifications disabled for league", "league", l.ID, "kind", ev.Kind)
			continue
		}
		seasonTag := ""
		latest, err := r.store.FindLatestActiveSeason(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("failed to load active season of %s: %w", l.ID, err)
		}
		if latest != nil {
			seasonTag = latest.Tag
		}
		lichessURL := urls.LichessProfile(player.Username)
		profileURL := r.urls.AbsURL(urls.PlayerProfile(l.Tag, seasonTag, player.Username))

		var text string
		if ev.OldStatus == "normal" {
			text = fmt.Sprintf("@%s marked as %s on <%s|lichess>. <%s|Player profile>",
				player.Handle(), ev.NewStatus, lichessURL, profileURL)
		} else {
			text = fmt.Sprintf("@%s <%s|lichess> account status changed from %s to %s. <%s|Player profile>",
				player.Handle(), lichessURL, ev.OldStatus, ev.NewStatus, profileURL)
		}
		r.post(ctx, b, l, league.ChannelMod, text)
		notified++
	}
	if notified == 0 {
		return skip("no_league")
	}
	return nil
}

func pairingList(pairings []*league.Pairing) string {
	strs := make([]string, 0, len(pairings))
	for _, p := range pairings {
		strs = append(strs, fmt.Sprintf("@%s vs @%s", p.White.Handle(), p.Black.Handle()))
	}
	return strings.Join(strs, ", ")
}

// paired drops pairings with a missing side.
func paired(pairings []*league.Pairing) []*league.Pairing {
	var out []*league.Pairing
	for _, p := range pairings {
		if p.HasBothSides() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Router) modsUnscheduled(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	pairings, err := r.store.RoundPairings(ctx, sc.Round.ID, league.PairingFilter{NoResult: true, Unscheduled: true})
	if err != nil {
		return fmt.Errorf("failed to load unscheduled pairings: %w", err)
	}
	pairings = paired(pairings)

	text := fmt.Sprintf("%s - All games are scheduled.", sc.Round)
	if len(pairings) > 0 {
		text = fmt.Sprintf("%s - The following games are unscheduled: %s", sc.Round, pairingList(pairings))
	}
	r.post(ctx, b, sc.League, league.ChannelMod, text)
	return nil
}

func (r *Router) modsNoResult(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	pairings, err := r.store.RoundPairings(ctx, sc.Round.ID, league.PairingFilter{NoResult: true})
	if err != nil {
		return fmt.Errorf("failed to load pairings without result: %w", err)
	}
	pairings = paired(pairings)

	text := fmt.Sprintf("%s - All games have results.", sc.Round)
	if len(pairings) > 0 {
		text = fmt.Sprintf("%s - The following games are missing results: %s", sc.Round, pairingList(pairings))
	}
	r.post(ctx, b, sc.League, league.ChannelMod, text)
	return nil
}

func (r *Router) modsPendingRegs(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	pending, err := r.store.PendingRegistrationCount(ctx, sc.Season.ID)
	if err != nil {
		return fmt.Errorf("failed to count pending registrations: %w", err)
	}
	if pending == 0 {
		return skip("no_pending_registrations")
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("<%s|%d pending registrations>",
		r.urls.AbsURL(urls.PendingRegistrations(sc.Season.ID)), pending))
	return nil
}

func (r *Router) modsPairingsPublished(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("%s pairings published.", sc.Round))
	return nil
}

func (r *Router) modsRoundStartDone(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("%s notifications sent.", sc.Round))
	return nil
}

func (r *Router) pairingsGenerated(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("Pairings generated for round %d. <%s|Review>",
		sc.Round.Number, r.urls.AbsURL(urls.ReviewPairings(sc.Round.ID))))
	return nil
}

func withLines(head string, lines []string) string {
	var sb strings.Builder
	sb.WriteString(head)
	for _, l := range lines {
		sb.WriteString("\n")
		sb.WriteString(l)
	}
	return sb.String()
}

func (r *Router) noRoundTransition(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	r.post(ctx, b, sc.League, league.ChannelNoTransition, withLines("Can't start the round transition.", ev.Messages))
	return nil
}

func (r *Router) startingRoundTransition(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	r.post(ctx, b, sc.League, league.ChannelMod, withLines("Starting automatic round transition...", ev.Messages))
	return nil
}

func (r *Router) publishScheduled(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	if ev.PublishAt == nil {
		return fmt.Errorf("%w: missing publish time", ErrInvalidEvent)
	}
	minutes := int(ev.PublishAt.Sub(r.now()).Minutes())
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("%s pairings will be published in %d minutes.", sc.Round, minutes))
	return nil
}

func (r *Router) modRequestCreated(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	mr := ev.ModRequest
	if mr == nil {
		return fmt.Errorf("%w: missing mod request", ErrInvalidEvent)
	}
	requester, err := r.player(ctx, mr.RequesterID)
	if err != nil {
		return err
	}
	r.post(ctx, b, sc.League, league.ChannelMod, fmt.Sprintf("<@%s> created a request: <%s|%s>",
		requester.Handle(), r.urls.AbsURL(urls.ReviewModRequest(mr.ID)), mr.Type))
	return nil
}

func (r *Router) modRequestApproved(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	return r.modRequestDecided(ctx, b, ev, sc, true)
}

func (r *Router) modRequestRejected(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	return r.modRequestDecided(ctx, b, ev, sc, false)
}

// modRequestDecided tells the mods who decided and then the requester what was decided.
func (r *Router) modRequestDecided(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope, approved bool) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	mr := ev.ModRequest
	if mr == nil {
		return fmt.Errorf("%w: missing mod request", ErrInvalidEvent)
	}
	requester, err := r.player(ctx, mr.RequesterID)
	if err != nil {
		return err
	}

	var text string
	switch {
	case mr.ChangedBy == "System" && approved:
		text = "Auto-approved."
	case mr.ChangedBy == "System":
		text = "Auto-rejected."
	case approved:
		text = fmt.Sprintf("%s approved a request by <@%s>: <%s|%s>",
			mr.ChangedBy, requester.Handle(), r.urls.AbsURL(urls.ReviewModRequest(mr.ID)), mr.Type)
	default:
		text = fmt.Sprintf("@%s rejected a request by <@%s>: <%s|%s>",
			mr.ChangedBy, requester.Handle(), r.urls.AbsURL(urls.ReviewModRequest(mr.ID)), mr.Type)
	}
	if mr.ChangedBy == "System" && mr.Response != "" {
		text += " Response: " + mr.Response
	}
	r.post(ctx, b, sc.League, league.ChannelMod, text)

	decision := "declined"
	if approved {
		decision = "approved"
	}
	toRequester := fmt.Sprintf("Your request for %s (%s) has been %s.", sc.Season, mr.Type, decision)
	if mr.Response != "" {
		toRequester += " " + mr.Response
	}
	r.dm(ctx, b, requester, toRequester)
	return nil
}

func (r *Router) modsUnresponsive(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	cards := ev.Cards
	if cards == nil {
		cards = &Cards{}
	}
	warnings, err := r.playerList(ctx, cards.Warnings)
	if err != nil {
		return err
	}
	yellows, err := r.playerList(ctx, cards.Yellows)
	if err != nil {
		return err
	}
	reds, err := r.playerList(ctx, cards.Reds)
	if err != nil {
		return err
	}
	r.post(ctx, b, sc.League, league.ChannelMod, "The following actions have been taken for unresponsive players:"+
		"\nWarning - "+warnings+
		"\nYellow Card - "+yellows+
		"\nRed Card - "+reds)
	return nil
}

// playerList renders sorted chat mentions of the players.
func (r *Router) playerList(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "(no players)", nil
	}
	handles := make([]string, 0, len(ids))
	for _, id := range ids {
		p, err := r.player(ctx, id)
		if err != nil {
			return "", err
		}
		handles = append(handles, string(p.Handle()))
	}
	sort.Strings(handles)
	for i, h := range handles {
		handles[i] = "<@" + h + ">"
	}
	return strings.Join(handles, ", "), nil
}
