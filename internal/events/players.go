package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/dispatch"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/template"
	"github.com/mauv0809/league-notifier/internal/urls"
)

func playerID(p *league.Player) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// managedByAlternates reports whether the alternates manager owns the notifications of this pairing.
func managedByAlternates(season *league.Season, unavailable map[string]bool, p *league.Pairing) bool {
	if !season.AlternatesManagerEnabled {
		return false
	}
	return unavailable[playerID(p.White)] || unavailable[playerID(p.Black)]
}

// paced waits between consecutive sends of a batch. Dry runs are not paced.
func (r *Router) paced(ctx context.Context, b *notifier.Batch, sent int) error {
	if sent == 0 || b.DryRun() {
		return nil
	}
	return r.pacer.Wait(ctx)
}

func (r *Router) playersRoundStart(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	release, err := r.locks.Acquire(ctx, sc.Round.ID)
	if err != nil {
		return err
	}
	defer release()
	// A started batch runs to completion; only the lock wait honors cancellation.
	ctx = context.WithoutCancel(ctx)

	log.Info("Sending round start notifications", "round", sc.Round.String())
	unavailable, err := r.store.UnavailablePlayers(ctx, sc.Round.ID)
	if err != nil {
		return fmt.Errorf("failed to load availability: %w", err)
	}
	groups, err := r.store.PairingGroups(ctx, sc.Round.ID)
	if err != nil {
		return fmt.Errorf("failed to load pairing groups: %w", err)
	}

	family := template.MustLookup(template.RoundStarted)
	sent := 0
	for _, g := range groups {
		if managedByAlternates(sc.Season, unavailable, g.First()) {
			log.Debug("Skipping pairing handled by the alternates manager", "pairing", g.First().ID)
			continue
		}
		if err := r.paced(ctx, b, sent); err != nil {
			return err
		}
		r.dispatcher.Dispatch(ctx, b, dispatch.Request{Type: league.NotifyRoundStarted, Group: g, Family: family})
		sent++
	}
	log.Info("Round start notifications sent", "round", sc.Round.String(), "groups", sent)
	return nil
}

// pairings loads the pairings listed by the event, in order.
func (r *Router) pairings(ctx context.Context, ev *Event) ([]*league.Pairing, error) {
	ids := ev.PairingIDs
	if len(ids) == 0 && ev.PairingID != "" {
		ids = []string{ev.PairingID}
	}
	out := make([]*league.Pairing, 0, len(ids))
	for _, id := range ids {
		p, err := r.store.GetPairing(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load pairing %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Router) playersLatePairing(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	pairings, err := r.pairings(ctx, ev)
	if err != nil {
		return err
	}
	group, err := league.NewPairingGroup(pairings...)
	if err != nil {
		return err
	}
	r.dispatcher.Dispatch(ctx, b, dispatch.Request{
		Type:   league.NotifyRoundStarted,
		Group:  group,
		Family: template.MustLookup(template.LatePairing),
	})
	return nil
}

func (r *Router) playersGameTime(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	pairings, err := r.pairings(ctx, ev)
	if err != nil {
		return err
	}
	var pending []*league.Pairing
	for _, p := range pairings {
		if p.GameLink == "" && p.Result == "" {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return skip("games_started")
	}
	r.dispatcher.Dispatch(ctx, b, dispatch.Request{
		Type:   league.NotifyGameTime,
		Group:  league.PairingGroup(pending),
		Family: template.MustLookup(template.GameTime),
	})
	return nil
}

func (r *Router) beforeGameTime(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requirePairing(sc); err != nil {
		return err
	}
	p := sc.Pairing
	if p.GameLink != "" || p.Result != "" {
		return skip("game_started")
	}
	var restrictTo *league.Player
	if ev.PlayerID != "" {
		player, err := r.player(ctx, ev.PlayerID)
		if err != nil {
			return err
		}
		restrictTo = player
	}
	r.dispatcher.Dispatch(ctx, b, dispatch.Request{
		Type:       league.NotifyBeforeGameTime,
		Group:      league.PairingGroup{p},
		Family:     template.MustLookup(template.BeforeGameTime),
		Offset:     seconds(ev.OffsetSeconds),
		RestrictTo: restrictTo,
	})
	return nil
}

func (r *Router) playersUnscheduled(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	ctx = context.WithoutCancel(ctx)
	unavailable, err := r.store.UnavailablePlayers(ctx, sc.Round.ID)
	if err != nil {
		return fmt.Errorf("failed to load availability: %w", err)
	}
	pairings, err := r.store.RoundPairings(ctx, sc.Round.ID, league.PairingFilter{NoResult: true, NoGameLink: true, Unscheduled: true})
	if err != nil {
		return fmt.Errorf("failed to load unscheduled pairings: %w", err)
	}

	family := template.MustLookup(template.UnscheduledGame)
	sent := 0
	for _, p := range pairings {
		if managedByAlternates(sc.Season, unavailable, p) {
			log.Debug("Skipping pairing handled by the alternates manager", "pairing", p.ID)
			continue
		}
		if err := r.paced(ctx, b, sent); err != nil {
			return err
		}
		r.dispatcher.Dispatch(ctx, b, dispatch.Request{Type: league.NotifyUnscheduledGame, Group: league.PairingGroup{p}, Family: family})
		sent++
	}
	return nil
}

func (r *Router) gameWarning(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requirePairing(sc); err != nil {
		return err
	}
	r.dispatcher.Dispatch(ctx, b, dispatch.Request{
		Type:   league.NotifyGameWarning,
		Group:  league.PairingGroup{sc.Pairing},
		Family: template.MustLookup(template.GameWarning),
		Extra:  template.Params{template.ParamWarning: ev.Warning},
	})
	return nil
}

func (r *Router) modRequestURL(sc *scope, requestType string) string {
	return r.urls.AbsURL(urls.ModRequest(sc.League.Tag, sc.Season.Tag, requestType))
}

func sanctionOf(ev *Event) Sanction {
	if ev.Sanction == nil {
		return Sanction{}
	}
	return *ev.Sanction
}

// unresponsive warns the player and, in team leagues, tells both captains.
func (r *Router) unresponsive(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	s := sanctionOf(ev)
	contact := sc.League.Settings.ContactPeriod

	text := fmt.Sprintf("Notice: You haven't messaged your %s opponent in the provided chat. ", sc.League.Name) +
		fmt.Sprintf("You are required to message your opponent within %s of the round start. ", template.OffsetString(&contact)) +
		s.Punishment + "\n" +
		fmt.Sprintf("If you've messaged your opponent elsewhere, <%s|click here> to send a screenshot to the mods.",
			r.modRequestURL(sc, "appeal_late_response"))
	if s.AllowContinue {
		text += fmt.Sprintf("\nIf you haven't but want to continue playing next round, <%s|click here>.",
			r.modRequestURL(sc, "request_continuation"))
	}
	r.dm(ctx, b, player, text)

	if sc.League.CompetitorType != league.CompetitorTeam {
		return nil
	}
	if err := requirePairing(sc); err != nil {
		return err
	}
	p := sc.Pairing
	team := p.BlackTeam
	if p.White.Same(player) {
		team = p.WhiteTeam
	}
	if team == nil {
		return fmt.Errorf("%w: team pairing without teams", ErrInvalidEvent)
	}
	ping, err := r.alternates.CaptainsPing(ctx, team, sc.Round)
	if err != nil {
		return fmt.Errorf("failed to resolve captains: %w", err)
	}
	r.post(ctx, b, sc.League, league.ChannelCaptains, fmt.Sprintf(`%s<@%s> appears to be unresponsive on board %d of "%s" in round %d.`,
		ping, player.Handle(), p.BoardNumber, team.Name, sc.Round.Number))
	return nil
}

func (r *Router) schedulingDrawClaim(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	r.dm(ctx, b, player, fmt.Sprintf("Notice: Your %s game has been ruled a scheduling draw. ", sc.League.Name)+
		fmt.Sprintf("If you disagree with this, <%s|click here> to appeal. ", r.modRequestURL(sc, "appeal_draw_scheduling"))+
		"Please provide reasons and a screenshot of the conversation with your opponent.")
	return nil
}

func (r *Router) opponentUnresponsive(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if sc.League.CompetitorType == league.CompetitorTeam {
		return skip("team_league")
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	r.dm(ctx, b, player, fmt.Sprintf("Notice: Your %s opponent hasn't messaged you in the provided chat. ", sc.League.Name)+
		"If they haven't contacted you, you're entitled to a win by forfeit. "+
		"Contact a mod to request a new pairing.")
	return nil
}

func (r *Router) noShow(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	opponent, err := r.player(ctx, ev.OpponentID)
	if err != nil {
		return err
	}
	r.dm(ctx, b, player, fmt.Sprintf("Notice: It appears your opponent, <@%s>, has not shown up for your scheduled game time in %s. ",
		opponent.Handle(), sc.League.Name)+
		fmt.Sprintf("To claim a win by forfeit, <%s|click here>.", r.modRequestURL(sc, "claim_win_noshow")))
	return nil
}

func (r *Router) noShowClaim(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireSeason(sc); err != nil {
		return err
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	s := sanctionOf(ev)
	text := fmt.Sprintf("Notice: You didn't show up for your scheduled game time in %s. ", sc.League.Name) +
		"Your opponent has been given a win by forfeit. " +
		s.Punishment + "\n" +
		fmt.Sprintf("To appeal, <%s|click here>.", r.modRequestURL(sc, "appeal_noshow"))
	if s.AllowContinue {
		text += fmt.Sprintf("\nOtherwise, if you want to continue playing next round, <%s|click here>.",
			r.modRequestURL(sc, "request_continuation"))
	}
	r.dm(ctx, b, player, text)
	return nil
}

// slackAccountLinked confirms an account link. It is not tied to a league.
func (r *Router) slackAccountLinked(ctx context.Context, b *notifier.Batch, ev *Event, _ *scope) error {
	if ev.Username == "" || ev.SlackUserID == "" {
		return fmt.Errorf("%w: missing username or chat user id", ErrInvalidEvent)
	}
	to := notifier.Recipient{Handle: league.DisplayHandle(strings.ToLower(ev.Username)), SlackUserID: ev.SlackUserID}
	b.Send(ctx, notifier.DirectMessage(to,
		fmt.Sprintf("Your Slack account has been successfully linked to the lichess account `%s`.", ev.Username)))
	return nil
}
