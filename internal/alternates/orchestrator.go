// Package alternates notifies players and captains while a vacated roster slot is being filled.
package alternates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/dispatch"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/template"
	"github.com/mauv0809/league-notifier/internal/urls"
)

// Orchestrator generates the notifications of every alternate search step.
type Orchestrator struct {
	store      league.Store
	dispatcher *dispatch.Dispatcher
	resolver   dispatch.PreferenceResolver
	urls       urls.Builder
	cfg        dispatch.Config
	searches   *Registry
}

// New creates an Orchestrator.
func New(store league.Store, dispatcher *dispatch.Dispatcher, resolver dispatch.PreferenceResolver, builder urls.Builder, cfg dispatch.Config) *Orchestrator {
	if cfg.SlackHost == "" {
		cfg.SlackHost = "lichess4545.slack.com"
	}
	return &Orchestrator{
		store:      store,
		dispatcher: dispatcher,
		resolver:   resolver,
		urls:       builder,
		cfg:        cfg,
		searches:   NewRegistry(),
	}
}

// Searches exposes the registry of active searches.
func (o *Orchestrator) Searches() *Registry {
	return o.searches
}

func dm(p *league.Player, text string) notifier.Delivery {
	return notifier.DirectMessage(notifier.RecipientOf(p), text)
}

// CaptainsPing addresses the captain of the team and, once paired, the opposing captain.
// The ": " suffix is present even when no captain is known.
func (o *Orchestrator) CaptainsPing(ctx context.Context, team *league.Team, round *league.Round) (string, error) {
	captains := []*league.Player{team.Captain}
	tp, err := o.store.FindTeamPairing(ctx, team.ID, round.ID)
	if err != nil {
		return "", err
	}
	if opp := tp.OpponentOf(team); opp != nil {
		captains = append(captains, opp.Captain)
	}
	var pings []string
	for _, c := range captains {
		if c != nil {
			pings = append(pings, fmt.Sprintf("<@%s>", c.Handle()))
		}
	}
	return strings.Join(pings, ", ") + ": ", nil
}

func (o *Orchestrator) captainsPing(ctx context.Context, slot Slot) (string, error) {
	ping, err := o.CaptainsPing(ctx, slot.Team, slot.Round)
	if err != nil {
		return "", fmt.Errorf("failed to resolve captains: %w", err)
	}
	return ping, nil
}

func (o *Orchestrator) postCaptains(ctx context.Context, batch *notifier.Batch, slot Slot, text string) error {
	ping, err := o.captainsPing(ctx, slot)
	if err != nil {
		return err
	}
	batch.SendAll(ctx, notifier.ChannelPosts(slot.Round.League(), league.ChannelCaptains, ping+text))
	return nil
}

// boardPairing returns the active pairing of the slot, or nil before the round is paired.
func (o *Orchestrator) boardPairing(ctx context.Context, slot Slot) (*league.Pairing, error) {
	tp, err := o.store.FindTeamPairing(ctx, slot.Team.ID, slot.Round.ID)
	if err != nil || tp == nil {
		return nil, err
	}
	pairings, err := o.store.BoardPairings(ctx, tp.ID, slot.BoardNumber)
	if err != nil || len(pairings) == 0 {
		return nil, err
	}
	return pairings[0], nil
}

// incumbent is the team's player on the board: from the pairing once paired, else from the roster.
func (o *Orchestrator) incumbent(ctx context.Context, slot Slot, pairing *league.Pairing) (*league.Player, error) {
	if pairing != nil {
		self, _ := pairing.SideOf(slot.Team)
		return self, nil
	}
	return o.store.FindRosterPlayer(ctx, slot.Team.ID, slot.BoardNumber)
}

// SearchStarted tells the incumbent and the available opponent about the search, then pings the captains.
// Every lookup happens before the first send.
func (o *Orchestrator) SearchStarted(ctx context.Context, batch *notifier.Batch, slot Slot) error {
	pairing, err := o.boardPairing(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to load board pairing: %w", err)
	}
	player, err := o.incumbent(ctx, slot, pairing)
	if err != nil {
		return fmt.Errorf("failed to load incumbent: %w", err)
	}
	var opponent *league.Player
	if pairing != nil {
		if _, opp := pairing.SideOf(slot.Team); opp != nil {
			available, err := o.store.IsAvailable(ctx, opp.ID, slot.Round.ID)
			if err != nil {
				return fmt.Errorf("failed to load availability: %w", err)
			}
			if available {
				opponent = opp
			}
		}
	}
	ping, err := o.captainsPing(ctx, slot)
	if err != nil {
		return err
	}
	o.searches.start(slot)

	if player != nil {
		batch.Send(ctx, dm(player, fmt.Sprintf(
			"@%s: I am searching for an alternate to replace you for round %d, since you have been marked as unavailable. "+
				"If this is a mistake, please contact a mod as soon as possible.",
			player.Handle(), slot.Round.Number)))
	}
	if opponent != nil {
		batch.Send(ctx, dm(opponent, fmt.Sprintf(
			"@%s: Your opponent, @%s, has been marked as unavailable. I am searching for an alternate for you to play, please be patient.",
			opponent.Handle(), player.Handle())))
	}
	batch.SendAll(ctx, notifier.ChannelPosts(slot.Round.League(), league.ChannelCaptains, ping+fmt.Sprintf(
		`I have started searching for an alternate for <@%s> on board %d of "%s" in round %d.`,
		player.Handle(), slot.BoardNumber, slot.Team.Name, slot.Round.Number)))
	return nil
}

// Reminder re-broadcasts the search status to the captains. Nothing is sent before the board is paired.
func (o *Orchestrator) Reminder(ctx context.Context, batch *notifier.Batch, slot Slot) error {
	o.searches.remind(slot)

	pairing, err := o.boardPairing(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to load board pairing: %w", err)
	}
	if pairing == nil {
		log.Debug("No board pairing for reminder", "team", slot.Team.ID, "round", slot.Round.ID, "board", slot.BoardNumber)
		return nil
	}
	player, _ := pairing.SideOf(slot.Team)
	return o.postCaptains(ctx, batch, slot, fmt.Sprintf(
		`I am still searching for an alternate for <@%s> on board %d of "%s" in round %d.`,
		player.Handle(), slot.BoardNumber, slot.Team.Name, slot.Round.Number))
}

// AllContacted tells the captains every eligible alternate was messaged. Terminal for the search.
func (o *Orchestrator) AllContacted(ctx context.Context, batch *notifier.Batch, slot Slot, numberContacted int) error {
	o.searches.finish(slot.Key(), AllContacted)
	return o.postCaptains(ctx, batch, slot, fmt.Sprintf(
		`I have messaged every eligible alternate for board %d of "%s". Still waiting for responses from %d.`,
		slot.BoardNumber, slot.Team.Name, numberContacted))
}

// Failed tells the captains no alternate was found. Terminal for the search.
func (o *Orchestrator) Failed(ctx context.Context, batch *notifier.Batch, slot Slot) error {
	o.searches.finish(slot.Key(), Failed)
	return o.postCaptains(ctx, batch, slot, fmt.Sprintf(
		`Sorry, I could not find an alternate for board %d of "%s" in round %d.`,
		slot.BoardNumber, slot.Team.Name, slot.Round.Number))
}

// Assigned notifies the assigned player, the opponent and the captains of a roster slot change.
// It returns the opponent when the opponent was notified.
func (o *Orchestrator) Assigned(ctx context.Context, batch *notifier.Batch, aa *league.AlternateAssignment) (*league.Player, error) {
	if aa.Team == nil || aa.Round == nil || aa.Player == nil {
		return nil, fmt.Errorf("incomplete alternate assignment")
	}
	slot := Slot{Team: aa.Team, Round: aa.Round, BoardNumber: aa.BoardNumber}
	// Captains are resolved before any player is messaged.
	ping, err := o.captainsPing(ctx, slot)
	if err != nil {
		return nil, err
	}

	opponent, err := o.notifyAlternateAndOpponent(ctx, batch, aa)
	if err != nil {
		return nil, err
	}
	o.searches.finish(slot.Key(), Found)

	opponentNotified := ""
	if opponent != nil {
		opponentNotified = fmt.Sprintf(" Their opponent, @%s, has been notified.", opponent.Handle())
	}
	var text string
	if aa.IsSelfConfirmation() {
		text = fmt.Sprintf(`I have reassigned <@%s> to play on board %d of "%s" for round %d.%s`,
			aa.Player.Handle(), aa.BoardNumber, aa.Team.Name, aa.Round.Number, opponentNotified)
	} else {
		text = fmt.Sprintf(`I have assigned <@%s> to play on board %d of "%s" in place of <@%s> for round %d.%s`,
			aa.Player.Handle(), aa.BoardNumber, aa.Team.Name, aa.ReplacedPlayer.Handle(), aa.Round.Number, opponentNotified)
	}
	batch.SendAll(ctx, notifier.ChannelPosts(aa.Round.League(), league.ChannelCaptains, ping+text))
	return opponent, nil
}

// notifyAlternateAndOpponent loads everything it needs before its first send.
func (o *Orchestrator) notifyAlternateAndOpponent(ctx context.Context, batch *notifier.Batch, aa *league.AlternateAssignment) (*league.Player, error) {
	captainText := ""
	if aa.Team.Captain != nil {
		captainText = fmt.Sprintf(" The team captain is <@%s>.", aa.Team.Captain.Handle())
	}
	youWillPlay := fmt.Sprintf(`@%s: You will be playing on board %d of "%s" for round %d.%s`,
		aa.Player.Handle(), aa.BoardNumber, aa.Team.Name, aa.Round.Number, captainText)

	tp, err := o.store.FindTeamPairing(ctx, aa.Team.ID, aa.Round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team pairing: %w", err)
	}
	if tp == nil {
		// Round hasn't started yet
		batch.Send(ctx, dm(aa.Player, youWillPlay))
		return nil, nil
	}
	pairings, err := o.store.BoardPairings(ctx, tp.ID, aa.BoardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load board pairings: %w", err)
	}
	if len(pairings) == 0 {
		batch.Send(ctx, dm(aa.Player, youWillPlay))
		return nil, nil
	}

	p1 := pairings[0]
	_, opponent := p1.SideOf(aa.Team)
	available, err := o.store.IsAvailable(ctx, opponent.ID, aa.Round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	if !available {
		batch.Send(ctx, dm(aa.Player, fmt.Sprintf(
			"@%s: You are playing on board %d of \"%s\".%s\nI am still searching for another alternate for you to play, please be patient.",
			aa.Player.Handle(), aa.BoardNumber, aa.Team.Name, captainText)))
		return nil, nil
	}

	batch.Send(ctx, dm(aa.Player, fmt.Sprintf(
		"@%s: You are playing on board %d of \"%s\".%s\nPlease contact your opponent, <@%s>, as soon as possible.",
		aa.Player.Handle(), aa.BoardNumber, aa.Team.Name, captainText, opponent.Handle())))

	var toOpponent string
	switch {
	case aa.IsSelfConfirmation():
		toOpponent = fmt.Sprintf("@%s: Your opponent, <@%s>, no longer requires an alternate. Please contact <@%s> as soon as possible.",
			opponent.Handle(), aa.ReplacedPlayer.Handle(), aa.ReplacedPlayer.Handle())
	case aa.ReplacedPlayer != nil:
		toOpponent = fmt.Sprintf("@%s: Your opponent, @%s, has been replaced by an alternate. Please contact your new opponent, <@%s>, as soon as possible.",
			opponent.Handle(), aa.ReplacedPlayer.Handle(), aa.Player.Handle())
	default:
		toOpponent = fmt.Sprintf("@%s: Your opponent has been replaced by an alternate. Please contact your new opponent, <@%s>, as soon as possible.",
			opponent.Handle(), aa.Player.Handle())
	}
	batch.Send(ctx, dm(opponent, toOpponent))

	o.dispatcher.Dispatch(ctx, batch, dispatch.Request{
		Type:   league.NotifyRoundStarted,
		Group:  league.PairingGroup(pairings),
		Family: template.MustLookup(template.AlternateAssignedPairing),
	})
	return opponent, nil
}

// NeededRequest asks one alternate to fill a spot.
type NeededRequest struct {
	Alternate    *league.Player
	Round        *league.Round
	ResponseTime *time.Duration
	AcceptURL    string
	DeclineURL   string
	// Slot is set when the request belongs to a tracked search.
	Slot *Slot
}

// AlternateNeeded always messages the alternate; mail follows the alternate's preference.
func (o *Orchestrator) AlternateNeeded(ctx context.Context, batch *notifier.Batch, req NeededRequest) error {
	if req.Alternate == nil || req.Round == nil {
		return fmt.Errorf("incomplete alternate request")
	}
	l := req.Round.League()
	roundStr := fmt.Sprintf("round %d", req.Round.Number)
	if req.Round.PublishPairings {
		roundStr = "this round"
	}

	batch.Send(ctx, dm(req.Alternate, fmt.Sprintf(
		"@%s: A team needs an alternate for %s. Would you like to play? Please click one of the following links within %s."+
			"\n<%s|Yes, I want to play>\n<%s|No, maybe next week>",
		req.Alternate.Handle(), roundStr, template.OffsetString(req.ResponseTime),
		o.urls.AbsURL(req.AcceptURL), o.urls.AbsURL(req.DeclineURL))))

	settings := o.resolver.Resolve(ctx, req.Alternate, league.NotifyAlternateNeeded, l.ID, nil)
	if settings.ExternalMail {
		batch.Send(ctx, notifier.ExternalMail(notifier.RecipientOf(req.Alternate),
			fmt.Sprintf("Round %d - %s", req.Round.Number, l.Name),
			fmt.Sprintf("A team needs an alternate for %s. Please check Slack for more information.\nhttps://%s/messages/@%s/",
				roundStr, o.cfg.SlackHost, o.cfg.BotName)))
	}

	if req.Slot != nil {
		o.searches.RecordContacted(req.Slot.Key(), req.Alternate.Handle())
	}
	log.Debug("Alternate contacted", "alternate", req.Alternate.Handle(), "round", req.Round.ID)
	return nil
}

// SpotsFilled tells an alternate that no spot is left for them.
func (o *Orchestrator) SpotsFilled(ctx context.Context, batch *notifier.Batch, alternate *league.Player, unresponsive bool, responseTime *time.Duration) {
	text := "All available alternate spots have now been filled. You'll be notified again if another spot opens."
	if unresponsive {
		text = fmt.Sprintf("All available alternate spots have now been filled. "+
			"You've been moved to the bottom of the list since you didn't respond within %s.", template.OffsetString(responseTime))
	}
	batch.Send(ctx, dm(alternate, text))
}
