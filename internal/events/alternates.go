package events

import (
	"context"
	"fmt"

	"github.com/mauv0809/league-notifier/internal/alternates"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/notifier"
)

func (r *Router) slot(ctx context.Context, ev *Event, sc *scope) (alternates.Slot, error) {
	if err := requireRound(sc); err != nil {
		return alternates.Slot{}, err
	}
	team, err := r.store.GetTeam(ctx, ev.TeamID)
	if err != nil {
		return alternates.Slot{}, fmt.Errorf("failed to load team %s: %w", ev.TeamID, err)
	}
	return alternates.Slot{Team: team, Round: sc.Round, BoardNumber: ev.BoardNumber}, nil
}

func (r *Router) alternateSearchStarted(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	slot, err := r.slot(ctx, ev, sc)
	if err != nil {
		return err
	}
	return r.alternates.SearchStarted(ctx, b, slot)
}

func (r *Router) alternateSearchReminder(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	slot, err := r.slot(ctx, ev, sc)
	if err != nil {
		return err
	}
	return r.alternates.Reminder(ctx, b, slot)
}

func (r *Router) alternateSearchAllContacted(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	slot, err := r.slot(ctx, ev, sc)
	if err != nil {
		return err
	}
	return r.alternates.AllContacted(ctx, b, slot, ev.NumberContacted)
}

func (r *Router) alternateSearchFailed(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	slot, err := r.slot(ctx, ev, sc)
	if err != nil {
		return err
	}
	return r.alternates.Failed(ctx, b, slot)
}

func (r *Router) alternateAssigned(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	slot, err := r.slot(ctx, ev, sc)
	if err != nil {
		return err
	}
	player, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	var replaced *league.Player
	if ev.ReplacedPlayerID != "" {
		if replaced, err = r.player(ctx, ev.ReplacedPlayerID); err != nil {
			return err
		}
	}
	_, err = r.alternates.Assigned(ctx, b, &league.AlternateAssignment{
		Team:           slot.Team,
		Round:          slot.Round,
		BoardNumber:    slot.BoardNumber,
		ReplacedPlayer: replaced,
		Player:         player,
	})
	return err
}

func (r *Router) alternateNeeded(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	if err := requireRound(sc); err != nil {
		return err
	}
	alternate, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	req := alternates.NeededRequest{
		Alternate:    alternate,
		Round:        sc.Round,
		ResponseTime: seconds(ev.ResponseTimeSeconds),
		AcceptURL:    ev.AcceptURL,
		DeclineURL:   ev.DeclineURL,
	}
	if ev.TeamID != "" {
		slot, err := r.slot(ctx, ev, sc)
		if err != nil {
			return err
		}
		req.Slot = &slot
	}
	return r.alternates.AlternateNeeded(ctx, b, req)
}

func (r *Router) alternateSpotsFilled(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error {
	alternate, err := r.player(ctx, ev.PlayerID)
	if err != nil {
		return err
	}
	r.alternates.SpotsFilled(ctx, b, alternate, ev.Unresponsive, seconds(ev.ResponseTimeSeconds))
	return nil
}
