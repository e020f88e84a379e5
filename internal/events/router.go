// Package events routes league events to the handlers that notify players, captains and moderators.
package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/league-notifier/internal/alternates"
	"github.com/mauv0809/league-notifier/internal/dispatch"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/lock"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/urls"
)

// ErrUnknownKind is returned for events outside the catalog.
var ErrUnknownKind = errors.New("unknown event kind")

// ErrInvalidEvent marks events that cannot succeed on redelivery, such as those
// referencing records that no longer exist.
var ErrInvalidEvent = errors.New("invalid event")

// invalid reports whether err is permanent for the event.
func invalid(err error) bool {
	return errors.Is(err, ErrInvalidEvent) || errors.Is(err, league.ErrNotFound)
}

// skipped marks an event that was handled on purpose without sending anything.
type skipped struct {
	reason string
}

func (s skipped) Error() string {
	return "skipped: " + s.reason
}

func skip(reason string) error {
	return skipped{reason: reason}
}

// scope holds the records an event refers to. League is always set for scoped routes.
type scope struct {
	League  *league.League
	Season  *league.Season
	Round   *league.Round
	Pairing *league.Pairing
}

type handlerFunc func(ctx context.Context, b *notifier.Batch, ev *Event, sc *scope) error

type route struct {
	handle handlerFunc
	// unscoped routes are not bound to one league and gate on their own.
	unscoped bool
	// liveRound requires a round with published pairings that is not completed.
	liveRound bool
}

// Router maps each event kind to exactly one handler.
type Router struct {
	store      league.Store
	sender     notifier.Sender
	metrics    metrics.Metrics
	dispatcher *dispatch.Dispatcher
	alternates *alternates.Orchestrator
	urls       urls.Builder
	locks      *lock.RoundLocks
	pacer      *dispatch.Pacer
	now        func() time.Time

	routes map[Kind]route
}

// NewRouter builds the routing table.
func NewRouter(
	store league.Store,
	sender notifier.Sender,
	m metrics.Metrics,
	dispatcher *dispatch.Dispatcher,
	orchestrator *alternates.Orchestrator,
	builder urls.Builder,
	locks *lock.RoundLocks,
	pacer *dispatch.Pacer,
) *Router {
	r := &Router{
		store:      store,
		sender:     sender,
		metrics:    m,
		dispatcher: dispatcher,
		alternates: orchestrator,
		urls:       builder,
		locks:      locks,
		pacer:      pacer,
		now:        time.Now,
	}
	r.routes = map[Kind]route{
		KindLeagueComment:              {handle: r.leagueComment},
		KindRegistrationCreated:        {handle: r.registrationCreated},
		KindLateRegistration:           {handle: r.lateRegistration},
		KindWithdrawal:                 {handle: r.withdrawal},
		KindPairingForfeitChanged:      {handle: r.pairingForfeitChanged},
		KindPlayerAccountStatusChanged: {handle: r.accountStatusChanged, unscoped: true},
		KindModsUnscheduled:            {handle: r.modsUnscheduled},
		KindModsNoResult:               {handle: r.modsNoResult},
		KindModsPendingRegs:            {handle: r.modsPendingRegs},
		KindModsPairingsPublished:      {handle: r.modsPairingsPublished},
		KindModsRoundStartDone:         {handle: r.modsRoundStartDone},
		KindPairingsGenerated:          {handle: r.pairingsGenerated},
		KindNoRoundTransition:          {handle: r.noRoundTransition},
		KindStartingRoundTransition:    {handle: r.startingRoundTransition},
		KindPublishScheduled:           {handle: r.publishScheduled},
		KindModRequestCreated:          {handle: r.modRequestCreated},
		KindModRequestApproved:         {handle: r.modRequestApproved},
		KindModRequestRejected:         {handle: r.modRequestRejected},
		KindModsUnresponsive:           {handle: r.modsUnresponsive},

		KindPlayersRoundStart:    {handle: r.playersRoundStart, liveRound: true},
		KindPlayersLatePairing:   {handle: r.playersLatePairing, liveRound: true},
		KindPlayersGameTime:      {handle: r.playersGameTime},
		KindBeforeGameTime:       {handle: r.beforeGameTime},
		KindPlayersUnscheduled:   {handle: r.playersUnscheduled, liveRound: true},
		KindGameWarning:          {handle: r.gameWarning},
		KindUnresponsive:         {handle: r.unresponsive},
		KindSchedulingDrawClaim:  {handle: r.schedulingDrawClaim},
		KindOpponentUnresponsive: {handle: r.opponentUnresponsive},
		KindNoShow:               {handle: r.noShow},
		KindNoShowClaim:          {handle: r.noShowClaim},
		KindSlackAccountLinked:   {handle: r.slackAccountLinked, unscoped: true},

		KindAlternateSearchStarted:      {handle: r.alternateSearchStarted},
		KindAlternateSearchReminder:     {handle: r.alternateSearchReminder},
		KindAlternateSearchAllContacted: {handle: r.alternateSearchAllContacted},
		KindAlternateSearchFailed:       {handle: r.alternateSearchFailed},
		KindAlternateAssigned:           {handle: r.alternateAssigned},
		KindAlternateNeeded:             {handle: r.alternateNeeded},
		KindAlternateSpotsFilled:        {handle: r.alternateSpotsFilled},
	}
	return r
}

// Kinds returns every routed kind, sorted.
func (r *Router) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.routes))
	for k := range r.routes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Handle runs the handler of the event and returns the deliveries it attempted.
// Events of leagues with notifications disabled produce no deliveries.
// Transport failures are logged and counted but never returned.
func (r *Router) Handle(ctx context.Context, ev Event, dryRun bool) ([]notifier.Delivery, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	kind := string(ev.Kind)
	rt, ok := r.routes[ev.Kind]
	if !ok {
		r.metrics.IncEventsSkipped(kind, "unknown_kind")
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}

	start := time.Now()
	defer func() {
		r.metrics.ObserveEventDuration(kind, time.Since(start).Seconds())
	}()
	log.Debug("Handling event", "event", ev.ID, "kind", ev.Kind, "dry_run", dryRun)

	var sc *scope
	if !rt.unscoped {
		var err error
		sc, err = r.loadScope(ctx, &ev)
		if err != nil {
			if invalid(err) {
				log.Warn("Dropping invalid event", "event", ev.ID, "kind", ev.Kind, "error", err)
				r.metrics.IncEventsSkipped(kind, "invalid_event")
				return nil, fmt.Errorf("%w: failed to load records of event %s: %w", ErrInvalidEvent, ev.ID, err)
			}
			return nil, fmt.Errorf("failed to load records of event %s: %w", ev.ID, err)
		}
		if !sc.League.EnableNotifications {
			log.Info("Notifications disabled for league", "event", ev.ID, "kind", ev.Kind, "league", sc.League.ID)
			r.metrics.IncEventsSkipped(kind, "notifications_disabled")
			return nil, nil
		}
		if rt.liveRound {
			if sc.Round == nil {
				r.metrics.IncEventsSkipped(kind, "invalid_event")
				return nil, fmt.Errorf("%w: event %s of kind %s requires a round", ErrInvalidEvent, ev.ID, ev.Kind)
			}
			if !sc.Round.AcceptsPlayerNotifications() {
				log.Error("Could not send notifications due to incorrect round state", "event", ev.ID, "kind", ev.Kind, "round", sc.Round.String())
				r.metrics.IncEventsSkipped(kind, "round_state")
				return nil, nil
			}
		}
	}

	batch := notifier.NewBatch(r.sender, r.metrics, dryRun)
	err := rt.handle(ctx, batch, &ev, sc)

	var s skipped
	if errors.As(err, &s) {
		log.Debug("Event skipped", "event", ev.ID, "kind", ev.Kind, "reason", s.reason)
		r.metrics.IncEventsSkipped(kind, s.reason)
		return batch.Deliveries(), nil
	}
	if err != nil && invalid(err) {
		log.Warn("Dropping invalid event", "event", ev.ID, "kind", ev.Kind, "error", err)
		r.metrics.IncEventsSkipped(kind, "invalid_event")
		if !errors.Is(err, ErrInvalidEvent) {
			err = fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		return batch.Deliveries(), fmt.Errorf("failed to handle %s: %w", ev.Kind, err)
	}
	if err != nil {
		log.Error("Failed to handle event", "event", ev.ID, "kind", ev.Kind, "error", err)
		return batch.Deliveries(), fmt.Errorf("failed to handle %s: %w", ev.Kind, err)
	}

	r.metrics.IncEventsHandled(kind)
	deliveries := batch.Deliveries()
	log.Info("Event handled", "event", ev.ID, "kind", ev.Kind, "deliveries", len(deliveries), "failed", batch.Failed(), "dry_run", dryRun)
	return deliveries, nil
}

// loadScope resolves the most specific reference of the event and walks up to its league.
func (r *Router) loadScope(ctx context.Context, ev *Event) (*scope, error) {
	sc := &scope{}

	pairingID := ev.PairingID
	if pairingID == "" && ev.RoundID == "" && len(ev.PairingIDs) > 0 {
		pairingID = ev.PairingIDs[0]
	}
	switch {
	case pairingID != "":
		p, err := r.store.GetPairing(ctx, pairingID)
		if err != nil {
			return nil, err
		}
		sc.Pairing, sc.Round = p, p.Round
	case ev.RoundID != "":
		round, err := r.store.GetRound(ctx, ev.RoundID)
		if err != nil {
			return nil, err
		}
		sc.Round = round
	}

	switch {
	case sc.Round != nil:
		sc.Season = sc.Round.Season
	case ev.SeasonID != "":
		season, err := r.store.GetSeason(ctx, ev.SeasonID)
		if err != nil {
			return nil, err
		}
		sc.Season = season
	}

	switch {
	case sc.Season != nil:
		sc.League = sc.Season.League
	case ev.LeagueID != "":
		l, err := r.store.GetLeague(ctx, ev.LeagueID)
		if err != nil {
			return nil, err
		}
		sc.League = l
	}
	if sc.League == nil {
		return nil, fmt.Errorf("%w: event does not reference a league", ErrInvalidEvent)
	}
	return sc, nil
}

func (r *Router) post(ctx context.Context, b *notifier.Batch, l *league.League, t league.ChannelType, text string) {
	posts := notifier.ChannelPosts(l, t, text)
	if len(posts) == 0 {
		log.Debug("No channel accepts messages", "league", l.ID, "channel_type", t)
	}
	b.SendAll(ctx, posts)
}

func (r *Router) dm(ctx context.Context, b *notifier.Batch, p *league.Player, text string) {
	b.Send(ctx, notifier.DirectMessage(notifier.RecipientOf(p), text))
}

func (r *Router) player(ctx context.Context, id string) (*league.Player, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing player id", ErrInvalidEvent)
	}
	p, err := r.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}
	return p, nil
}

func requireRound(sc *scope) error {
	if sc.Round == nil {
		return fmt.Errorf("%w: event does not reference a round", ErrInvalidEvent)
	}
	return nil
}

func requireSeason(sc *scope) error {
	if sc.Season == nil {
		return fmt.Errorf("%w: event does not reference a season", ErrInvalidEvent)
	}
	return nil
}

func requirePairing(sc *scope) error {
	if sc.Pairing == nil {
		return fmt.Errorf("%w: event does not reference a pairing", ErrInvalidEvent)
	}
	return nil
}
