package alternates

import (
	"sync"
	"time"

	"github.com/mauv0809/league-notifier/internal/league"
)

// Outcome is the state of an alternate search.
type Outcome string

const (
	Searching    Outcome = "searching"
	Found        Outcome = "found"
	AllContacted Outcome = "all_contacted"
	Failed       Outcome = "failed"
)

// Terminal reports whether the search is over.
func (o Outcome) Terminal() bool {
	return o != Searching
}

// SearchKey identifies one vacated roster slot.
type SearchKey struct {
	RoundID     string
	TeamID      string
	BoardNumber int
}

// Slot is a roster slot of a team for one round.
type Slot struct {
	Team        *league.Team
	Round       *league.Round
	BoardNumber int
}

// Key returns the registry key of the slot.
func (s Slot) Key() SearchKey {
	return SearchKey{RoundID: s.Round.ID, TeamID: s.Team.ID, BoardNumber: s.BoardNumber}
}

// SearchState is the in-progress search for one slot.
type SearchState struct {
	Slot      Slot
	Contacted []league.DisplayHandle
	Reminders int
	Outcome   Outcome
	StartedAt time.Time
}

// Registry holds the searches that have not reached a terminal outcome.
type Registry struct {
	mu       sync.Mutex
	searches map[SearchKey]*SearchState
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{searches: make(map[SearchKey]*SearchState), now: time.Now}
}

func (r *Registry) start(slot Slot) *SearchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(slot)
}

func (r *Registry) startLocked(slot Slot) *SearchState {
	st := &SearchState{Slot: slot, Outcome: Searching, StartedAt: r.now()}
	r.searches[slot.Key()] = st
	return st
}

// remind counts a reminder, starting the search if it was not seen before.
func (r *Registry) remind(slot Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.searches[slot.Key()]
	if !ok {
		st = r.startLocked(slot)
	}
	st.Reminders++
}

// RecordContacted adds a candidate to the search of the slot.
func (r *Registry) RecordContacted(key SearchKey, handle league.DisplayHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.searches[key]; ok {
		st.Contacted = append(st.Contacted, handle)
	}
}

// finish discards the search with the given outcome and returns its last state.
func (r *Registry) finish(key SearchKey, outcome Outcome) *SearchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.searches[key]
	if !ok {
		return nil
	}
	st.Outcome = outcome
	delete(r.searches, key)
	return st
}

// Get returns a copy of the state of an active search.
func (r *Registry) Get(key SearchKey) (SearchState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.searches[key]
	if !ok {
		return SearchState{}, false
	}
	cp := *st
	cp.Contacted = append([]league.DisplayHandle(nil), st.Contacted...)
	return cp, true
}

// Active returns the number of searches in progress.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.searches)
}
