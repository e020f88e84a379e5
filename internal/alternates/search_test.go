package alternates

import (
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	slot := Slot{Team: &league.Team{ID: "t1"}, Round: &league.Round{ID: "r1"}, BoardNumber: 2}
	other := Slot{Team: &league.Team{ID: "t1"}, Round: &league.Round{ID: "r1"}, BoardNumber: 3}

	r.start(slot)
	r.start(other)
	assert.Equal(t, 2, r.Active())

	r.RecordContacted(slot.Key(), "carol")
	r.RecordContacted(SearchKey{RoundID: "r9"}, "nobody")
	r.remind(slot)

	st, ok := r.Get(slot.Key())
	require.True(t, ok)
	assert.Equal(t, fixed, st.StartedAt)
	assert.Equal(t, []league.DisplayHandle{"carol"}, st.Contacted)
	assert.Equal(t, 1, st.Reminders)
	assert.False(t, st.Outcome.Terminal())

	t.Run("copies are detached", func(t *testing.T) {
		st.Contacted[0] = "mallory"
		again, _ := r.Get(slot.Key())
		assert.Equal(t, league.DisplayHandle("carol"), again.Contacted[0])
	})

	t.Run("finish discards", func(t *testing.T) {
		last := r.finish(slot.Key(), Failed)
		require.NotNil(t, last)
		assert.True(t, last.Outcome.Terminal())
		_, ok := r.Get(slot.Key())
		assert.False(t, ok)
		assert.Equal(t, 1, r.Active())
		assert.Nil(t, r.finish(slot.Key(), Found))
	})
}

func TestRegistry_ConcurrentRemindersShareOneSearch(t *testing.T) {
	r := NewRegistry()
	slot := Slot{Team: &league.Team{ID: "t1"}, Round: &league.Round{ID: "r1"}, BoardNumber: 2}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.remind(slot)
		}()
	}
	wg.Wait()

	st, ok := r.Get(slot.Key())
	require.True(t, ok)
	assert.Equal(t, 50, st.Reminders)
	assert.Equal(t, 1, r.Active())
}
