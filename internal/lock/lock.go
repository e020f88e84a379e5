// Package lock provides per-round advisory leases.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// DefaultWait bounds how long Acquire blocks.
const DefaultWait = 5 * time.Minute

// ErrLockTimeout is returned when the lease could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for round lock")

// RoundLocks hands out one exclusive lease per round ID.
// A round's entry lives only while a lease is held or awaited.
type RoundLocks struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*roundLock
}

type roundLock struct {
	sem  *semaphore.Weighted
	refs int
}

// New creates a lock set. A non-positive wait uses DefaultWait.
func New(wait time.Duration) *RoundLocks {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &RoundLocks{
		wait:  wait,
		locks: make(map[string]*roundLock),
	}
}

func (l *RoundLocks) get(roundID string) *roundLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.locks[roundID]
	if !ok {
		rl = &roundLock{sem: semaphore.NewWeighted(1)}
		l.locks[roundID] = rl
	}
	rl.refs++
	return rl
}

func (l *RoundLocks) put(roundID string, rl *roundLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, roundID)
	}
}

// Len returns the number of rounds with a held or awaited lease.
func (l *RoundLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Acquire blocks until the round's lease is free, ctx is done, or the bounded
// wait elapses. The returned release func must be called exactly once.
func (l *RoundLocks) Acquire(ctx context.Context, roundID string) (func(), error) {
	rl := l.get(roundID)

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	start := time.Now()
	if err := rl.sem.Acquire(waitCtx, 1); err != nil {
		l.put(roundID, rl)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("round %s: %w", roundID, ctx.Err())
		}
		return nil, fmt.Errorf("round %s after %s: %w", roundID, l.wait, ErrLockTimeout)
	}
	log.Debug("Acquired round lock", "round", roundID, "waited", time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			rl.sem.Release(1)
			l.put(roundID, rl)
			log.Debug("Released round lock", "round", roundID)
		})
	}, nil
}
