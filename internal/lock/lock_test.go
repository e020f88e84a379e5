package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_ExclusivePerRound(t *testing.T) {
	locks := New(time.Second)
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "r1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

func TestAcquire_DifferentRoundsDoNotBlock(t *testing.T) {
	locks := New(50 * time.Millisecond)
	release1, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	defer release1()

	release2, err := locks.Acquire(context.Background(), "r2")
	require.NoError(t, err)
	release2()
}

func TestAcquire_TimesOut(t *testing.T) {
	locks := New(20 * time.Millisecond)
	release, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	defer release()

	_, err = locks.Acquire(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestAcquire_ReleaseIsIdempotent(t *testing.T) {
	locks := New(20 * time.Millisecond)
	release, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	release()
	release()

	again, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	again()
}

func TestAcquire_CancelledContext(t *testing.T) {
	locks := New(time.Second)
	release, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Acquire(ctx, "r1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockTimeout)
}

func TestRelease_DropsIdleRounds(t *testing.T) {
	locks := New(20 * time.Millisecond)

	for _, round := range []string{"r1", "r2", "r3"} {
		release, err := locks.Acquire(context.Background(), round)
		require.NoError(t, err)
		release()
	}
	assert.Zero(t, locks.Len())

	release, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	_, err = locks.Acquire(context.Background(), "r1")
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, 1, locks.Len(), "held lease keeps its entry")

	release()
	assert.Zero(t, locks.Len())
}
