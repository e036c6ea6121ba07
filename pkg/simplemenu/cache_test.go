package simplemenu

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func countingFetch(calls *int32) FetchFunc {
	return func(ctx context.Context) (map[Zone]ZoneListing, error) {
		atomic.AddInt32(calls, 1)
		return map[Zone]ZoneListing{}, nil
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	var calls int32
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(countingFetch(&calls), time.Minute, clock.Now)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	clock.Advance(59 * time.Second)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_RefetchAfterTTL(t *testing.T) {
	var calls int32
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(countingFetch(&calls), time.Minute, clock.Now)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_Invalidate(t *testing.T) {
	var calls int32
	cache := NewCache(countingFetch(&calls), time.Hour, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	boom := errors.New("list failed")
	cache := NewCache(func(ctx context.Context) (map[Zone]ZoneListing, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return map[Zone]ZoneListing{}, nil
	}, time.Hour, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	assert.ErrorIs(t, err, boom)

	snap, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(func(ctx context.Context) (map[Zone]ZoneListing, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return map[Zone]ZoneListing{}, nil
	}, time.Minute, clock.Now)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_InvalidateDuringFetchDropsResult(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	cache := NewCache(func(ctx context.Context) (map[Zone]ZoneListing, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
		}
		return map[Zone]ZoneListing{}, nil
	}, time.Hour, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := cache.Get(ctx)
		assert.NoError(t, err)
	}()

	<-started
	cache.Invalidate()
	close(release)
	<-done

	_, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_GetAfterInvalidateDoesNotJoinOlderFetch(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	cache := NewCache(func(ctx context.Context) (map[Zone]ZoneListing, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return map[Zone]ZoneListing{}, nil
		}
		return map[Zone]ZoneListing{
			ZoneClean: {{Key: "menu/clean/Latte"}},
		}, nil
	}, time.Hour, nil)
	ctx := context.Background()

	first := make(chan struct{})
	go func() {
		defer close(first)
		_, err := cache.Get(ctx)
		assert.NoError(t, err)
	}()

	<-started
	cache.Invalidate()

	snap, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Listings[ZoneClean], 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	close(release)
	<-first

	cached, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, cached)
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	cache := NewCache(func(ctx context.Context) (map[Zone]ZoneListing, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return map[Zone]ZoneListing{}, nil
	}, time.Hour, nil)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(leaderCtx)
		leaderErr <- err
	}()
	<-started

	followerErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background())
		followerErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	require.NoError(t, <-followerErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
