package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cfheat/internal/model"
)

func TestCacheCoalescesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context, handle string) ([]model.RawSubmission, error) {
		calls.Add(1)
		<-release
		return []model.RawSubmission{accepted(1, "1", "A", 800, day(2023, time.May, 5, 0))}, nil
	})
	c := NewCache(fetcher, "tourist", WithLocation(time.UTC), WithClock(func() time.Time {
		return day(2023, time.June, 1, 0)
	}))
	require.False(t, c.Loaded())
	_, ok := c.State()
	require.False(t, ok)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.NotNil(t, res.Bucket(2023, "2023-05-05"))
	}
	assert.True(t, c.Loaded())
	state, ok := c.State()
	require.True(t, ok)
	assert.Equal(t, State{LoadedAt: day(2023, time.June, 1, 0)}, state)

	again := c.Get(context.Background())
	assert.NotNil(t, again.Bucket(model.RollingYear, "2023-05-05"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheFailureIsEmptyAndSticky(t *testing.T) {
	var calls atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context, handle string) ([]model.RawSubmission, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	c := NewCache(fetcher, "nobody", WithFallbackYear(2018))
	res := c.Get(context.Background())
	assert.Equal(t, 2018, res.FirstYear)
	assert.Empty(t, res.Days(model.RollingYear))

	_ = c.Get(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, c.Loaded())
	state, ok := c.State()
	require.True(t, ok)
	assert.True(t, state.Failed)
	assert.True(t, state.Empty)
}

func TestCacheCancelledCallerDoesNotPoisonSession(t *testing.T) {
	release := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context, handle string) ([]model.RawSubmission, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []model.RawSubmission{accepted(1, "1", "A", 800, day(2023, time.May, 5, 0))}, nil
	})
	c := NewCache(fetcher, "h", WithLocation(time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Get(ctx)
	assert.Empty(t, res.Days(2023))

	close(release)
	full := c.Get(context.Background())
	assert.NotNil(t, full.Bucket(2023, "2023-05-05"))
}

func TestCacheWithoutFetcher(t *testing.T) {
	c := NewCache(nil, "h")
	res := c.Get(context.Background())
	assert.Equal(t, DefaultFallbackYear, res.FirstYear)
	assert.Equal(t, "h", c.Handle())
}
