package aggregate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/verte-zerg/cfheat/internal/model"
)

// Fetcher returns the raw submission history of a handle.
type Fetcher interface {
	Submissions(ctx context.Context, handle string) ([]model.RawSubmission, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, handle string) ([]model.RawSubmission, error)

// Submissions implements Fetcher.
func (f FetcherFunc) Submissions(ctx context.Context, handle string) ([]model.RawSubmission, error) {
	return f(ctx, handle)
}

// Cache holds the aggregation of one handle for the life of a session. The
// first Get fetches; concurrent callers share that fetch; every later call
// returns the stored result, including the empty result of a failed fetch.
type Cache struct {
	fetcher      Fetcher
	handle       string
	logger       *zap.Logger
	location     *time.Location
	now          func() time.Time
	fallbackYear int

	group singleflight.Group

	mu     sync.RWMutex
	result *Result
	state  State
}

// State describes how a fetch resolved.
type State struct {
	LoadedAt time.Time
	// Failed is set when the history could not be fetched and the result is
	// the empty fallback.
	Failed bool
	// Empty is set when no year holds an accepted submission.
	Empty bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the diagnostic sink.
func WithLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLocation sets the zone used for day bucketing.
func WithLocation(loc *time.Location) CacheOption {
	return func(c *Cache) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithClock overrides the time source used for the rolling view.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFallbackYear sets the first year reported for an empty history.
func WithFallbackYear(year int) CacheOption {
	return func(c *Cache) {
		if year > 0 {
			c.fallbackYear = year
		}
	}
}

// NewCache constructs an empty Cache.
func NewCache(fetcher Fetcher, handle string, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		handle:       handle,
		logger:       zap.NewNop(),
		location:     time.Local,
		now:          time.Now,
		fallbackYear: DefaultFallbackYear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Valid reports whether c is usable.
func (c *Cache) Valid() bool { return c != nil }

// Handle returns the handle this cache aggregates.
func (c *Cache) Handle() string {
	return c.handle
}

// Loaded reports whether the fetch has resolved.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result != nil
}

// State reports how the fetch resolved. ok is false while it is pending.
func (c *Cache) State() (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.result != nil
}

// Get returns the aggregation, fetching it on first use.
func (c *Cache) Get(ctx context.Context) Result {
	if res, ok := c.cached(); ok {
		return res
	}
	ch := c.group.DoChan(c.handle, func() (any, error) {
		if res, ok := c.cached(); ok {
			return res, nil
		}
		res, failed := c.load(context.WithoutCancel(ctx))
		c.mu.Lock()
		c.result = &res
		c.state = State{LoadedAt: c.now(), Failed: failed, Empty: len(res.Index) <= 1}
		c.mu.Unlock()
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		c.logger.Debug("caller stopped waiting for submissions", zap.String("handle", c.handle), zap.Error(ctx.Err()))
		return Empty(c.fallbackYear)
	}
}

func (c *Cache) cached() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

func (c *Cache) load(ctx context.Context) (Result, bool) {
	if c.fetcher == nil {
		c.logger.Error("no submission fetcher configured", zap.String("handle", c.handle))
		return Empty(c.fallbackYear), true
	}
	started := c.now()
	raw, err := c.fetcher.Submissions(ctx, c.handle)
	if err != nil {
		c.logger.Error("failed to fetch submissions", zap.String("handle", c.handle), zap.Error(err))
		return Empty(c.fallbackYear), true
	}
	res := Aggregate(raw, c.location, c.now(), c.fallbackYear)
	c.logger.Info("aggregated submissions",
		zap.String("handle", c.handle),
		zap.Int("submissions", len(raw)),
		zap.Int("years", len(res.Index)-1),
		zap.Int("first_year", res.FirstYear),
		zap.Duration("took", c.now().Sub(started)))
	return res, false
}
