// Package server exposes heatmaps over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/calendar"
)

const (
	shutdownTimeout = 5 * time.Second

	// DefaultRetryAfter is how long a failed or empty history is served
	// before the handle is fetched again.
	DefaultRetryAfter = time.Minute
	// DefaultTTL is how long a successful history is served.
	DefaultTTL = time.Hour
	// DefaultMaxHandles caps the number of handles held in memory.
	DefaultMaxHandles = 1024
)

type entry struct {
	cache   *aggregate.Cache
	created time.Time
}

// CacheFactory builds the session cache for a handle.
type CacheFactory func(handle string) *aggregate.Cache

// Server serves SVG and JSON heatmaps, one cache per handle. Entries expire
// after their TTL and the oldest are dropped once maxHandles is exceeded.
type Server struct {
	router     *chi.Mux
	caches     *xsync.Map[string, *entry]
	newCache   CacheFactory
	retryAfter time.Duration
	ttl        time.Duration
	maxHandles int
	logger     *zap.Logger
	location   *time.Location
	weekStart  time.Weekday
	now        func() time.Time
	origins    []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone days are bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithWeekStart sets the rolling grid's first weekday.
func WithWeekStart(wd time.Weekday) Option {
	return func(s *Server) { s.weekStart = wd }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAllowedOrigins sets the CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRetryAfter sets how long failed or empty histories are kept.
func WithRetryAfter(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.retryAfter = d
		}
	}
}

// WithTTL sets how long successful histories are kept.
func WithTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxHandles caps the number of cached handles.
func WithMaxHandles(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHandles = n
		}
	}
}

// New constructs a Server.
func New(factory CacheFactory, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		caches:     xsync.NewMap[string, *entry](),
		newCache:   factory,
		retryAfter: DefaultRetryAfter,
		ttl:        DefaultTTL,
		maxHandles: DefaultMaxHandles,
		logger:     zap.NewNop(),
		location:   time.Local,
		weekStart:  calendar.DefaultWeekStart,
		now:        time.Now,
		origins:    []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         3000,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Get("/healthz", s.health)
	r.Get("/heatmap/{file}", s.heatmap)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// cache returns the live cache for handle, replacing an expired one.
func (s *Server) cache(handle string) *aggregate.Cache {
	key := strings.ToLower(handle)
	now := s.now()
	if e, ok := s.caches.Load(key); ok && !s.expired(e, now) {
		return e.cache
	}
	created := false
	e, _ := s.caches.Compute(key, func(old *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if loaded && !s.expired(old, now) {
			return old, xsync.CancelOp
		}
		created = true
		return &entry{cache: s.newCache(handle), created: now}, xsync.UpdateOp
	})
	if created {
		s.logger.Debug("created cache", zap.String("handle", handle), zap.Int("caches", s.caches.Size()))
		if s.caches.Size() > s.maxHandles {
			s.evict(now, key)
		}
	}
	return e.cache
}

// expired reports whether a resolved entry has outlived its TTL. Pending
// fetches never expire.
func (s *Server) expired(e *entry, now time.Time) bool {
	if !e.cache.Valid() {
		return true
	}
	state, ok := e.cache.State()
	if !ok {
		return false
	}
	ttl := s.ttl
	if state.Failed || state.Empty {
		ttl = s.retryAfter
	}
	return now.Sub(state.LoadedAt) >= ttl
}

// evict drops expired entries, then the oldest ones until the map fits
// maxHandles. keep is never dropped.
func (s *Server) evict(now time.Time, keep string) {
	s.caches.Range(func(key string, e *entry) bool {
		if key != keep && s.expired(e, now) {
			s.remove(key, e)
		}
		return true
	})
	for s.caches.Size() > s.maxHandles {
		var oldest *entry
		oldestKey := ""
		s.caches.Range(func(key string, e *entry) bool {
			if key != keep && (oldest == nil || e.created.Before(oldest.created)) {
				oldest, oldestKey = e, key
			}
			return true
		})
		if oldest == nil {
			return
		}
		s.remove(oldestKey, oldest)
		s.logger.Debug("evicted cache", zap.String("handle", oldest.cache.Handle()))
	}
}

// remove deletes key only while it still maps to e.
func (s *Server) remove(key string, e *entry) {
	s.caches.Compute(key, func(cur *entry, loaded bool) (*entry, xsync.ComputeOp) {
		if loaded && cur == e {
			return cur, xsync.DeleteOp
		}
		return cur, xsync.CancelOp
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}
		return http.HandlerFunc(fn)
	}
}
