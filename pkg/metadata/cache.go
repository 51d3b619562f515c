// Package metadata caches episode metadata parsed from the RSS feed so a
// batch of lookups costs at most one feed fetch per TTL window.
package metadata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"podcast-kb/pkg/alert"
	"podcast-kb/pkg/domain"
	"podcast-kb/pkg/retry"
)

// DefaultTTL is how long a fetched feed stays fresh.
const DefaultTTL = 5 * time.Minute

// Fetcher loads the full feed. Implemented by feed.Client.
type Fetcher interface {
	Fetch(ctx context.Context) (map[int]domain.EpisodeMetadata, error)
}

// Cache holds the parsed feed with a TTL. Lookups against a fresh cache
// never touch the network; a miss against a fresh cache returns default
// metadata without refetching. Concurrent refreshes collapse into a single
// fetch.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	policy  retry.Policy
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	episodes  map[int]domain.EpisodeMetadata
	fetchedAt time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithRetryPolicy overrides the fetch retry schedule.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithLogger sets the logger used for degraded-fetch warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache builds a cache around the given fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		policy:  retry.Default,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns metadata for the episode, refreshing the cache first when it
// is stale or empty. Feed failures degrade to default metadata; Get never
// fails.
func (c *Cache) Get(ctx context.Context, episode int) domain.EpisodeMetadata {
	c.mu.Lock()
	if c.fresh() {
		meta, ok := c.episodes[episode]
		c.mu.Unlock()
		if ok {
			return meta
		}
		return domain.DefaultMetadata(episode)
	}
	c.mu.Unlock()

	c.refresh(ctx)

	c.mu.Lock()
	meta, ok := c.episodes[episode]
	c.mu.Unlock()
	if ok {
		return meta
	}
	return domain.DefaultMetadata(episode)
}

// Invalidate drops the cached feed so the next lookup fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.episodes = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// fresh reports whether the cache holds a feed younger than the TTL.
// Callers must hold mu.
func (c *Cache) fresh() bool {
	return c.episodes != nil && c.now().Sub(c.fetchedAt) < c.ttl
}

// refresh fetches the feed exactly once even when several callers race; the
// singleflight group shares the in-flight fetch with all of them. A fetch
// that exhausts its retries caches an empty feed for the TTL window so a
// broken feed is not hammered on every lookup.
func (c *Cache) refresh(ctx context.Context) {
	_, _, _ = c.group.Do("feed", func() (any, error) {
		c.mu.Lock()
		if c.fresh() {
			c.mu.Unlock()
			return nil, nil
		}
		c.mu.Unlock()

		var fetched map[int]domain.EpisodeMetadata
		err := c.policy.Do(ctx, "feed fetch", func(ctx context.Context) error {
			var fetchErr error
			fetched, fetchErr = c.fetcher.Fetch(ctx)
			return fetchErr
		})
		if err != nil {
			c.logger.Warn("feed fetch failed, serving default metadata",
				slog.String("kind", string(alert.KindRSSFetch)),
				slog.String("error", err.Error()))
			fetched = make(map[int]domain.EpisodeMetadata)
		}

		c.mu.Lock()
		c.episodes = fetched
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return nil, nil
	})
}
