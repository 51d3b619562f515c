package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"podcast-kb/pkg/domain"
	"podcast-kb/pkg/retry"
)

type countingFetcher struct {
	calls    atomic.Int64
	episodes map[int]domain.EpisodeMetadata
	err      error
}

func (f *countingFetcher) Fetch(ctx context.Context) (map[int]domain.EpisodeMetadata, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

func testFeed() map[int]domain.EpisodeMetadata {
	return map[int]domain.EpisodeMetadata{
		341: {Episode: 341, Title: "WIT: AWS Tech Alliance", Author: "Podcast Team"},
	}
}

func TestGet_FetchesOnceWhileFresh(t *testing.T) {
	fetcher := &countingFetcher{episodes: testFeed()}
	cache := NewCache(fetcher)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		meta := cache.Get(ctx, 341)
		if meta.Title != "WIT: AWS Tech Alliance" {
			t.Fatalf("Expected cached metadata, got %+v", meta)
		}
	}

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 feed fetch for 50 lookups, got %d", got)
	}
}

func TestGet_MissWithinFreshCacheReturnsDefaults(t *testing.T) {
	fetcher := &countingFetcher{episodes: testFeed()}
	cache := NewCache(fetcher)
	ctx := context.Background()

	cache.Get(ctx, 341)
	meta := cache.Get(ctx, 999)

	if meta.Episode != 999 {
		t.Errorf("Expected default metadata for episode 999, got %+v", meta)
	}
	if meta.Title != "Episode 999" {
		t.Errorf("Expected default title, got %q", meta.Title)
	}
	if meta.Author != domain.DefaultAuthor {
		t.Errorf("Expected default author, got %q", meta.Author)
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("Expected no refetch for a miss within a fresh cache, got %d fetches", got)
	}
}

func TestGet_ConcurrentCallsShareOneFetch(t *testing.T) {
	fetcher := &countingFetcher{episodes: testFeed()}
	cache := NewCache(fetcher)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Get(ctx, 341)
		}()
	}
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("Expected a single shared in-flight fetch, got %d", got)
	}
}

func TestInvalidate_TriggersExactlyOneMoreFetch(t *testing.T) {
	fetcher := &countingFetcher{episodes: testFeed()}
	cache := NewCache(fetcher)
	ctx := context.Background()

	cache.Get(ctx, 341)
	cache.Invalidate()
	cache.Get(ctx, 341)
	cache.Get(ctx, 341)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("Expected 2 fetches after one invalidation, got %d", got)
	}
}

func TestGet_StaleCacheRefetches(t *testing.T) {
	fetcher := &countingFetcher{episodes: testFeed()}
	now := time.Now()
	cache := NewCache(fetcher, withClock(func() time.Time { return now }))
	ctx := context.Background()

	cache.Get(ctx, 341)
	now = now.Add(DefaultTTL + time.Second)
	cache.Get(ctx, 341)

	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("Expected refetch after TTL expiry, got %d fetches", got)
	}
}

func TestGet_FetchFailureRetriesThenDegrades(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := NewCache(fetcher,
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}))
	ctx := context.Background()

	meta := cache.Get(ctx, 341)

	if meta.Episode != 341 || meta.Title != "Episode 341" {
		t.Errorf("Expected default metadata on fetch failure, got %+v", meta)
	}
	if got := fetcher.calls.Load(); got != 3 {
		t.Errorf("Expected 3 fetch attempts, got %d", got)
	}

	// The failed cycle is cached; lookups inside the TTL window do not
	// hammer the broken feed.
	cache.Get(ctx, 341)
	if got := fetcher.calls.Load(); got != 3 {
		t.Errorf("Expected no additional fetches within the TTL, got %d", got)
	}
}
