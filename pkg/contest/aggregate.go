package contest

import (
	"context"
	"sort"
	"sync"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
)

// CacheKey is the store key for the aggregated contest list.
const CacheKey = "all_contests"

// FetchAll fans out to every platform fetcher concurrently and returns the
// union of whichever succeeded, sorted ascending by start time. Total
// latency tracks the slowest fetcher. All fetchers failing yields an empty
// list, never an error.
func (s *Service) FetchAll(ctx context.Context) []models.Event {
	events := []models.Event{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < len(s.fetchers); i++ {
		wg.Add(1)
		go func(f fetcher) {
			defer wg.Done()
			fetched := f.fetch(ctx)
			if len(fetched) > 0 {
				mu.Lock()
				events = append(events, fetched...)
				mu.Unlock()
			}
			logger.Info("Platform %s: found %d events", f.platform, len(fetched))
		}(s.fetchers[i])
	}
	wg.Wait()

	// Stable keeps input order for equal start times.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime < events[j].StartTime
	})
	return events
}

// CachedEvents serves the aggregate from the store while the entry is fresh
// and refetches otherwise. Storage faults degrade to an empty list.
func (s *Service) CachedEvents(ctx context.Context) []models.Event {
	events := cache.GetOrFetch(s.store, CacheKey, s.window, func() ([]models.Event, error) {
		return s.FetchAll(ctx), nil
	})
	if events == nil {
		events = []models.Event{}
	}
	return events
}

// RefreshCache refetches all platforms and overwrites the cached aggregate
// regardless of freshness. Used by the warmup job and the auto-refresh
// driver.
func (s *Service) RefreshCache(ctx context.Context) []models.Event {
	events := s.FetchAll(ctx)
	if err := cache.Put(s.store, CacheKey, events); err != nil {
		logger.Error("Failed to persist refreshed events: %v", err)
	}
	return events
}
