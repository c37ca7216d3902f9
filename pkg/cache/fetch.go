package cache

import (
	"encoding/json"
	"time"

	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
)

// FreshnessWindow is the maximum age of a cache entry before it is
// considered stale.
const FreshnessWindow = 15 * time.Minute

// IsFresh reports whether an entry timestamp (epoch ms) is within the window.
func IsFresh(timestampMs int64, window time.Duration) bool {
	if timestampMs <= 0 {
		return false
	}
	return time.Since(time.UnixMilli(timestampMs)) < window
}

// GetOrFetch serves key from the store when the entry is fresh, otherwise
// invokes fetchFn and persists the result under key with the current
// timestamp. Any storage fault, corrupt entry or fetchFn error degrades to
// the zero value: a transient fault never propagates into the caller's
// state. A read fault short-circuits before fetchFn is invoked.
func GetOrFetch[T any](s Store, key string, window time.Duration, fetchFn func() (T, error)) T {
	var zero T

	raw, found, err := s.Get(ContestsBucket, key)
	if err != nil {
		logger.Error("Cache read failed for key %s: %v", key, err)
		return zero
	}
	if found {
		var entry models.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			logger.Error("Cache entry corrupt for key %s: %v", key, err)
		} else if IsFresh(entry.Timestamp, window) {
			var data T
			if err := json.Unmarshal(entry.Data, &data); err != nil {
				logger.Error("Cache data corrupt for key %s: %v", key, err)
			} else {
				logger.Debug("Cache hit for key %s", key)
				return data
			}
		}
	}

	fresh, err := fetchFn()
	if err != nil {
		logger.Error("Fetch failed for key %s: %v", key, err)
		return zero
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		logger.Error("Failed to marshal fetch result for key %s: %v", key, err)
		return zero
	}
	entry, err := json.Marshal(models.CacheEntry{
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		logger.Error("Failed to marshal cache entry for key %s: %v", key, err)
		return zero
	}
	if err := s.Put(ContestsBucket, key, entry); err != nil {
		logger.Error("Cache write failed for key %s: %v", key, err)
		return zero
	}
	return fresh
}

// Put stores value under key with the current timestamp, unconditionally.
func Put[T any](s Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry, err := json.Marshal(models.CacheEntry{
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return s.Put(ContestsBucket, key, entry)
}

// GetStatistics returns fresh/stale entry counts for the contests bucket.
func GetStatistics(s Store, window time.Duration) map[string]int {
	stats := map[string]int{
		"total_entries": 0,
		"fresh":         0,
		"stale":         0,
	}

	err := s.ForEach(ContestsBucket, func(key string, value []byte) error {
		var entry models.CacheEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			logger.Error("Failed to unmarshal cache entry for key %s: %v", key, err)
			return nil
		}
		stats["total_entries"]++
		if IsFresh(entry.Timestamp, window) {
			stats["fresh"]++
		} else {
			stats["stale"]++
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to collect cache statistics: %v", err)
	}

	return stats
}
