package contest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

// GetContests serves the aggregated event list. Query parameters mirror the
// mobile client's tab and filter state:
//
//	type      "contest" or "hackathon"
//	platforms comma-separated platform display names, empty = all
func (s *Service) GetContests(w http.ResponseWriter, r *http.Request) {
	util.EnableCors(&w)

	stats := cache.GetStatistics(s.store, s.window)
	logger.Info("Cache stats - Total: %d, Fresh: %d, Stale: %d",
		stats["total_entries"], stats["fresh"], stats["stale"])

	kind := r.URL.Query().Get("type")
	selectedPlatforms := r.URL.Query().Get("platforms")
	logger.Info("Get contests, type: %q, platforms: %q", kind, selectedPlatforms)

	events := s.CachedEvents(r.Context())
	events = FilterEvents(events, models.EventType(kind), splitList(selectedPlatforms))

	// TimeUntil is derived at parse time and goes stale in the cache;
	// recompute before serving.
	for i := range events {
		events[i].TimeUntil = timeUntil(events[i].StartTime)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// FilterEvents applies the tab (event type) and platform filters. An empty
// type or platform list selects everything.
func FilterEvents(events []models.Event, kind models.EventType, platforms []string) []models.Event {
	filtered := []models.Event{}
	for _, e := range events {
		if kind != "" && e.Type != kind {
			continue
		}
		if len(platforms) > 0 && !containsFold(platforms, e.Platform) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := []string{}
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
