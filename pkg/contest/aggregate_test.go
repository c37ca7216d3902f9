package contest

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/models"
)

func staticFetcher(platform string, events ...models.Event) fetcher {
	return fetcher{
		platform: platform,
		fetch: func(ctx context.Context) []models.Event {
			return events
		},
	}
}

// failedFetcher mimics a source whose failure was absorbed at the fetcher
// boundary: the contract is an empty contribution, never an error.
func failedFetcher(platform string) fetcher {
	return fetcher{
		platform: platform,
		fetch: func(ctx context.Context) []models.Event {
			return []models.Event{}
		},
	}
}

func event(id string, start int64, kind models.EventType, platform string) models.Event {
	return models.Event{
		Id:        id,
		Name:      id,
		StartTime: start,
		EndTime:   start + 1000,
		Duration:  1000,
		Platform:  platform,
		Type:      kind,
	}
}

func TestFetchAll_SortsUnionByStartTime(t *testing.T) {
	s := &Service{now: time.Now}
	s.fetchers = []fetcher{
		staticFetcher("A", event("a-2", 200, models.TypeContest, "A"), event("a-4", 400, models.TypeContest, "A")),
		staticFetcher("B", event("b-1", 100, models.TypeHackathon, "B")),
		staticFetcher("C", event("c-3", 300, models.TypeContest, "C")),
	}

	events := s.FetchAll(context.Background())
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].StartTime < events[i-1].StartTime {
			t.Errorf("events not sorted at index %d", i)
		}
	}
	if events[0].Id != "b-1" {
		t.Errorf("expected b-1 first, got %s", events[0].Id)
	}
}

func TestFetchAll_OneFailedFourSucceed(t *testing.T) {
	s := &Service{now: time.Now}
	s.fetchers = []fetcher{
		staticFetcher("A", event("a-1", 100, models.TypeContest, "A")),
		failedFetcher("B"),
		staticFetcher("C", event("c-1", 50, models.TypeContest, "C")),
		staticFetcher("D", event("d-1", 300, models.TypeHackathon, "D")),
		staticFetcher("E", event("e-1", 200, models.TypeHackathon, "E")),
	}

	events := s.FetchAll(context.Background())
	if len(events) != 4 {
		t.Fatalf("expected the union of the four healthy sources, got %d events", len(events))
	}
	want := []string{"c-1", "a-1", "e-1", "d-1"}
	for i, id := range want {
		if events[i].Id != id {
			t.Errorf("position %d: expected %s, got %s", i, id, events[i].Id)
		}
	}
}

func TestFetchAll_AllFailedYieldsEmptyList(t *testing.T) {
	s := &Service{now: time.Now}
	s.fetchers = []fetcher{failedFetcher("A"), failedFetcher("B"), failedFetcher("C")}

	events := s.FetchAll(context.Background())
	if events == nil {
		t.Fatal("expected empty list, got nil")
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func newTestService(t *testing.T, fetchers ...fetcher) *Service {
	t.Helper()
	store, err := cache.NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	s := NewService(store, nil, 15*time.Minute)
	s.fetchers = fetchers
	return s
}

func TestCachedEvents_ServedFromStoreWithinWindow(t *testing.T) {
	calls := 0
	counting := fetcher{
		platform: "A",
		fetch: func(ctx context.Context) []models.Event {
			calls++
			return []models.Event{event("a-1", 100, models.TypeContest, "A")}
		},
	}
	s := newTestService(t, counting)

	first := s.CachedEvents(context.Background())
	second := s.CachedEvents(context.Background())
	if calls != 1 {
		t.Errorf("expected fetchers invoked once, got %d", calls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("expected 1 event from both calls, got %d and %d", len(first), len(second))
	}
}

func TestRefreshCache_OverwritesFreshEntry(t *testing.T) {
	calls := 0
	counting := fetcher{
		platform: "A",
		fetch: func(ctx context.Context) []models.Event {
			calls++
			return []models.Event{event("a-1", 100, models.TypeContest, "A")}
		},
	}
	s := newTestService(t, counting)

	s.CachedEvents(context.Background())
	s.RefreshCache(context.Background())
	if calls != 2 {
		t.Errorf("expected refresh to bypass freshness, got %d fetches", calls)
	}
	// The refreshed entry is fresh again.
	s.CachedEvents(context.Background())
	if calls != 2 {
		t.Errorf("expected cached read after refresh, got %d fetches", calls)
	}
}

func TestGetContests_FiltersByTypeAndPlatform(t *testing.T) {
	s := newTestService(t,
		staticFetcher("Codeforces", event("cf-1", 100, models.TypeContest, "Codeforces")),
		staticFetcher("LeetCode", event("lc-1", 200, models.TypeContest, "LeetCode")),
		staticFetcher("Devpost", event("dp-1", 300, models.TypeHackathon, "Devpost")),
	)

	req := httptest.NewRequest("GET", "/contests?type=contest&platforms=Codeforces", nil)
	rec := httptest.NewRecorder()
	s.GetContests(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if !contains(body, "cf-1") {
		t.Errorf("expected cf-1 in response, got %s", body)
	}
	if contains(body, "lc-1") || contains(body, "dp-1") {
		t.Errorf("filter leaked other platforms: %s", body)
	}
}

func TestFilterEvents_EmptySelectionMeansAll(t *testing.T) {
	events := []models.Event{
		event("cf-1", 100, models.TypeContest, "Codeforces"),
		event("dp-1", 300, models.TypeHackathon, "Devpost"),
	}
	got := FilterEvents(events, "", nil)
	if len(got) != 2 {
		t.Errorf("expected all events, got %d", len(got))
	}
	got = FilterEvents(events, models.TypeHackathon, nil)
	if len(got) != 1 || got[0].Id != "dp-1" {
		t.Errorf("unexpected hackathon filter result: %v", got)
	}
	got = FilterEvents(events, "", []string{"codeforces"})
	if len(got) != 1 || got[0].Id != "cf-1" {
		t.Errorf("platform match should be case-insensitive: %v", got)
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
