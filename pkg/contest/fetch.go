package contest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

// Service owns the aggregation pipeline: one fetcher per platform, the
// shared HTTP client and the persistent cache store. Dependencies come in
// through the constructor, nothing ambient.
type Service struct {
	store    cache.Store
	client   *http.Client
	window   time.Duration
	fetchers []fetcher
	now      func() time.Time
}

type fetcher struct {
	platform string
	fetch    func(ctx context.Context) []models.Event
}

// NewService wires the six platform fetchers against the given store.
// A zero window falls back to the default freshness window.
func NewService(store cache.Store, client *http.Client, window time.Duration) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if window <= 0 {
		window = cache.FreshnessWindow
	}
	s := &Service{
		store:  store,
		client: client,
		window: window,
		now:    time.Now,
	}
	s.fetchers = []fetcher{
		{platform: "Codeforces", fetch: s.FetchCodeforces},
		{platform: "LeetCode", fetch: s.FetchLeetCode},
		{platform: "CodeChef", fetch: s.FetchCodeChef},
		{platform: "HackerRank", fetch: s.FetchHackerRank},
		{platform: "Devpost", fetch: s.FetchDevpost},
		{platform: "MLH", fetch: s.FetchMLH},
	}
	return s
}

// Fetchers never fail upward: any network or payload error is logged and
// yields an empty contribution so one broken source cannot poison the
// aggregate.

// FetchCodeforces pulls the public contest list API.
func (s *Service) FetchCodeforces(ctx context.Context) []models.Event {
	var payload struct {
		Status string                 `json:"status"`
		Result []RawCodeforcesContest `json:"result"`
	}
	if err := s.getJSON(ctx, "https://codeforces.com/api/contest.list", &payload); err != nil {
		logger.Error("Codeforces API error: %v", err)
		return []models.Event{}
	}
	if payload.Status != "OK" {
		logger.Error("Codeforces API returned status %q", payload.Status)
		return []models.Event{}
	}
	return ParseCodeforces(payload.Result)
}

const leetCodeContestQuery = `{
  allContests {
    title
    titleSlug
    startTime
    duration
    description
  }
}`

// FetchLeetCode queries the GraphQL endpoint and keeps only contests whose
// start time is strictly in the future, then hands them to the parser.
func (s *Service) FetchLeetCode(ctx context.Context) []models.Event {
	body, err := json.Marshal(map[string]string{"query": leetCodeContestQuery})
	if err != nil {
		logger.Error("LeetCode query marshal error: %v", err)
		return []models.Event{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://leetcode.com/graphql", bytes.NewReader(body))
	if err != nil {
		logger.Error("LeetCode request error: %v", err)
		return []models.Event{}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		logger.Error("LeetCode API error: %v", err)
		return []models.Event{}
	}
	defer res.Body.Close()

	var payload struct {
		Data struct {
			AllContests []RawLeetCodeContest `json:"allContests"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		logger.Error("LeetCode payload decode error: %v", err)
		return []models.Event{}
	}

	nowSec := s.now().Unix()
	upcoming := []RawLeetCodeContest{}
	for _, c := range payload.Data.AllContests {
		if c.StartTime > nowSec {
			upcoming = append(upcoming, c)
		}
	}
	return ParseLeetCode(upcoming)
}

// FetchCodeChef returns deterministic placeholder data shaped like real
// responses. CodeChef has no open listing API in this design; a production
// integration should replace this stand-in or drop the platform.
func (s *Service) FetchCodeChef(ctx context.Context) []models.Event {
	now := s.now().UnixMilli()
	sample := []RawHostedEvent{
		{
			Name:      "CodeChef Starters 100",
			URL:       "https://www.codechef.com/START100",
			StartTime: now + 2*24*int64(time.Hour/time.Millisecond),
			EndTime:   now + 2*24*int64(time.Hour/time.Millisecond) + 3*int64(time.Hour/time.Millisecond),
		},
		{
			Name:      "CodeChef Long Challenge April",
			URL:       "https://www.codechef.com/APRIL25",
			StartTime: now + 5*24*int64(time.Hour/time.Millisecond),
			EndTime:   now + 15*24*int64(time.Hour/time.Millisecond),
		},
	}
	return ParseCodeChef(sample)
}

// FetchHackerRank pulls the upcoming-contests REST endpoint. Records whose
// timestamps are absent or unparseable are dropped; if the call fails or no
// valid record survives, built-in sample entries are served instead.
func (s *Service) FetchHackerRank(ctx context.Context) []models.Event {
	var payload struct {
		Models []struct {
			Name      string          `json:"name"`
			Slug      string          `json:"slug"`
			StartTime json.RawMessage `json:"start_time"`
			EndTime   json.RawMessage `json:"end_time"`
		} `json:"models"`
	}
	err := s.getJSON(ctx, "https://www.hackerrank.com/rest/contests/upcoming?limit=100", &payload)
	if err != nil {
		logger.Error("HackerRank API error: %v", err)
		return ParseHackerRank(s.sampleHackerRank())
	}

	valid := []RawHackerRankContest{}
	for _, m := range payload.Models {
		startMs, okStart := parseFlexibleTimestamp(m.StartTime)
		endMs, okEnd := parseFlexibleTimestamp(m.EndTime)
		if !okStart || !okEnd || m.Slug == "" {
			logger.Warn("HackerRank contest %q dropped: invalid timestamps", m.Name)
			continue
		}
		valid = append(valid, RawHackerRankContest{
			Name:      m.Name,
			Slug:      m.Slug,
			StartTime: startMs,
			EndTime:   endMs,
		})
	}
	if len(valid) == 0 {
		logger.Warn("HackerRank returned no valid contests, using sample data")
		return ParseHackerRank(s.sampleHackerRank())
	}
	return ParseHackerRank(valid)
}

func (s *Service) sampleHackerRank() []RawHackerRankContest {
	now := s.now().UnixMilli()
	day := 24 * int64(time.Hour/time.Millisecond)
	hour := int64(time.Hour / time.Millisecond)
	return []RawHackerRankContest{
		{
			Name:      "HackerRank Week of Code 37",
			Slug:      "weekofcode37",
			StartTime: now + 3*day,
			EndTime:   now + 10*day,
		},
		{
			Name:      "HackerRank Hour Rank 31",
			Slug:      "hourrank31",
			StartTime: now + 7*day,
			EndTime:   now + 7*day + hour,
		},
	}
}

// FetchDevpost scrapes the public hackathon listing. Tiles without a
// parseable submission period are dropped; an empty scrape falls back to
// sample entries so the hackathons tab is never blank.
func (s *Service) FetchDevpost(ctx context.Context) []models.Event {
	raw := []RawHostedEvent{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://devpost.com/hackathons", nil)
	if err == nil {
		res, err := s.client.Do(req)
		if err != nil {
			logger.Error("Devpost request failed: %v", err)
		} else {
			defer res.Body.Close()
			doc, err := goquery.NewDocumentFromReader(res.Body)
			if err != nil {
				logger.Error("Devpost HTML parse failed: %v", err)
			} else {
				doc.Find(".hackathon-tile").Each(func(i int, tile *goquery.Selection) {
					name := strings.TrimSpace(util.RemoveFormatFromString(tile.Find(".title").First().Text()))
					href, _ := tile.Find("a").First().Attr("href")
					period := strings.TrimSpace(util.RemoveFormatFromString(tile.Find(".submission-period").First().Text()))
					startMs, endMs, ok := parseDateRange(period, s.now())
					if name == "" || href == "" || !ok {
						return
					}
					raw = append(raw, RawHostedEvent{
						Name:      name,
						URL:       href,
						StartTime: startMs,
						EndTime:   endMs,
					})
				})
			}
		}
	}

	if len(raw) == 0 {
		logger.Warn("Devpost scrape yielded no hackathons, using sample data")
		raw = s.sampleDevpost()
	}
	return ParseDevpost(raw)
}

func (s *Service) sampleDevpost() []RawHostedEvent {
	now := s.now().UnixMilli()
	day := 24 * int64(time.Hour/time.Millisecond)
	return []RawHostedEvent{
		{
			Name:      "AI Hackathon 2025",
			URL:       "https://devpost.com/hackathons/ai-hackathon-2025",
			StartTime: now + 10*day,
			EndTime:   now + 12*day,
		},
		{
			Name:      "Mobile App Innovation Challenge",
			URL:       "https://devpost.com/hackathons/mobile-app-innovation",
			StartTime: now + 15*day,
			EndTime:   now + 17*day,
		},
	}
}

// FetchMLH scrapes the season event list, which carries machine-readable
// schema.org dates. Falls back to sample entries on failure.
func (s *Service) FetchMLH(ctx context.Context) []models.Event {
	raw := []RawHostedEvent{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://mlh.io/seasons/2025/events", nil)
	if err == nil {
		res, err := s.client.Do(req)
		if err != nil {
			logger.Error("MLH request failed: %v", err)
		} else {
			defer res.Body.Close()
			doc, err := goquery.NewDocumentFromReader(res.Body)
			if err != nil {
				logger.Error("MLH HTML parse failed: %v", err)
			} else {
				doc.Find(".event").Each(func(i int, ev *goquery.Selection) {
					name := strings.TrimSpace(util.RemoveFormatFromString(ev.Find(".event-name").First().Text()))
					href, _ := ev.Find("a.event-link").First().Attr("href")
					startStr, _ := ev.Find("meta[itemprop=startDate]").First().Attr("content")
					endStr, _ := ev.Find("meta[itemprop=endDate]").First().Attr("content")
					startMs, okStart := parseDateOnly(startStr)
					endMs, okEnd := parseDateOnly(endStr)
					if name == "" || href == "" || !okStart || !okEnd {
						return
					}
					raw = append(raw, RawHostedEvent{
						Name:      name,
						URL:       href,
						StartTime: startMs,
						EndTime:   endMs,
					})
				})
			}
		}
	}

	if len(raw) == 0 {
		logger.Warn("MLH scrape yielded no events, using sample data")
		raw = s.sampleMLH()
	}
	return ParseMLH(raw)
}

func (s *Service) sampleMLH() []RawHostedEvent {
	now := s.now().UnixMilli()
	day := 24 * int64(time.Hour/time.Millisecond)
	return []RawHostedEvent{
		{
			Name:      "HackTech 2025",
			URL:       "https://mlh.io/events/hacktech-2025",
			StartTime: now + 20*day,
			EndTime:   now + 22*day,
		},
		{
			Name:      "HackNYU 2025",
			URL:       "https://mlh.io/events/hacknyu-2025",
			StartTime: now + 25*day,
			EndTime:   now + 27*day,
		},
	}
}

// FetchHackathons returns the union of both hackathon sources.
func (s *Service) FetchHackathons(ctx context.Context) []models.Event {
	return append(s.FetchDevpost(ctx), s.FetchMLH(ctx)...)
}

func (s *Service) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// parseFlexibleTimestamp accepts either an RFC3339 string or an epoch-seconds
// number, the two shapes HackerRank has been observed to deliver.
func parseFlexibleTimestamp(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t.UnixMilli(), true
		}
		return 0, false
	}
	var sec float64
	if err := json.Unmarshal(raw, &sec); err == nil && sec > 0 {
		return int64(sec * 1000), true
	}
	return 0, false
}

// parseDateOnly converts a schema.org "2006-01-02" date to epoch ms UTC.
func parseDateOnly(s string) (int64, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// parseDateRange parses Devpost submission periods such as
// "Jan 10 - Feb 20, 2025" or "Jan 10 - 20, 2025". The year binds to both
// ends; day-only right-hand sides inherit the left-hand month.
func parseDateRange(period string, now time.Time) (int64, int64, bool) {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	year := ""
	if idx := strings.LastIndex(right, ","); idx >= 0 {
		year = strings.TrimSpace(right[idx+1:])
		right = strings.TrimSpace(right[:idx])
	} else {
		year = fmt.Sprintf("%d", now.Year())
	}

	start, err := time.Parse("Jan 2 2006", left+" "+year)
	if err != nil {
		return 0, 0, false
	}

	var end time.Time
	if strings.Contains(right, " ") {
		end, err = time.Parse("Jan 2 2006", right+" "+year)
	} else {
		end, err = time.Parse("Jan 2 2006", start.Format("Jan")+" "+right+" "+year)
	}
	if err != nil || end.Before(start) {
		return 0, 0, false
	}
	return start.UnixMilli(), end.UnixMilli(), true
}
