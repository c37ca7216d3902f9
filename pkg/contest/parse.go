package contest

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/platform"
	"github.com/contestpulse/contest-pulse/pkg/util"
)

// Raw record shapes as delivered by the upstream APIs. The parsers below are
// pure: no I/O, no mutation of inputs, no error paths. Malformed records are
// dropped by the fetchers before parsing, not here.

type RawCodeforcesContest struct {
	Id               int64  `json:"id"`
	Name             string `json:"name"`
	Phase            string `json:"phase"`
	StartTimeSeconds int64  `json:"startTimeSeconds"`
	DurationSeconds  int64  `json:"durationSeconds"`
}

type RawLeetCodeContest struct {
	Title       string `json:"title"`
	TitleSlug   string `json:"titleSlug"`
	StartTime   int64  `json:"startTime"` // epoch seconds
	Duration    int64  `json:"duration"`  // seconds
	Description string `json:"description"`
}

// RawHostedEvent covers sources that deliver absolute start/end instants and
// a ready-made link: CodeChef contests and Devpost/MLH hackathon listings.
type RawHostedEvent struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	StartTime int64  `json:"startTime"` // epoch ms
	EndTime   int64  `json:"endTime"`   // epoch ms
}

type RawHackerRankContest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	StartTime int64  `json:"startTime"` // epoch ms, validated by the fetcher
	EndTime   int64  `json:"endTime"`   // epoch ms, validated by the fetcher
}

// timeUntil renders a human-relative description of an epoch-ms instant.
// The value goes stale by definition; render paths recompute it.
func timeUntil(startMs int64) string {
	return humanize.Time(time.UnixMilli(startMs))
}

// ParseCodeforces keeps only contests in phase BEFORE, capped to the first
// 10 in upstream order. Upstream lists soonest-first, so the cap keeps the
// soonest 10; global ordering is the aggregator's job, not re-sorted here.
func ParseCodeforces(contests []RawCodeforcesContest) []models.Event {
	events := []models.Event{}
	for _, c := range contests {
		if c.Phase != "BEFORE" {
			continue
		}
		if len(events) == 10 {
			break
		}
		startMs := c.StartTimeSeconds * 1000
		endMs := (c.StartTimeSeconds + c.DurationSeconds) * 1000
		events = append(events, models.Event{
			Id:               fmt.Sprintf("%s-%d", platform.PrefixCodeforces, c.Id),
			Name:             c.Name,
			URL:              fmt.Sprintf("https://codeforces.com/contest/%d", c.Id),
			StartTime:        startMs,
			EndTime:          endMs,
			Duration:         endMs - startMs,
			Platform:         "Codeforces",
			Type:             models.TypeContest,
			TimeUntil:        timeUntil(startMs),
			RegistrationOpen: true,
		})
	}
	return events
}

// ParseLeetCode converts GraphQL contest records. The future-only filter
// happens in the fetcher before parsing.
func ParseLeetCode(contests []RawLeetCodeContest) []models.Event {
	events := []models.Event{}
	for _, c := range contests {
		startMs := c.StartTime * 1000
		endMs := (c.StartTime + c.Duration) * 1000
		events = append(events, models.Event{
			Id:               fmt.Sprintf("%s-%s", platform.PrefixLeetCode, c.TitleSlug),
			Name:             c.Title,
			URL:              fmt.Sprintf("https://leetcode.com/contest/%s", c.TitleSlug),
			StartTime:        startMs,
			EndTime:          endMs,
			Duration:         endMs - startMs,
			Platform:         "LeetCode",
			Type:             models.TypeContest,
			TimeUntil:        timeUntil(startMs),
			RegistrationOpen: true,
			Description:      c.Description,
		})
	}
	return events
}

// ParseCodeChef derives the id from the slugified event name; CodeChef
// exposes no stable numeric id here, so identically-named contests collide.
func ParseCodeChef(contests []RawHostedEvent) []models.Event {
	return parseHostedEvents(contests, platform.PrefixCodeChef, "CodeChef", models.TypeContest)
}

// ParseHackerRank converts contests whose timestamps the fetcher already
// validated and normalized to epoch ms.
func ParseHackerRank(contests []RawHackerRankContest) []models.Event {
	events := []models.Event{}
	for _, c := range contests {
		events = append(events, models.Event{
			Id:               fmt.Sprintf("%s-%s", platform.PrefixHackerRank, c.Slug),
			Name:             c.Name,
			URL:              fmt.Sprintf("https://www.hackerrank.com/contests/%s", c.Slug),
			StartTime:        c.StartTime,
			EndTime:          c.EndTime,
			Duration:         c.EndTime - c.StartTime,
			Platform:         "HackerRank",
			Type:             models.TypeContest,
			TimeUntil:        timeUntil(c.StartTime),
			RegistrationOpen: true,
		})
	}
	return events
}

// ParseDevpost derives the id from the slugified hackathon name (weak key,
// see ParseCodeChef).
func ParseDevpost(hackathons []RawHostedEvent) []models.Event {
	return parseHostedEvents(hackathons, platform.PrefixDevpost, "Devpost", models.TypeHackathon)
}

// ParseMLH derives the id from the slugified event name (weak key, see
// ParseCodeChef).
func ParseMLH(hackathons []RawHostedEvent) []models.Event {
	return parseHostedEvents(hackathons, platform.PrefixMLH, "MLH", models.TypeHackathon)
}

func parseHostedEvents(raw []RawHostedEvent, prefix string, platformName string, kind models.EventType) []models.Event {
	events := []models.Event{}
	for _, r := range raw {
		events = append(events, models.Event{
			Id:               fmt.Sprintf("%s-%s", prefix, util.Slugify(r.Name)),
			Name:             r.Name,
			URL:              r.URL,
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
			Duration:         r.EndTime - r.StartTime,
			Platform:         platformName,
			Type:             kind,
			TimeUntil:        timeUntil(r.StartTime),
			RegistrationOpen: true,
		})
	}
	return events
}
