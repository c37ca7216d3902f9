package platform

import "github.com/contestpulse/contest-pulse/pkg/models"

// Prefixes used to build globally unique event ids per source.
const (
	PrefixCodeforces = "cf"
	PrefixLeetCode   = "lc"
	PrefixCodeChef   = "cc"
	PrefixHackerRank = "hr"
	PrefixDevpost    = "dp"
	PrefixMLH        = "mlh"
)

// GetPlatforms returns the registry of upstream sources. Url is the endpoint
// the matching fetcher talks to; Color is the accent color the mobile client
// renders the platform with.
func GetPlatforms() []models.Platform {
	platforms := []models.Platform{
		{
			Id:    "codeforces",
			Name:  "Codeforces",
			Url:   "https://codeforces.com/api/contest.list",
			Kind:  models.TypeContest,
			Color: "#1890ff",
		},
		{
			Id:    "leetcode",
			Name:  "LeetCode",
			Url:   "https://leetcode.com/graphql",
			Kind:  models.TypeContest,
			Color: "#f5a623",
		},
		{
			Id:    "codechef",
			Name:  "CodeChef",
			Url:   "https://www.codechef.com",
			Kind:  models.TypeContest,
			Color: "#5c4033",
		},
		{
			Id:    "hackerrank",
			Name:  "HackerRank",
			Url:   "https://www.hackerrank.com/rest/contests/upcoming?limit=100",
			Kind:  models.TypeContest,
			Color: "#2ec866",
		},
		{
			Id:    "devpost",
			Name:  "Devpost",
			Url:   "https://devpost.com/hackathons",
			Kind:  models.TypeHackathon,
			Color: "#003e54",
		},
		{
			Id:    "mlh",
			Name:  "MLH",
			Url:   "https://mlh.io/seasons/2025/events",
			Kind:  models.TypeHackathon,
			Color: "#e73427",
		},
	}
	return platforms
}

// GetColor returns the accent color for a platform display name.
func GetColor(platformName string) string {
	for _, p := range GetPlatforms() {
		if p.Name == platformName {
			return p.Color
		}
	}
	return "#6c757d"
}
