package platform

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/contestpulse/contest-pulse/pkg/models"
)

func TestGetPlatforms_RegistryIsComplete(t *testing.T) {
	platforms := GetPlatforms()
	if len(platforms) != 6 {
		t.Fatalf("expected 6 platforms, got %d", len(platforms))
	}

	contests, hackathons := 0, 0
	seen := map[string]bool{}
	for _, p := range platforms {
		if p.Id == "" || p.Name == "" || p.Url == "" || p.Color == "" {
			t.Errorf("platform %q has empty fields: %+v", p.Id, p)
		}
		if seen[p.Id] {
			t.Errorf("duplicate platform id %q", p.Id)
		}
		seen[p.Id] = true
		switch p.Kind {
		case models.TypeContest:
			contests++
		case models.TypeHackathon:
			hackathons++
		default:
			t.Errorf("platform %q has unknown kind %q", p.Id, p.Kind)
		}
	}
	if contests != 4 || hackathons != 2 {
		t.Errorf("expected 4 contest and 2 hackathon platforms, got %d and %d", contests, hackathons)
	}
}

func TestGetColor(t *testing.T) {
	if got := GetColor("Codeforces"); got != "#1890ff" {
		t.Errorf("unexpected color %s", got)
	}
	if got := GetColor("NoSuchPlatform"); got != "#6c757d" {
		t.Errorf("expected fallback color, got %s", got)
	}
}

func TestGetPlatformsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	GetPlatformsHandler(rec, httptest.NewRequest("GET", "/platforms", nil))

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var platforms []models.Platform
	if err := json.Unmarshal(rec.Body.Bytes(), &platforms); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(platforms) != 6 {
		t.Errorf("expected 6 platforms, got %d", len(platforms))
	}
}
