package service

import (
	"testing"

	"faceit-dashboard/internal/api"
)

func TestParseFloatOr(t *testing.T) {
	cases := []struct {
		in       string
		fallback float64
		want     float64
	}{
		{"1.12", 0, 1.12},
		{"52", 0, 52},
		{"", 7.5, 7.5},
		{"n/a", 3, 3},
	}
	for _, c := range cases {
		if got := parseFloatOr(c.in, c.fallback); got != c.want {
			t.Errorf("parseFloatOr(%q, %v) = %v, want %v", c.in, c.fallback, got, c.want)
		}
	}
}

func TestParseIntOr(t *testing.T) {
	cases := []struct {
		in       string
		fallback int
		want     int
	}{
		{"780", 0, 780},
		{"", 5, 5},
		{"12.5", 9, 9},
	}
	for _, c := range cases {
		if got := parseIntOr(c.in, c.fallback); got != c.want {
			t.Errorf("parseIntOr(%q, %d) = %d, want %d", c.in, c.fallback, got, c.want)
		}
	}
}

func TestSupplementalFromPayload(t *testing.T) {
	p := &api.SupplementalPayload{
		Elo:     2100,
		Level:   10,
		Region:  "EU",
		Country: "ro",
		Trend:   "up",
	}
	p.Ladder.Region = 120
	p.Ladder.Country = 4
	p.Today.Present = true
	p.Today.Win = 3
	p.Today.Lose = 1
	p.Today.Elo = 42
	p.Today.Count = 4

	supp := supplementalFromPayload(p)

	if supp.Elo != 2100 || supp.Level != 10 {
		t.Errorf("elo/level not carried over: %+v", supp)
	}
	if supp.RegionPlace != 120 || supp.CountryPlace != 4 {
		t.Errorf("ladder placements not carried over: %+v", supp)
	}
	if supp.Today == nil {
		t.Fatal("expected daily summary when present")
	}
	if supp.Today.Wins != 3 || supp.Today.Losses != 1 || supp.Today.EloDiff != 42 || supp.Today.Matches != 4 {
		t.Errorf("daily summary mismatch: %+v", supp.Today)
	}
}

func TestSupplementalFromPayload_NoToday(t *testing.T) {
	supp := supplementalFromPayload(&api.SupplementalPayload{Elo: 1500})
	if supp.Today != nil {
		t.Error("absent daily section must stay nil")
	}
}

func TestLiveFromPayload(t *testing.T) {
	p := &api.SupplementalPayload{}
	p.Current.Present = true
	p.Current.Status = "LIVE"
	p.Current.MatchID = "m-77"
	p.Current.Competition = "ECL"
	p.Current.Map = "de_mirage"
	p.Current.Server = "eu-west"
	p.Current.Queue = "5v5"

	live := liveFromPayload(p)
	if !live.IsLive {
		t.Fatal("expected live info")
	}
	if live.MatchID != "m-77" || live.Competition != "ECL" || live.Map != "de_mirage" {
		t.Errorf("live info mismatch: %+v", live)
	}
}

func TestLiveFromPayload_NotPresent(t *testing.T) {
	live := liveFromPayload(&api.SupplementalPayload{})
	if live.IsLive {
		t.Error("absent current section must mean not live")
	}
	if live.MatchID != "" {
		t.Errorf("expected empty match id, got %q", live.MatchID)
	}
}
