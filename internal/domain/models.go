package domain

import (
	"time"
)

// Friend is a tracked player on the dashboard roster. PlayerID is the
// stable key; Nickname can change on FACEIT and is re-resolved through
// PlayerID where possible.
type Friend struct {
	PlayerID   string  `json:"player_id"`
	Nickname   string  `json:"nickname"`
	Avatar     string  `json:"avatar"`
	CoverImage string  `json:"cover_image"`
	Level      int     `json:"level"`
	Elo        int     `json:"elo"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"winRate"`
	HSRate     float64 `json:"hsRate"`
	KDRatio    float64 `json:"kdRatio"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// EnrichedFriend is a Friend plus supplemental stats and live status.
// Every roster Friend has exactly one EnrichedFriend entry at all times;
// a failed refresh leaves the entry stale (Supplemental nil, IsLive false)
// rather than removing it.
type EnrichedFriend struct {
	Friend
	Supplemental    *SupplementalStats `json:"supplemental,omitempty"`
	IsLive          bool               `json:"isLive"`
	LiveMatch       *LiveMatchInfo     `json:"liveMatch,omitempty"`
	LiveCompetition string             `json:"liveCompetition,omitempty"`
}

// SupplementalStats carries the per-nickname stats the dashboard shows
// next to the base profile. The upstream payload is partial; absent
// fields stay at their zero value or nil.
type SupplementalStats struct {
	Elo          int           `json:"elo"`
	Level        int           `json:"level"`
	Region       string        `json:"region,omitempty"`
	Country      string        `json:"country,omitempty"`
	RegionPlace  int           `json:"region_place,omitempty"`
	CountryPlace int           `json:"country_place,omitempty"`
	Today        *DailySummary `json:"today,omitempty"`
	Trend        string        `json:"trend,omitempty"`
}

// DailySummary is the win/loss/elo delta for the current day.
type DailySummary struct {
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	EloDiff int `json:"elo_diff"`
	Matches int `json:"matches"`
}

// LiveMatchInfo describes a friend's in-progress match, keyed by PlayerID
// in the live map. Entries are replaced wholesale on each refresh, never
// patched.
type LiveMatchInfo struct {
	IsLive      bool   `json:"isLive"`
	MatchID     string `json:"matchId,omitempty"`
	Competition string `json:"competition,omitempty"`
	Map         string `json:"map,omitempty"`
	Server      string `json:"server,omitempty"`
	Queue       string `json:"queue,omitempty"`
	Status      string `json:"status,omitempty"`
	State       string `json:"state,omitempty"`
}

// TeamGroup is an inferred shared-match group of live friends. Groups are
// recomputed from scratch on every request and hold 2-5 players by
// construction.
type TeamGroup struct {
	ID            string           `json:"id"`
	Players       []EnrichedFriend `json:"players"`
	MatchCriteria string           `json:"matchCriteria"`
	Color         string           `json:"color"`
}

// Recording is one archived demo/VOD entry from the media host.
type Recording struct {
	Nickname string    `json:"nickname"`
	Filename string    `json:"filename"`
	Date     time.Time `json:"date"`
	Size     int64     `json:"size"`
}

// EloHistoryEntry is one observed ELO change for a friend.
type EloHistoryEntry struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	Elo        int       `json:"elo"`
	EloDiff    int       `json:"elo_diff"`
	RecordedAt time.Time `json:"recorded_at"`
}
