package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"faceit-dashboard/internal/config"

	"github.com/valyala/fasthttp"
)

// FaceitClient talks to the FACEIT Data API (open.faceit.com/data/v4).
type FaceitClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
}

func NewFaceitClient(cfg *config.Config) *FaceitClient {
	return &FaceitClient{
		apiKey:  cfg.FaceitAPIKey,
		baseURL: cfg.FaceitBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *FaceitClient) GetPlayerByNickname(ctx context.Context, nickname string) (*PlayerResponse, error) {
	u := fmt.Sprintf("%s/players?nickname=%s", c.baseURL, url.QueryEscape(nickname))
	return doRequest[PlayerResponse](ctx, c, u)
}

func (c *FaceitClient) GetPlayer(ctx context.Context, playerID string) (*PlayerResponse, error) {
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(playerID))
	return doRequest[PlayerResponse](ctx, c, u)
}

func (c *FaceitClient) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStatsResponse, error) {
	u := fmt.Sprintf("%s/players/%s/stats/cs2", c.baseURL, url.PathEscape(playerID))
	return doRequest[PlayerStatsResponse](ctx, c, u)
}

func doRequest[T any](ctx context.Context, client *FaceitClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+client.apiKey)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("FACEIT API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type PlayerResponse struct {
	PlayerID   string              `json:"player_id"`
	Nickname   string              `json:"nickname"`
	Avatar     string              `json:"avatar"`
	CoverImage string              `json:"cover_image"`
	Country    string              `json:"country"`
	Games      map[string]GameInfo `json:"games"`
}

type GameInfo struct {
	Region       string `json:"region"`
	SkillLevel   int    `json:"skill_level"`
	FaceitElo    int    `json:"faceit_elo"`
	GamePlayerID string `json:"game_player_id"`
}

// PlayerStatsResponse mirrors /players/{id}/stats/cs2. FACEIT serves every
// lifetime number as a string, so the fields stay strings here and get
// parsed defensively in the service layer.
type PlayerStatsResponse struct {
	PlayerID string        `json:"player_id"`
	GameID   string        `json:"game_id"`
	Lifetime LifetimeStats `json:"lifetime"`
}

type LifetimeStats struct {
	Matches          string   `json:"Matches"`
	Wins             string   `json:"Wins"`
	WinRatePercent   string   `json:"Win Rate %"`
	AverageHeadshots string   `json:"Average Headshots %"`
	AverageKDRatio   string   `json:"Average K/D Ratio"`
	CurrentWinStreak string   `json:"Current Win Streak"`
	LongestWinStreak string   `json:"Longest Win Streak"`
	RecentResults    []string `json:"Recent Results"`
}
