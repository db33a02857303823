package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"faceit-dashboard/internal/cache"
	"faceit-dashboard/internal/config"
	"faceit-dashboard/internal/constants"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// ErrUnavailable means the endpoint answered but had nothing usable for
// the nickname. Callers surface it as stale data, never as a failure.
var ErrUnavailable = errors.New("supplemental stats unavailable")

// LcryptClient fetches per-nickname supplemental stats. All callers share
// one TTL store and one spacing gate, so concurrent refreshes collapse
// onto cached entries and the endpoint sees at most one request per
// spacing interval.
type LcryptClient struct {
	baseURL string
	client  *fasthttp.Client
	store   *cache.Store[*SupplementalPayload]
	gate    *cache.Gate
	logger  zerolog.Logger
}

func NewLcryptClient(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *LcryptClient {
	return newLcryptClient(cfg.LcryptBaseURL, constants.SupplementalCacheTTL, constants.SupplementalGateDelay, clock, logger)
}

func newLcryptClient(baseURL string, ttl, gateDelay time.Duration, clock clockwork.Clock, logger zerolog.Logger) *LcryptClient {
	return &LcryptClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		store:  cache.NewStore[*SupplementalPayload](ttl, clock),
		gate:   cache.NewGate(gateDelay, clock),
		logger: logger,
	}
}

// FetchWithCache returns the supplemental stats for nickname, serving
// from cache within the TTL. Failures are returned as errors and are not
// cached, so the next attempt retries immediately (subject to the gate).
func (c *LcryptClient) FetchWithCache(ctx context.Context, nickname string) (*SupplementalPayload, error) {
	if payload, ok := c.store.Get(nickname); ok {
		c.logger.Debug().Str("nickname", nickname).Msg("supplemental cache hit")
		return payload, nil
	}

	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := c.fetch(ctx, nickname)
	if err != nil {
		return nil, err
	}

	c.store.Set(nickname, payload)
	return payload, nil
}

// Invalidate drops the cached entry for nickname, forcing the next
// FetchWithCache to go to the network.
func (c *LcryptClient) Invalidate(nickname string) {
	c.store.Delete(nickname)
}

func (c *LcryptClient) fetch(ctx context.Context, nickname string) (*SupplementalPayload, error) {
	u := fmt.Sprintf("%s/?n=%s", c.baseURL, url.QueryEscape(nickname))

	var payload SupplementalPayload
	backoff := retry.WithMaxRetries(3, retry.WithCappedDuration(10*time.Second, retry.NewExponential(time.Second)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, body, err := c.do(ctx, u)
		if err != nil {
			return err
		}
		if status == fasthttp.StatusTooManyRequests {
			c.logger.Warn().Str("nickname", nickname).Msg("supplemental endpoint rate limited, backing off")
			return retry.RetryableError(fmt.Errorf("stats endpoint rate limited: %d", status))
		}
		if status != fasthttp.StatusOK {
			return fmt.Errorf("stats endpoint error: %d", status)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return err
		}
		if payload.Error {
			return ErrUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *LcryptClient) do(ctx context.Context, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return 0, nil, err
		}
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}

// SupplementalPayload mirrors the stats endpoint response. The upstream
// data is partial by nature; absent sections report Present=false or stay
// zero.
type SupplementalPayload struct {
	Error   bool   `json:"error"`
	Elo     int    `json:"elo"`
	Level   int    `json:"lvl"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Ladder  struct {
		Region  int `json:"region"`
		Country int `json:"country"`
	} `json:"ladder"`
	Today struct {
		Present bool `json:"present"`
		Win     int  `json:"win"`
		Lose    int  `json:"lose"`
		Elo     int  `json:"elo"`
		Count   int  `json:"count"`
	} `json:"today"`
	Trend   string `json:"trend"`
	Current struct {
		Present     bool   `json:"present"`
		Status      string `json:"status"`
		State       string `json:"state"`
		MatchID     string `json:"match_id"`
		Competition string `json:"what"`
		Map         string `json:"map"`
		Server      string `json:"server"`
		Queue       string `json:"queue"`
	} `json:"current"`
}
