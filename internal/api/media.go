package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"faceit-dashboard/internal/cache"
	"faceit-dashboard/internal/config"
	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// MediaClient polls the streams/recordings host. Both listings are cheap
// to serve stale, so they sit behind short TTL stores.
type MediaClient struct {
	baseURL    string
	client     *fasthttp.Client
	streams    *cache.Store[map[string]int]
	recordings *cache.Store[[]domain.Recording]
	logger     zerolog.Logger
}

func NewMediaClient(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *MediaClient {
	return newMediaClient(cfg.MediaBaseURL, constants.StreamsCacheTTL, constants.RecordingsCacheTTL, clock, logger)
}

func newMediaClient(baseURL string, streamsTTL, recordingsTTL time.Duration, clock clockwork.Clock, logger zerolog.Logger) *MediaClient {
	return &MediaClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		streams:    cache.NewStore[map[string]int](streamsTTL, clock),
		recordings: cache.NewStore[[]domain.Recording](recordingsTTL, clock),
		logger:     logger,
	}
}

// Enabled reports whether a media host is configured at all.
func (c *MediaClient) Enabled() bool {
	return c.baseURL != ""
}

// Streams returns the active stream map, stream name (lowercased) to
// viewer count.
func (c *MediaClient) Streams(ctx context.Context) (map[string]int, error) {
	if !c.Enabled() {
		return map[string]int{}, nil
	}
	if cached, ok := c.streams.Get("streams"); ok {
		return cached, nil
	}

	var raw map[string]int
	if err := c.getJSON(ctx, c.baseURL+"/streams", &raw); err != nil {
		return nil, err
	}

	// stream names are matched case-insensitively against nicknames
	result := make(map[string]int, len(raw))
	for name, viewers := range raw {
		result[strings.ToLower(name)] = viewers
	}

	c.streams.Set("streams", result)
	return result, nil
}

func (c *MediaClient) Recordings(ctx context.Context) ([]domain.Recording, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if cached, ok := c.recordings.Get("recordings"); ok {
		return cached, nil
	}

	var result []domain.Recording
	if err := c.getJSON(ctx, c.baseURL+"/recordings", &result); err != nil {
		return nil, err
	}

	c.recordings.Set("recordings", result)
	return result, nil
}

func (c *MediaClient) getJSON(ctx context.Context, url string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("media host error: %d", resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), out)
}
