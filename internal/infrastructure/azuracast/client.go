// ABOUTME: AzuraCast API client for channel list and now-playing reads
// ABOUTME: Lazy reusable HTTP session, retry-wrapped calls, tolerant parsing
package azuracast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
	"github.com/andypiper/theindiebeat-simple-player/internal/infrastructure/retry"
)

const maxBodyBytes = 1 << 20

// StatusError is a non-200 response. It is retryable.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

type Config struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
}

// Client issues the two remote read operations against an AzuraCast
// instance. The HTTP session is created lazily and recreated after Close;
// at most one live session exists per Client. The session is touched only
// from the background execution context, so it needs no locking.
type Client struct {
	cfg    Config
	policy *retry.Policy
	log    *zap.Logger

	httpc  *http.Client
	closed bool
}

func New(cfg Config, policy *retry.Policy, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		policy: policy,
		log:    log,
	}
}

func (c *Client) session() *http.Client {
	if c.httpc == nil || c.closed {
		c.httpc = &http.Client{Timeout: c.cfg.RequestTimeout}
		c.closed = false
	}
	return c.httpc
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.session().Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// ListChannels fetches the station list. When every retry attempt fails it
// returns an empty slice rather than an error, so the menu always has a
// renderable state.
func (c *Client) ListChannels(ctx context.Context) ([]channel.Channel, error) {
	channels, err := retry.Do(ctx, c.policy, "list channels", func() ([]channel.Channel, error) {
		body, err := c.get(ctx, c.cfg.BaseURL+"/stations")
		if err != nil {
			return nil, err
		}
		return decodeChannels(body)
	})
	if err != nil {
		c.log.Warn("channel list unavailable", zap.Error(err))
		return []channel.Channel{}, nil
	}
	return channels, nil
}

// NowPlaying fetches the current track snapshot for a station. A payload
// without now-playing data, and exhausted retries, both yield nil.
func (c *Client) NowPlaying(ctx context.Context, shortcode string) (*channel.NowPlaying, error) {
	snapshot, err := retry.Do(ctx, c.policy, "now playing", func() (*channel.NowPlaying, error) {
		body, err := c.get(ctx, c.cfg.BaseURL+"/nowplaying/"+shortcode)
		if err != nil {
			return nil, err
		}
		return parseNowPlaying(body), nil
	})
	if err != nil {
		c.log.Warn("now playing unavailable",
			zap.String("shortcode", shortcode),
			zap.Error(err))
		return nil, nil
	}
	return snapshot, nil
}

// Close releases the HTTP session. Idempotent; a later call recreates it.
func (c *Client) Close() {
	if c.httpc != nil && !c.closed {
		c.httpc.CloseIdleConnections()
		c.closed = true
	}
}

func decodeChannels(body []byte) ([]channel.Channel, error) {
	var raw []struct {
		Name      string `json:"name"`
		Shortcode string `json:"shortcode"`
		ListenURL string `json:"listen_url"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}

	channels := make([]channel.Channel, 0, len(raw))
	for _, st := range raw {
		channels = append(channels, channel.New(st.Name, st.Shortcode, st.ListenURL))
	}
	return channels, nil
}

func parseNowPlaying(body []byte) *channel.NowPlaying {
	now := gjson.GetBytes(body, "now_playing")
	if !now.Exists() {
		return nil
	}
	song := now.Get("song")
	return &channel.NowPlaying{
		Artist:  song.Get("artist").String(),
		Title:   song.Get("title").String(),
		ExtLink: song.Get("custom_fields.ext_links").String(),
	}
}
