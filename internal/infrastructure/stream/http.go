// ABOUTME: HTTP stream source for channel audio
// ABOUTME: Handles upstream connection with timeouts and proper headers
package stream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration
	Headers        map[string]string
}

type HTTPSource struct {
	cfg    Config
	client *http.Client
}

func NewHTTP(cfg Config) *HTTPSource {
	transport := &http.Transport{
		DisableCompression:    true,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.ConnectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   0, // No total timeout for streaming
	}

	return &HTTPSource{
		cfg:    cfg,
		client: client,
	}
}

func (h *HTTPSource) Connect(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if h.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", h.cfg.UserAgent)
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
