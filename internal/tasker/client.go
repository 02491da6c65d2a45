package tasker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Extract is the outcome of a video or audio extraction task: a direct
// media URL the chat platform can ingest.
type Extract struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

// Client drives the managed extraction service. Each call is one
// synchronous task: the service downloads, transcodes and hosts the
// media, then answers with the direct URL. Tasks are slow, hence the
// generous timeout.
type Client struct {
	http    *http.Client
	baseURL string
	key     string
}

func New(baseURL, key string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

// Video extracts a YouTube URL as mp4.
func (c *Client) Video(ctx context.Context, videoURL string) (Extract, error) {
	return c.run(ctx, "ytmp4", videoURL)
}

// Audio extracts a YouTube URL as mp3.
func (c *Client) Audio(ctx context.Context, videoURL string) (Extract, error) {
	return c.run(ctx, "ytmp3", videoURL)
}

func (c *Client) run(ctx context.Context, task, videoURL string) (Extract, error) {
	params := url.Values{"url": {videoURL}}
	if c.key != "" {
		params.Set("key", c.key)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.baseURL, task, params.Encode()), nil)
	if err != nil {
		return Extract{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Extract{}, fmt.Errorf("task %s: %w", task, err)
	}
	defer func(b io.ReadCloser) {
		err := b.Close()
		if err != nil {
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Extract{}, fmt.Errorf("task %s: read body: %w", task, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Extract{}, fmt.Errorf("task %s returned %d: %s", task, resp.StatusCode, truncate(string(body), 200))
	}

	var env struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Extract{}, fmt.Errorf("task %s: malformed body: %w", task, err)
	}
	if !env.Status {
		return Extract{}, fmt.Errorf("task %s rejected: %s", task, env.Message)
	}
	var out Extract
	if err := json.Unmarshal(env.Result, &out); err != nil {
		return Extract{}, fmt.Errorf("task %s: malformed result: %w", task, err)
	}
	if out.URL == "" {
		return Extract{}, fmt.Errorf("task %s produced no media url", task)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
