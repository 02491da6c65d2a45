package mediaapi

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

// Source names a social network the aggregator can rip media from.
type Source string

const (
	SourceInstagram    Source = "instagram"
	SourcePinterest    Source = "pinterest"
	SourceTikTok       Source = "tiktok"
	SourceTikTokSlides Source = "tiktok-slides"
)

// Devices lists the viewport presets the screenshot endpoint accepts.
var Devices = []string{"desktop", "mobile", "tablet"}

// Media is one downloadable item of a social post.
type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"` // video, image or audio
}

// FileHit is one result of the file-search endpoint.
type FileHit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Size  string `json:"size"`
}

// Profile is what the profile-lookup endpoint knows about a username.
type Profile struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	Posts     int    `json:"posts"`
}

// Client talks to the media aggregator API. Every endpoint shares the
// same envelope: {"status": bool, "message": string, "result": ...},
// authenticated by a key query parameter.
type Client struct {
	http    *http.Client
	baseURL string
	key     string
}

func New(baseURL, key string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

// Download resolves a social post URL into its direct media items.
func (c *Client) Download(ctx context.Context, source Source, postURL string) ([]Media, error) {
	var items []Media
	params := url.Values{"url": {postURL}}
	if err := c.get(ctx, string(source), params, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s returned no media for %s", source, postURL)
	}
	return items, nil
}

// SearchImage returns one image URL matching the query.
func (c *Client) SearchImage(ctx context.Context, query string) (string, error) {
	var link string
	if err := c.get(ctx, "image-search", url.Values{"q": {query}}, &link); err != nil {
		return "", err
	}
	return link, nil
}

// RandomVideo pulls one item from the aggregator's random video feed.
func (c *Client) RandomVideo(ctx context.Context) (string, error) {
	var link string
	if err := c.get(ctx, "random-video", nil, &link); err != nil {
		return "", err
	}
	return link, nil
}

// QR renders text as a QR code and returns the image URL.
func (c *Client) QR(ctx context.Context, text string) (string, error) {
	var link string
	if err := c.get(ctx, "qr", url.Values{"text": {text}}, &link); err != nil {
		return "", err
	}
	return link, nil
}

// Screenshot captures siteURL with the given viewport preset.
func (c *Client) Screenshot(ctx context.Context, siteURL, device string) (string, error) {
	if !validDevice(device) {
		return "", fmt.Errorf("unknown device %q, expected one of %s", device, strings.Join(Devices, "|"))
	}
	var link string
	params := url.Values{"url": {siteURL}, "device": {device}}
	if err := c.get(ctx, "screenshot", params, &link); err != nil {
		return "", err
	}
	return link, nil
}

// SearchFiles queries the file-search endpoint.
func (c *Client) SearchFiles(ctx context.Context, query string) ([]FileHit, error) {
	var hits []FileHit
	if err := c.get(ctx, "file-search", url.Values{"q": {query}}, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// Profile looks a username up.
func (c *Client) Profile(ctx context.Context, username string) (Profile, error) {
	var p Profile
	if err := c.get(ctx, "profile", url.Values{"user": {username}}, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.key != "" {
		params.Set("key", c.key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode()), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("media api %s: %w", endpoint, err)
	}
	defer func(b io.ReadCloser) {
		err := b.Close()
		if err != nil {
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("media api %s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("media api %s returned %d: %s", endpoint, resp.StatusCode, truncate(string(body), 200))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("media api %s: malformed body: %w", endpoint, err)
	}
	if !env.Status {
		return fmt.Errorf("media api %s rejected request: %s", endpoint, env.Message)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("media api %s: malformed result: %w", endpoint, err)
		}
	}
	return nil
}

func validDevice(device string) bool {
	for _, d := range Devices {
		if d == device {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
