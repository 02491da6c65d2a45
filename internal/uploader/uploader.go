package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the external file-hosting service. The service's
// contract is minimal: a multipart POST with a "file" field, answered
// with a bare public link in the response body.
type Client struct {
	http       *http.Client
	uploadURL  string
	linkDomain string
}

// New builds a hosting client. linkDomain is the host links are expected
// on; anything else in the response body is treated as an error message.
func New(uploadURL, linkDomain string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 2 * time.Minute},
		uploadURL:  uploadURL,
		linkDomain: linkDomain,
	}
}

// Upload posts data under filename and returns the public link. The
// hosting service reports failures as plain-text bodies, so the reply
// only counts as success when it parses as a link on the configured
// domain; otherwise the raw body is preserved in the error.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer func(b io.ReadCloser) {
		err := b.Close()
		if err != nil {
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	reply := strings.TrimSpace(string(raw))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload service returned %d: %s", resp.StatusCode, truncate(reply, 200))
	}
	if !c.isHostedLink(reply) {
		return "", fmt.Errorf("upload service replied %q instead of a link", truncate(reply, 200))
	}
	return reply, nil
}

// isHostedLink accepts http(s) URLs whose host is the configured link
// domain or a subdomain of it.
func (c *Client) isHostedLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Host
	return strings.EqualFold(host, c.linkDomain) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(c.linkDomain))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
