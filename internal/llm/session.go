package llm

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

// SessionClient talks to the hosted completion endpoint: one GET per turn
// carrying the raw user utterance, an opaque session key the vendor uses to
// keep its own conversation state, and the API key.
type SessionClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

type sessionResponse struct {
	Status  bool   `json:"status"`
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

func NewSession(baseURL, apiKey string) *SessionClient {
	return &SessionClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *SessionClient) Generate(ctx context.Context, session string, messages []Message) (Response, error) {
	// The endpoint is stateless per call; it only wants the newest user
	// utterance plus the session key.
	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			prompt = messages[i].Content
			break
		}
	}
	if prompt == "" {
		return Response{}, fmt.Errorf("no user message to submit")
	}

	q := url.Values{}
	q.Set("q", prompt)
	q.Set("session", session)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	reqURL := c.baseURL + "/chat?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("completion request failed: %w", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("completion http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out sessionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("completion body malformed: %w", err)
	}
	if !out.Status || out.Result == "" {
		msg := out.Message
		if msg == "" {
			msg = "empty result"
		}
		return Response{}, fmt.Errorf("completion rejected: %s", msg)
	}
	return Response{Content: out.Result, Model: "session"}, nil
}
