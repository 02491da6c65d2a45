package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProvisioner creates accounts through a real panel backend. The
// backend answers with the credentials it generated; the rest of the
// ledger record is filled in locally.
type HTTPProvisioner struct {
	http    *http.Client
	baseURL string
	key     string
}

func NewHTTP(baseURL, key string) *HTTPProvisioner {
	return &HTTPProvisioner{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

type createRequest struct {
	Package string `json:"package"`
	RAM     string `json:"ram"`
	Disk    string `json:"disk"`
	CPU     string `json:"cpu"`
	Days    int    `json:"days"`
	UserID  int64  `json:"userId"`
}

func (p *HTTPProvisioner) CreateAccount(ctx context.Context, plan Plan, userID int64, userName string) (Account, error) {
	payload, err := json.Marshal(createRequest{
		Package: plan.Key,
		RAM:     plan.RAM,
		Disk:    plan.Disk,
		CPU:     plan.CPU,
		Days:    plan.Days,
		UserID:  userID,
	})
	if err != nil {
		return Account{}, fmt.Errorf("encode create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/accounts", bytes.NewReader(payload))
	if err != nil {
		return Account{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.key != "" {
		req.Header.Set("Authorization", "Bearer "+p.key)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("panel api: %w", err)
	}
	defer func(b io.ReadCloser) {
		err := b.Close()
		if err != nil {
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Account{}, fmt.Errorf("panel api: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Account{}, fmt.Errorf("panel api returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var env struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Result  struct {
			Username  string `json:"username"`
			Password  string `json:"password"`
			ExpiresAt int64  `json:"expiresAt"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Account{}, fmt.Errorf("panel api: malformed body: %w", err)
	}
	if !env.Status {
		return Account{}, fmt.Errorf("panel api rejected: %s", env.Message)
	}
	if env.Result.Username == "" || env.Result.Password == "" {
		return Account{}, fmt.Errorf("panel api returned incomplete credentials")
	}

	now := time.Now()
	acc := Account{
		Username:  env.Result.Username,
		Password:  env.Result.Password,
		UserID:    userID,
		UserName:  userName,
		Package:   plan.Key,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: env.Result.ExpiresAt,
	}
	if acc.ExpiresAt == 0 {
		acc.ExpiresAt = now.Add(time.Duration(plan.Days) * 24 * time.Hour).UnixMilli()
	}
	return acc, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
