package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
)

const (
	requestTimeout   = 30 * time.Second
	heartbeatTimeout = 15 * time.Second
)

// Client is the gateway's only boundary to the control plane. Every call
// carries the static gateway key in X-API-Key; none retry internally — the
// next scheduled cycle is the retry.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
	log       *zap.Logger
}

func New(baseURL, apiKey, userAgent string, log *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		userAgent: userAgent,
		http:      &http.Client{Timeout: requestTimeout},
		log:       log,
	}
}

// FetchProbes returns the gateway's currently assigned probe list.
func (c *Client) FetchProbes(ctx context.Context) ([]domain.ProbeSpec, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/gateway/probes", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch probes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch probes: backend returned status %d", resp.StatusCode)
	}

	var probes []domain.ProbeSpec
	if err := json.NewDecoder(resp.Body).Decode(&probes); err != nil {
		return nil, fmt.Errorf("decode probes: %w", err)
	}
	c.log.Debug("probes_fetched", zap.Int("count", len(probes)))
	return probes, nil
}

// resultBatch is the result-push payload. The key rides in the body as well as
// the header; the backend treats duplicate submissions as idempotent per
// result identifier.
type resultBatch struct {
	APIKey  string               `json:"apiKey"`
	Results []domain.ProbeResult `json:"results"`
}

// PushResults delivers one batch of results. Acknowledgement is all-or-nothing.
func (c *Client) PushResults(ctx context.Context, results []domain.ProbeResult) error {
	body, err := json.Marshal(resultBatch{APIKey: c.apiKey, Results: results})
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/gateway/results", body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push results: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("push results: backend returned status %d", resp.StatusCode)
	}
	return nil
}

// PushHeartbeat announces liveness and backlog depth. Uses a shorter deadline
// than result pushes; callers treat failure as non-fatal.
func (c *Client) PushHeartbeat(ctx context.Context, hb domain.Heartbeat) error {
	body, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("encode heartbeat: %w", err)
	}
	hctx, cancel := context.WithTimeout(ctx, heartbeatTimeout)
	defer cancel()

	req, err := c.newRequest(hctx, http.MethodPost, "/api/gateway/heartbeat", body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push heartbeat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("push heartbeat: backend returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}
