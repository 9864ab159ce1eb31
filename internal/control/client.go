package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/engine"
	"github.com/goodtune/kquota/internal/executor"
)

// APIError is a non-2xx response from the control API.
type APIError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Message != "" {
		return fmt.Sprintf("control API: %d %s", e.StatusCode, e.Response.Message)
	}
	return fmt.Sprintf("control API: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client talks to a running kquota control server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the engine status.
func (c *Client) Status(ctx context.Context) (engine.Status, error) {
	var st engine.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &st)
	return st, err
}

// Actions fetches the recent action history.
func (c *Client) Actions(ctx context.Context) ([]executor.Record, error) {
	var resp struct {
		Actions []executor.Record `json:"actions"`
	}
	err := c.do(ctx, http.MethodGet, "/api/actions", nil, &resp)
	return resp.Actions, err
}

func (c *Client) SetBlockedApps(ctx context.Context, apps []string) error {
	return c.do(ctx, http.MethodPut, "/api/policy/apps", AppsRequest{Apps: apps}, nil)
}

func (c *Client) SetBlockedDomains(ctx context.Context, domains []string) error {
	return c.do(ctx, http.MethodPut, "/api/policy/domains", DomainsRequest{Domains: domains}, nil)
}

func (c *Client) SetDailyLimit(ctx context.Context, seconds uint32) error {
	return c.setSeconds(ctx, "/api/policy/limit", seconds)
}

func (c *Client) SetResetInterval(ctx context.Context, seconds uint32) error {
	return c.setSeconds(ctx, "/api/policy/reset-interval", seconds)
}

func (c *Client) SetBonusInterval(ctx context.Context, seconds uint32) error {
	return c.setSeconds(ctx, "/api/policy/bonus-interval", seconds)
}

// GrantBonus requests a bonus and returns the seconds granted.
func (c *Client) GrantBonus(ctx context.Context) (uint32, error) {
	var resp BonusResponse
	err := c.do(ctx, http.MethodPost, "/api/bonus", nil, &resp)
	return resp.BonusSeconds, err
}

// Choose accepts the negotiation screen.
func (c *Client) Choose(ctx context.Context) (uint32, error) {
	var resp BonusResponse
	err := c.do(ctx, http.MethodPost, "/api/choice", nil, &resp)
	return resp.BonusSeconds, err
}

// Publish pushes a detector event, so a Client can stand in for a Bus.
func (c *Client) Publish(ctx context.Context, ev detector.Event) error {
	req := EventRequest{Target: ev.Target, Domain: ev.Domain, SourceApp: ev.SourceApp}
	return c.do(ctx, http.MethodPost, "/api/events/"+ev.Kind.String(), req, nil)
}

func (c *Client) setSeconds(ctx context.Context, path string, seconds uint32) error {
	v := int64(seconds)
	return c.do(ctx, http.MethodPut, path, SecondsRequest{Seconds: &v}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach kquota at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr.Response)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
