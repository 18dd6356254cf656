// Package api talks to the remote check-execution service: one
// streamed check request per run plus the persisted-session list API.
// Everything behind these endpoints (the actual proxy probing, session
// storage) is opaque to this client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"proxysweep/pkg/models"
)

// CheckRequest is the JSON body of POST /api/check.
type CheckRequest struct {
	Proxies     string   `json:"proxies"`
	SessionName string   `json:"session_name,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CheckURL    string   `json:"check_url"`
	Timeout     int      `json:"timeout"`
	MaxWorkers  int      `json:"max_workers"`
	ProxyType   string   `json:"proxy_type"`
	Delimiter   string   `json:"delimiter"`
	FieldOrder  string   `json:"field_order"`
}

// SessionSummary is one entry of the persisted-session list.
type SessionSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Tags      []string        `json:"tags"`
	CreatedAt string          `json:"created_at"`
	Stats     models.RunStats `json:"stats"`
}

// Client is the HTTP client for the check/sessions API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the API at baseURL. token, when
// non-empty, is attached as a bearer token to every request. transport
// optionally routes the dial path through an outline-sdk transport
// config (empty = direct).
func NewClient(baseURL, token, transport string, logger *slog.Logger) (*Client, error) {
	httpClient, err := newHTTPClient(transport)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// StartCheck opens the streamed check request and hands the raw
// response body to the caller. The stream stays open until the server
// finishes or ctx is cancelled; the caller owns closing it.
func (c *Client) StartCheck(ctx context.Context, req CheckRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode check request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/check", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build check request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	c.logger.Debug("starting check stream",
		"url", httpReq.URL.String(),
		"proxyType", req.ProxyType,
		"maxWorkers", req.MaxWorkers)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("check request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("server error: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}

// ListSessions fetches the persisted-session list.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sessions", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list sessions: server error: %d", resp.StatusCode)
	}

	var sessions []SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decode session list: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes one persisted session by id.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/sessions/"+id, nil)
	if err != nil {
		return err
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete session: server error: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
