// Package m4d is the Media4Display device-management API client.
package m4d

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"m4dsync/internal/config"
	"m4dsync/internal/logging"
	"m4dsync/internal/services"
)

const (
	jsonContentType      = "application/json"
	jsonPatchContentType = "application/json-patch+json"
	errorBodyLimit       = 4096
)

// Directory is the player API consumed by the reconciliation drivers.
type Directory interface {
	ListPlayers(ctx context.Context) ([]Player, error)
	GetPlayer(ctx context.Context, id int64) (*Player, error)
	PatchCity(ctx context.Context, id int64, city string) error
	SetVariables(ctx context.Context, id int64, vars []Variable) error
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the Media4Display REST API.
type Client struct {
	cfg        config.DirectoryConfig
	httpClient HTTPDoer
	logger     *slog.Logger

	mu    sync.Mutex
	token string
}

var _ Directory = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "m4d")
	}
}

// New creates a directory client. The API key and organization must already
// be resolved.
func New(cfg config.DirectoryConfig, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("m4d base url required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("m4d api key required")
	}
	if strings.TrimSpace(cfg.Organization) == "" {
		return nil, errors.New("m4d organization required")
	}
	if cfg.TokenPolicy == "" {
		cfg.TokenPolicy = config.TokenPolicyPerRequest
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.ListTimeout <= 0 {
		cfg.ListTimeout = 120 * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.NewComponentLogger(nil, "m4d"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Token exchanges the API key for a bearer token. The response body is a
// JSON-quoted string.
func (c *Client) Token(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TokenTimeout)
	defer cancel()

	payload := map[string]string{"apiKey": c.cfg.APIKey, "organization": c.cfg.Organization}
	status, _, body, err := c.send(ctx, http.MethodPost, "/v1/token", payload, jsonContentType, "")
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", &APIError{Method: http.MethodPost, Path: "/v1/token", StatusCode: status, Body: truncate(body)}
	}
	token := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if token == "" {
		return "", services.Wrap(services.ErrExternal, "m4d", "token", "empty token in response", nil)
	}
	return token, nil
}

// ListPlayers fetches every player visible to the organization. A response
// that is not a JSON array yields an empty list.
func (c *Client) ListPlayers(ctx context.Context) ([]Player, error) {
	var raw json.RawMessage
	if err := c.call(ctx, c.cfg.ListTimeout, http.MethodGet, "/v1/players", nil, "", &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		logging.WarnWithContext(c.logger, "player list response is not a list", "directory_unexpected_shape",
			logging.Hint("check the organization and API version"),
		)
		return []Player{}, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, services.Wrap(services.ErrExternal, "m4d", "list players", "decode response", err)
	}
	players := make([]Player, 0, len(entries))
	for i, entry := range entries {
		var p Player
		if err := json.Unmarshal(entry, &p); err != nil {
			logging.WarnWithContext(c.logger, "skipping undecodable player", "player_decode_failed",
				logging.Int("index", i),
				logging.Error(err),
				logging.Hint("inspect the record with fetch-player or the directory console"),
			)
			continue
		}
		players = append(players, p)
	}
	return players, nil
}

// GetPlayer fetches one player's full record.
func (c *Client) GetPlayer(ctx context.Context, id int64) (*Player, error) {
	var player Player
	if err := c.call(ctx, c.cfg.RequestTimeout, http.MethodGet, playerPath(id), nil, "", &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// PatchCity replaces coordinates.city on the player.
func (c *Client) PatchCity(ctx context.Context, id int64, city string) error {
	body := []map[string]string{{"op": "replace", "path": "/coordinates/city", "value": city}}
	return c.call(ctx, c.cfg.RequestTimeout, http.MethodPatch, playerPath(id), body, jsonPatchContentType, nil)
}

// SetVariables upserts vars on the player in one call.
func (c *Client) SetVariables(ctx context.Context, id int64, vars []Variable) error {
	if len(vars) == 0 {
		return nil
	}
	return c.call(ctx, c.cfg.RequestTimeout, http.MethodPost, playerPath(id)+"/variables", vars, jsonPatchContentType, nil)
}

// RawResponse is an undecoded directory reply.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FetchRaw returns the player endpoint's reply as-is, whatever its status.
func (c *Client) FetchRaw(ctx context.Context, id int64) (*RawResponse, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	status, header, body, err := c.send(reqCtx, http.MethodGet, playerPath(id), nil, "", token)
	if err != nil {
		return nil, err
	}
	return &RawResponse{StatusCode: status, Header: header, Body: body}, nil
}

// call performs an authenticated request under the configured token policy
// and decodes a successful reply into out.
func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, body any, contentType string, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	status, reply, err := c.attempt(ctx, timeout, method, path, body, contentType, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && c.cfg.TokenPolicy == config.TokenPolicyOnUnauthorized {
		c.logger.Debug("token rejected; refreshing", logging.String("path", path))
		c.invalidate()
		if token, err = c.bearer(ctx); err != nil {
			return err
		}
		if status, reply, err = c.attempt(ctx, timeout, method, path, body, contentType, token); err != nil {
			return err
		}
	}
	if status >= 400 {
		return &APIError{Method: method, Path: path, StatusCode: status, Body: truncate(reply)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return services.Wrap(services.ErrExternal, "m4d", method+" "+path, "decode response", err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, timeout time.Duration, method, path string, body any, contentType, token string) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	status, _, data, err := c.send(reqCtx, method, path, body, contentType, token)
	return status, data, err
}

// bearer returns the token for the next call: always fresh under
// per_request, cached under on_unauthorized.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.cfg.TokenPolicy != config.TokenPolicyOnUnauthorized {
		return c.Token(ctx)
	}
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) send(ctx context.Context, method, path string, body any, contentType, token string) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", jsonContentType)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, nil, services.Wrap(services.ErrExternal, "m4d", method+" "+path, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, services.Wrap(services.ErrExternal, "m4d", method+" "+path, "read response", err)
	}
	c.logger.Debug("directory call",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Any("latency", latency),
	)
	return resp.StatusCode, resp.Header, data, nil
}

func playerPath(id int64) string {
	return fmt.Sprintf("/v1/players/%d", id)
}

func truncate(body []byte) string {
	if len(body) > errorBodyLimit {
		body = body[:errorBodyLimit]
	}
	return strings.TrimSpace(string(body))
}
