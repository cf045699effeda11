package botplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/huehunt/internal/domain/types"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the game API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Healthy reports whether the server answers /healthz.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// NewGame starts a game for player.
func (c *Client) NewGame(ctx context.Context, player, tier string) (types.Game, error) {
	var g types.Game
	err := c.do(ctx, http.MethodPost, "/api/games", map[string]string{"player": player, "tier": tier}, &g)
	return g, err
}

// Game reads a game.
func (c *Client) Game(ctx context.Context, id string) (types.Game, error) {
	var g types.Game
	err := c.do(ctx, http.MethodGet, "/api/games/"+url.PathEscape(id), nil, &g)
	return g, err
}

// Click submits a pick.
func (c *Client) Click(ctx context.Context, id string, index int) (types.ClickResult, error) {
	var res types.ClickResult
	err := c.do(ctx, http.MethodPost, "/api/games/"+url.PathEscape(id)+"/clicks", map[string]int{"index": index}, &res)
	return res, err
}

// Rank fetches a player's leaderboard entry.
func (c *Client) Rank(ctx context.Context, player string) (types.Entry, error) {
	var e types.Entry
	err := c.do(ctx, http.MethodGet, "/api/rank/"+url.PathEscape(player), nil, &e)
	return e, err
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.do(ctx, http.MethodGet, "/api/leaderboard?limit="+strconv.Itoa(n), nil, &entries)
	return entries, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	return json.Unmarshal(data, out)
}
