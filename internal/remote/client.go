// Package remote talks to the HTTP opponent service: the play endpoint picks
// the opponent's hand and the ranking endpoint serves the shared leaderboard.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/statistics"
)

const maxBodySize = 1 << 20

// Client is a stateless client for the remote opponent service. Requests are
// never retried.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid remote url %q: scheme must be http or https", baseURL)
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithPrefix("remote").With("url", u.String()),
	}, nil
}

// Play submits the player's hand and returns the opponent's choice
func (c *Client) Play(ctx context.Context, player string, hand game.Hand) (game.Hand, error) {
	query := url.Values{}
	query.Set(PlayerNameParam, player)
	query.Set(PlayerHandParam, hand.String())

	var resp PlayResponse
	if err := c.get(ctx, "play", PlayPath, query, &resp); err != nil {
		return game.NoHand, err
	}

	choice, err := game.ParseHand(resp.Choice)
	if err != nil {
		return game.NoHand, &Error{Kind: Payload, Op: "play", Err: err}
	}

	c.logger.Debug("Remote opponent played", "player", player, "hand", hand, "choice", choice)
	return choice, nil
}

// Ranking fetches one snapshot of the service's player statistics
func (c *Client) Ranking(ctx context.Context) (statistics.Snapshot, error) {
	var resp RankingResponse
	if err := c.get(ctx, "ranking", RankingPath, nil, &resp); err != nil {
		return nil, err
	}

	snapshot := make(statistics.Snapshot, len(resp))
	for id, stat := range resp {
		if stat.Wins < 0 || stat.Losses < 0 {
			return nil, &Error{Kind: Payload, Op: "ranking", Err: fmt.Errorf("negative counters for %q", id)}
		}
		if stat.Player == "" {
			stat.Player = id
		}
		snapshot[id] = stat
	}
	return snapshot, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &Error{Kind: Transport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Remote request failed", "op", op, "error", err)
		return &Error{Kind: Transport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote request complete", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return &Error{Kind: Status, Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Kind: Transport, Op: op, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: Payload, Op: op, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return nil
}
