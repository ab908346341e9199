// Package backmarket looks up marketplace orders with a business's own API
// credentials.
package backmarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/returns-desk/internal/config"
)

// ErrOrderNotFound is a 404 from the marketplace.
var ErrOrderNotFound = errors.New("backmarket: order not found")

type Client struct {
	cfg  config.BackMarketConfig
	http *http.Client
}

func NewClient(cfg config.BackMarketConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// errRetryable marks a failure worth one more attempt.
var errRetryable = errors.New("backmarket: transient failure")

// GetOrder fetches one order and returns the marketplace's JSON unchanged.
// Transport errors and 5xx responses are retried once.
func (c *Client) GetOrder(ctx context.Context, apiKey, apiSecret, orderID string) (json.RawMessage, error) {
	out, err := c.getOrder(ctx, apiKey, apiSecret, orderID)
	if errors.Is(err, errRetryable) {
		out, err = c.getOrder(ctx, apiKey, apiSecret, orderID)
	}
	return out, err
}

func (c *Client) getOrder(ctx context.Context, apiKey, apiSecret, orderID string) (json.RawMessage, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("backmarket: BACKMARKET_BASE_URL: %w", config.ErrNotConfigured)
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/ws/orders/" + url.PathEscape(orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(apiKey, apiSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-gb")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backmarket get order: %v: %w", err, errRetryable)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("backmarket get order: read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrOrderNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("backmarket get order: status %d: %w", resp.StatusCode, errRetryable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("backmarket get order: status %d", resp.StatusCode)
	}
	if !json.Valid(raw) {
		return nil, errors.New("backmarket get order: response is not JSON")
	}
	return json.RawMessage(raw), nil
}
