// Package facilities reads the public facilities catalog.
package facilities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/services"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much of the upstream response is read
const maxBodyBytes = 4 << 20

// Facility is one catalog entry. Entries are passed through verbatim.
type Facility = json.RawMessage

// Client fetches the facilities catalog from an upstream JSON endpoint
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new facilities client
func NewClient(cfg config.FacilitiesConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// List returns the catalog entries as served upstream
func (c *Client) List(ctx context.Context) ([]Facility, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, services.ErrUpstreamError.Wrap(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("facilities request failed", zap.String("url", c.url), zap.Error(err))
		return nil, services.ErrUpstreamError.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("facilities upstream returned non-200",
			zap.String("url", c.url),
			zap.Int("status", resp.StatusCode))
		return nil, services.ErrUpstreamError.Wrap(fmt.Errorf("status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	var items []Facility
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&items); err != nil {
		return nil, services.ErrUpstreamError.Wrap(fmt.Errorf("decode facilities: %w", err))
	}
	if items == nil {
		items = []Facility{}
	}
	return items, nil
}
