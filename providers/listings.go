// Package providers holds the adapters for external collaborators: the listing
// search and review provider and the language-model text analysis service.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travel-scout/config"
	"travel-scout/models"
	"travel-scout/utils"
)

// ErrUpstream marks a failed call to an external provider
var ErrUpstream = errors.New("upstream request failed")

// ListingsClient talks to the listing search and review provider over HTTP
type ListingsClient struct {
	baseURL    string
	http       *http.Client
	limiter    *utils.RateLimiter
	maxRetries int
	retryDelay time.Duration
	logger     *utils.Logger
}

// NewListingsClient creates a ListingsClient
func NewListingsClient(cfg config.ListingsConfig, logger *utils.Logger) *ListingsClient {
	return &ListingsClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    utils.NewRateLimiter(cfg.RateLimitDelay),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBaseDelay,
		logger:     logger,
	}
}

// Search returns every listing inside the query's bounding box
func (c *ListingsClient) Search(ctx context.Context, q models.SearchQuery) ([]models.RawListing, error) {
	params := url.Values{}
	params.Set("check_in", q.CheckIn)
	params.Set("check_out", q.CheckOut)
	params.Set("ne_lat", formatCoord(q.Box.NELat))
	params.Set("ne_long", formatCoord(q.Box.NELong))
	params.Set("sw_lat", formatCoord(q.Box.SWLat))
	params.Set("sw_long", formatCoord(q.Box.SWLong))
	params.Set("zoom", strconv.Itoa(q.Zoom))
	params.Set("currency", q.Currency)

	var listings []models.RawListing
	if err := c.getJSON(ctx, "/search", params, &listings); err != nil {
		return nil, fmt.Errorf("listing search failed: %w", err)
	}
	c.logger.Info("Found %d listings in the area", len(listings))
	return listings, nil
}

// Reviews returns the reviews of one listing
func (c *ListingsClient) Reviews(ctx context.Context, roomURL string) ([]models.ReviewComment, error) {
	params := url.Values{}
	params.Set("room_url", roomURL)

	var reviews []models.ReviewComment
	if err := c.getJSON(ctx, "/reviews", params, &reviews); err != nil {
		return nil, fmt.Errorf("review fetch failed: %w", err)
	}
	c.logger.Debug("Retrieved %d reviews for %s", len(reviews), roomURL)
	return reviews, nil
}

// getJSON performs a rate-limited GET with retry. 4xx answers are not retried.
func (c *ListingsClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	return utils.RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return utils.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
		case resp.StatusCode >= 400:
			return utils.Permanent(fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return utils.Permanent(fmt.Errorf("%w: invalid response body: %v", ErrUpstream, err))
		}
		return nil
	}, c.logger)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
