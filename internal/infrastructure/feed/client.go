package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quickcart/backend/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	queryPlaceholder = "{query}"
	maxAttempts      = 3
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client fetches a platform's JSON product feed for a search query
type Client struct {
	httpClient  *http.Client
	platform    domain.PlatformID
	searchURL   string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a feed client for platform. searchURL must contain the
// {query} placeholder; requestsPerMinute <= 0 disables rate limiting.
func NewClient(platform domain.PlatformID, searchURL string, requestsPerMinute int) *Client {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60)
		burst = max(1, requestsPerMinute/10)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		platform:    platform,
		searchURL:   searchURL,
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Platform returns the platform this client serves
func (c *Client) Platform() domain.PlatformID {
	return c.platform
}

// exponentialBackoff returns the wait before retrying after attempt (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func (c *Client) buildURL(query string) string {
	return strings.ReplaceAll(c.searchURL, queryPlaceholder, url.QueryEscape(query))
}

// Search fetches the feed for query. Transient failures are retried up to
// three times; a 404 means the platform has nothing for the query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.ScrapedProduct, error) {
	reqURL := c.buildURL(query)
	logger := log.With().Str("platform", string(c.platform)).Str("query", query).Logger()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrScraperFailure, ctx.Err())
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			logger.Debug().Err(err).Int("attempt", attempt).Msg("feed request failed")
			lastErr = err
			continue
		}

		if c.debug {
			logger.Debug().Int("status", status).Int("bytes", len(body)).Msg("feed response")
		}

		if status == http.StatusNotFound {
			return []domain.ScrapedProduct{}, nil
		}
		if status != http.StatusOK {
			logger.Debug().Int("status", status).Int("attempt", attempt).Msg("feed returned error status")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrScraperFailure, status)
			continue
		}

		var resp feedResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decoding feed: %v", domain.ErrScraperFailure, err)
		}

		products := MapToProducts(&resp, c.platform)
		logger.Debug().Int("count", len(products)).Msg("feed products")
		return products, nil
	}

	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrScraperFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading body: %v", domain.ErrScraperFailure, err)
	}
	return body, resp.StatusCode, nil
}
