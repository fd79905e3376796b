package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Marketplace = (*Client)(nil)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Client is the marketplace API client.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *RateLimiter
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a marketplace client.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		rateLimiter: NewRateLimiter(RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			BurstSize:         cfg.Burst,
		}),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// SearchItems lists one page of a seller's catalog item ids.
func (c *Client) SearchItems(
	ctx context.Context, accessToken, sellerID string, offset, limit int,
) (*domain.CatalogPage, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var resp itemSearchResponse
	path := "/users/" + url.PathEscape(sellerID) + "/items/search"
	if err := c.get(ctx, accessToken, path, q, &resp); err != nil {
		return nil, err
	}

	return &domain.CatalogPage{
		ItemIDs: resp.Results,
		Total:   resp.Paging.Total,
		Offset:  resp.Paging.Offset,
		Limit:   resp.Paging.Limit,
	}, nil
}

// GetItems fetches full item detail, MultiGetLimit ids per request.
// Entries the API reports with a non-200 code are logged and left out.
func (c *Client) GetItems(ctx context.Context, accessToken string, ids []string) ([]domain.CatalogItem, error) {
	items := make([]domain.CatalogItem, 0, len(ids))

	for start := 0; start < len(ids); start += MultiGetLimit {
		end := min(start+MultiGetLimit, len(ids))

		q := url.Values{}
		q.Set("ids", strings.Join(ids[start:end], ","))
		// Variation attributes are omitted unless requested.
		q.Set("include_attributes", "all")

		var envelopes []itemEnvelope
		if err := c.get(ctx, accessToken, "/items", q, &envelopes); err != nil {
			return nil, err
		}

		for _, env := range envelopes {
			if env.Code != http.StatusOK {
				logger.Warn("marketplace: item multi-get entry returned %d: %s", env.Code, string(env.Body))
				continue
			}
			var dto itemDTO
			if err := json.Unmarshal(env.Body, &dto); err != nil {
				return nil, fmt.Errorf("decode item: %w", err)
			}
			items = append(items, dto.toDomain())
		}
	}

	return items, nil
}

// SearchOrders lists one page of a seller's orders created at or after
// query.CreatedFrom, oldest first.
func (c *Client) SearchOrders(ctx context.Context, accessToken string, query domain.OrderQuery) (*domain.OrderPage, error) {
	q := url.Values{}
	q.Set("seller", query.SellerID)
	q.Set("order.date_created.from", query.CreatedFrom.Format(orderDateLayout))
	q.Set("sort", "date_asc")
	q.Set("offset", strconv.Itoa(query.Offset))
	q.Set("limit", strconv.Itoa(query.Limit))

	var resp orderSearchResponse
	if err := c.get(ctx, accessToken, "/orders/search", q, &resp); err != nil {
		return nil, err
	}

	page := &domain.OrderPage{
		Orders: make([]domain.MarketOrder, 0, len(resp.Results)),
		Total:  resp.Paging.Total,
		Offset: resp.Paging.Offset,
		Limit:  resp.Paging.Limit,
	}
	for _, raw := range resp.Results {
		mo, err := decodeOrder(raw)
		if err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		page.Orders = append(page.Orders, mo)
	}
	return page, nil
}

// get performs a GET with rate limiting and retries, decoding the JSON
// body into out.
func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, accessToken, endpoint, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetryable(err) || attempt >= c.maxRetries {
			return err
		}

		delay := c.retryDelay << attempt
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > delay {
			delay = rlErr.RetryAfter
		}
		logger.Debug("marketplace: retrying %s in %s (attempt %d): %v", path, delay, attempt+1, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, accessToken, endpoint string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "GET " + redact(endpoint), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.rateLimiter.RecordRateLimitError(retryAfter)
		return &RateLimitError{RetryAfter: retryAfter, URL: redact(endpoint)}
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			URL:        redact(endpoint),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", redact(endpoint), err)
	}
	return nil
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// redact drops the query string from an endpoint.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
