package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/talentbridge/crmsync/core/errs"
)

// Record is one raw CRM record: API field names mapped to decoded JSON
// values. Unknown fields pass through untouched for the transform step.
type Record map[string]any

// Page is one page of records plus the continuation signal.
type Page struct {
	Records []Record
	// More reports whether the CRM holds further pages after this one.
	More bool
}

// listResponse is the CRM's paginated list envelope.
type listResponse struct {
	Data []Record `json:"data"`
	Info struct {
		MoreRecords bool `json:"more_records"`
		Page        int  `json:"page"`
		PerPage     int  `json:"per_page"`
		Count       int  `json:"count"`
	} `json:"info"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize sets the per_page parameter sent on list calls.
func WithPageSize(n int) ClientOption {
	return func(c *Client) { c.pageSize = n }
}

// WithMaxAttempts bounds the total tries per page fetch, backoff included.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) { c.maxAttempts = n }
}

// WithRetryInterval sets the initial backoff interval. Tests shrink this.
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.retryInterval = d }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client wraps authenticated HTTP calls to the CRM's list endpoints. Transient
// failures (429 and 5xx) are retried with bounded exponential backoff; an
// auth-rejected response forces one token refresh and a single retry.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	tokens        *TokenSource
	pageSize      int
	maxAttempts   int
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewClient creates a CRM API client.
func NewClient(baseURL string, tokens *TokenSource, options ...ClientOption) *Client {
	client := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       baseURL,
		tokens:        tokens,
		pageSize:      200,
		maxAttempts:   4,
		retryInterval: 500 * time.Millisecond,
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// FetchPage fetches one page of the given module, requesting the listed
// fields. Pages are numbered from 1. A 204 response means the module holds no
// records and yields an empty terminal page.
func (c *Client) FetchPage(ctx context.Context, module string, fields []string, page int) (*Page, error) {
	refreshed := false

	operation := func() (*Page, error) {
		result, err := c.fetchOnce(ctx, module, fields, page)
		if err == nil {
			return result, nil
		}

		var apiErr *errs.APIError
		if !errors.As(err, &apiErr) {
			// Token refresh failures and transport errors are not worth
			// hammering the endpoint over.
			return nil, backoff.Permanent(err)
		}

		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			if refreshed {
				return nil, backoff.Permanent(err)
			}
			refreshed = true
			c.tokens.Invalidate()
			c.logger.Warn("auth rejected, refreshing token", "module", module, "page", page)
			return c.retryAfterRefresh(ctx, module, fields, page)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn("rate limited", "module", module, "page", page)
			if after := apiErr.RetryAfter; after > 0 {
				return nil, backoff.RetryAfter(int(after.Seconds()))
			}
			return nil, err
		case apiErr.StatusCode >= 500:
			c.logger.Warn("server error, will retry", "module", module, "page", page, "status", apiErr.StatusCode)
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxAttempts)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page %d: %w", module, page, err)
	}
	return result, nil
}

// retryAfterRefresh performs the single post-refresh retry without consuming
// a backoff wait. A second auth rejection is final.
func (c *Client) retryAfterRefresh(ctx context.Context, module string, fields []string, page int) (*Page, error) {
	result, err := c.fetchOnce(ctx, module, fields, page)
	if err == nil {
		return result, nil
	}
	var apiErr *errs.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return nil, backoff.Permanent(err)
	}
	return nil, err
}

func (c *Client) fetchOnce(ctx context.Context, module string, fields []string, page int) (*Page, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+module, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	query := req.URL.Query()
	query.Set("fields", strings.Join(fields, ","))
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(c.pageSize))
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &Page{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &errs.APIError{StatusCode: resp.StatusCode, Body: string(body)}
		if after := resp.Header.Get("Retry-After"); after != "" {
			if seconds, convErr := strconv.Atoi(after); convErr == nil {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, apiErr
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse list response: %w", err)
	}
	return &Page{Records: list.Data, More: list.Info.MoreRecords}, nil
}

// Get performs an authenticated GET against an arbitrary API path, used for
// sub-resources like attachments. The caller owns the response body.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	return c.httpClient.Do(req)
}

func (c *Client) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	return bo
}
