// Package mediawiki implements a polite client for MediaWiki-compatible
// HTTP APIs: global rate limiting, retry with exponential backoff, and
// paginated category/page fetching.
package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"wikiseed/internal/logger"
)

// Status codes used for retry classification.
const (
	statusOK           = 200
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// maxResponseBodyBytes limits the size of API responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// ClientConfig configures the rate-limited API client.
type ClientConfig struct {
	// BaseURL is the api.php endpoint.
	BaseURL string
	// UserAgent identifies the bot to the remote site.
	UserAgent string
	// RateEvery is the minimum interval between outbound calls.
	RateEvery time.Duration
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// MaxAttempts is the total number of tries per call (including the first).
	MaxAttempts int
	// RetryInitialWait is the backoff before the first retry.
	RetryInitialWait time.Duration
	// RetryMaxWait caps the exponential backoff.
	RetryMaxWait time.Duration
}

// SetDefaults fills zero-valued fields with production-safe defaults.
func (c *ClientConfig) SetDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "wikiseed/1.0 (respectful bot; contact: local-user)"
	}
	if c.RateEvery <= 0 {
		c.RateEvery = time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.RetryInitialWait <= 0 {
		c.RetryInitialWait = time.Second
	}
	if c.RetryMaxWait <= 0 {
		c.RetryMaxWait = 30 * time.Second
	}
}

// Client issues API calls honoring a shared minimum inter-request
// interval. The limiter is the single serialization point: the client
// is safe for concurrent use and callers may pipeline requests freely.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         logger.Interface
	baseURL     string
	userAgent   string
	maxAttempts int
	initialWait time.Duration
	maxWait     time.Duration
}

// NewClient creates a rate-limited client. The limiter is owned by the
// returned client but configured here so tests can make it permissive.
func NewClient(cfg ClientConfig, log logger.Interface) *Client {
	cfg.SetDefaults()

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter:     rate.NewLimiter(rate.Every(cfg.RateEvery), 1),
		log:         log,
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
		initialWait: cfg.RetryInitialWait,
		maxWait:     cfg.RetryMaxWait,
	}
}

// Get performs an action=query call with the given parameters, waiting
// on the shared limiter and retrying transient failures with backoff.
func (c *Client) Get(ctx context.Context, params url.Values) (*queryResponse, error) {
	wait := c.initialWait

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.doRequest(ctx, params)
		if err == nil {
			return resp, nil
		}

		if IsFatal(err) {
			return nil, err
		}

		lastErr = err

		if attempt < c.maxAttempts {
			c.log.Warn("retrying API call",
				"attempt", attempt,
				"backoff", wait.String(),
				"error", err.Error(),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}

			wait *= 2
			if wait > c.maxWait {
				wait = c.maxWait
			}
		}
	}

	return nil, &TransientError{Err: fmt.Errorf("exhausted %d attempts: %w", c.maxAttempts, lastErr)}
}

// doRequest performs a single HTTP round trip and classifies failures.
func (c *Client) doRequest(ctx context.Context, params url.Values) (*queryResponse, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("format", "json")

	reqURL := c.baseURL + "?" + merged.Encode()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, &TransientError{Err: doErr}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: readErr}
	}

	switch {
	case resp.StatusCode == statusOK:
		// fall through to decode
	case resp.StatusCode == statusTooManyReqs || resp.StatusCode >= statusServerErrLow:
		return nil, &TransientError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d", resp.StatusCode),
		}
	default:
		return nil, &FatalError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http status %d", resp.StatusCode),
		}
	}

	var decoded queryResponse
	if unmarshalErr := json.Unmarshal(body, &decoded); unmarshalErr != nil {
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", unmarshalErr)}
	}

	if decoded.Error != nil {
		return nil, &FatalError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api error %s: %s", decoded.Error.Code, decoded.Error.Info),
		}
	}

	return &decoded, nil
}
