// Package clients provides the rate-limited request client
package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/errors"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

// maxErrorBody bounds how much of an error response body travels inside
// diagnostics.
const maxErrorBody = 512

// ClientConfig configures the request client for one source instance.
type ClientConfig struct {
	// Source names the connector for logging and metrics labels
	Source string `json:"source"`

	// BaseURL is the API root every relative path is resolved against
	BaseURL string `json:"base_url"`

	// MaxRetries bounds consecutive rate-limit retries per request
	MaxRetries int `json:"max_retries"`

	// DefaultRetryAfter applies when Retry-After is absent or unparseable
	DefaultRetryAfter time.Duration `json:"default_retry_after"`

	// RetryAfterFloor clamps the sleep so a lying header cannot make the
	// client hammer the source
	RetryAfterFloor time.Duration `json:"retry_after_floor"`

	// PreRequestDelay sleeps before every request; models sources with
	// very low absolute quotas rather than a token bucket
	PreRequestDelay time.Duration `json:"pre_request_delay"`

	// RateLimitStatuses lists statuses treated as rate-limit signals,
	// typically {429}, sometimes {429, 503}
	RateLimitStatuses []int `json:"rate_limit_statuses"`

	// RequestsPerSecond caps the sustained request rate (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Timeout bounds each individual HTTP request
	Timeout time.Duration `json:"timeout"`

	// UserAgent overrides the default request User-Agent
	UserAgent string `json:"user_agent"`
}

// DefaultClientConfig returns production defaults for a source API.
func DefaultClientConfig(source, baseURL string) *ClientConfig {
	return &ClientConfig{
		Source:            source,
		BaseURL:           strings.TrimRight(baseURL, "/"),
		MaxRetries:        5,
		DefaultRetryAfter: 5 * time.Second,
		RetryAfterFloor:   time.Second,
		RateLimitStatuses: []int{http.StatusTooManyRequests},
		Timeout:           30 * time.Second,
		UserAgent:         "ticketferry/1.0",
	}
}

// ApplyRequest overlays job-level request settings onto the per-source
// defaults. Zero values keep the defaults.
func (c *ClientConfig) ApplyRequest(rc config.RequestConfig) {
	if rc.MaxRetries > 0 {
		c.MaxRetries = rc.MaxRetries
	}
	if rc.DefaultRetryAfter > 0 {
		c.DefaultRetryAfter = rc.DefaultRetryAfter
	}
	if rc.RetryAfterFloor > 0 {
		c.RetryAfterFloor = rc.RetryAfterFloor
	}
	if rc.PreRequestDelay > 0 {
		c.PreRequestDelay = rc.PreRequestDelay
	}
	if rc.RequestsPerSecond > 0 {
		c.RequestsPerSecond = rc.RequestsPerSecond
	}
	if rc.Timeout > 0 {
		c.Timeout = rc.Timeout
	}
}

// Response carries both the decoded-ready body and the response headers, so
// endpoints that return a created resource's identity only via Location
// work through the same path as everything else.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if err := gojson.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to decode API response")
	}
	return nil
}

// Location returns the Location header, or "" when absent.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// Client wraps raw HTTP with auth attachment, a sustained-rate budget,
// bounded retries on rate-limit signals, and an optional fixed pre-request
// delay. All blocking waits honor context cancellation.
type Client struct {
	config          *ClientConfig
	auth            Authenticator
	logger          *zap.Logger
	httpClient      *http.Client
	limiter         *rate.Limiter
	rateLimitStatus map[int]bool
}

// NewClient creates a request client for one source instance.
func NewClient(config *ClientConfig, auth Authenticator, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warn("failed to configure HTTP/2", zap.Error(err))
	}

	statuses := make(map[int]bool, len(config.RateLimitStatuses))
	for _, s := range config.RateLimitStatuses {
		statuses[s] = true
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config: config,
		auth:   auth,
		logger: logger.With(zap.String("component", "request_client"), zap.String("source", config.Source)),
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		limiter:         limiter,
		rateLimitStatus: statuses,
	}
}

// Get issues a GET request against a relative path.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// GetJSON issues a GET request and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v interface{}) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Do issues one logical request, retrying only on rate-limit signals.
// Exceeding the retry budget raises a rate_limit error; any other non-2xx
// raises an api/auth error immediately and classification beyond that is
// the caller's responsibility.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	fullURL, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	var encoded []byte
	if body != nil {
		encoded, err = gojson.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode request body")
		}
	}

	for attempt := 0; ; attempt++ {
		if c.config.PreRequestDelay > 0 {
			if err := sleepCtx(ctx, c.config.PreRequestDelay); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "rate budget wait canceled")
			}
		}

		resp, err := c.doOnce(ctx, method, fullURL, encoded)
		if err != nil {
			return nil, err
		}

		if !c.rateLimitStatus[resp.StatusCode] {
			return c.finish(method, path, resp)
		}

		if attempt >= c.config.MaxRetries {
			metrics.APIRequests.WithLabelValues(c.config.Source, strconv.Itoa(resp.StatusCode)).Inc()
			return nil, errors.Newf(errors.ErrorTypeRateLimit,
				"rate limit retries exhausted after %d attempts for %s %s", attempt+1, method, path)
		}

		wait := c.retryAfter(resp.Header)
		metrics.RateLimitRetries.WithLabelValues(c.config.Source).Inc()
		c.logger.Warn("rate limited, backing off",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.config.MaxRetries))

		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// doOnce performs a single HTTP round trip and drains the body.
func (c *Client) doOnce(ctx context.Context, method, fullURL string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create HTTP request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.auth.Apply(ctx, req); err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "HTTP request failed")
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       payload,
	}, nil
}

// finish runs session sniffing / MFA detection and classifies non-2xx
// statuses. Only terminal (non-rate-limit) responses come through here.
func (c *Client) finish(method, path string, resp *Response) (*Response, error) {
	metrics.APIRequests.WithLabelValues(c.config.Source, strconv.Itoa(resp.StatusCode)).Inc()

	if err := c.auth.HandleResponse(resp.StatusCode, resp.Body); err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	snippet := string(resp.Body)
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody]
	}

	errType := errors.ErrorTypeAPI
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		errType = errors.ErrorTypeAuthentication
	case http.StatusForbidden:
		errType = errors.ErrorTypePermission
	case http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
	}

	return nil, errors.Newf(errType, "%s %s returned status %d", method, path, resp.StatusCode).
		WithDetail("status", resp.StatusCode).
		WithDetail("path", path).
		WithDetail("body", snippet)
}

// retryAfter parses the Retry-After header as seconds, falling back to the
// configured default and clamping to the floor.
func (c *Client) retryAfter(header http.Header) time.Duration {
	wait := c.config.DefaultRetryAfter
	if raw := header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && secs >= 0 {
			wait = time.Duration(secs) * time.Second
		}
	}
	if wait < c.config.RetryAfterFloor {
		wait = c.config.RetryAfterFloor
	}
	return wait
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		// Absolute URLs come from source-provided next-page links.
		if len(query) == 0 {
			return path, nil
		}
		u, err := url.Parse(path)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid request URL")
		}
		q := u.Query()
		for key, vals := range query {
			for _, v := range vals {
				q.Set(key, v)
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	full := c.config.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full, nil
}

// sleepCtx sleeps for d or returns early when ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "wait canceled")
	}
}
