// Package endpoint is the HTTP client for the spreadsheet-backed web app
// that stores availability submissions and lab logs.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	// DefaultRequestsPerMinute throttles refreshes.
	DefaultRequestsPerMinute = 30

	identityTTL     = 10 * time.Minute
	cleanupInterval = 20 * time.Minute
	maxBodyBytes    = 4 << 20
)

// ErrNoEndpoint is returned when no URL is configured.
var ErrNoEndpoint = errors.New("endpoint URL is not configured")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "HTTP error! status: " + strconv.Itoa(e.Code)
}

// RemoteError is a well-formed response reporting failure.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Client talks to one web app deployment.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRequestsPerMinute throttles outgoing requests. Zero or less disables
// throttling.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) { c.limiter = newLimiter(n) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for rawURL.
func New(rawURL string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint URL must be http or https: %q", rawURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    newLimiter(DefaultRequestsPerMinute),
		cache:      cache.New(identityTTL, cleanupInterval),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.baseURL.String()
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := max(1, perMinute/6)
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func (c *Client) actionURL(action string) string {
	u := *c.baseURL
	if action != "" {
		q := u.Query()
		q.Set("action", action)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends a request and returns the response. The caller closes the body.
func (c *Client) do(ctx context.Context, method, target string, payload any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("endpoint request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, fmt.Errorf("making request: %w", err)
	}
	c.logger.Debug("endpoint request",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, action string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, c.actionURL(action), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

// postJSON performs a POST and decodes a 2xx JSON body into out.
func (c *Client) postJSON(ctx context.Context, payload, out any) error {
	resp, err := c.do(ctx, http.MethodPost, c.actionURL(""), payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
