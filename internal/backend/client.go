// Package backend provides the typed REST client for the authoritative
// project backend that computes and stores duplicate groups.
//
// The client deliberately performs no automatic retry or backoff: a failed
// request surfaces its error to the caller, who retries by re-invoking the
// operation. Rate limiting and per-request timeouts still apply.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kiorlabs/duplicate-review-service/internal/domain"
	"github.com/kiorlabs/duplicate-review-service/internal/observability"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default maximum requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultUserAgent identifies this service to the backend.
	DefaultUserAgent = "Kior-DuplicateReviewService/1.0"

	// maxResponseBody caps decoded response bodies.
	maxResponseBody = 10 << 20

	// maxErrorBody caps error bodies read for diagnostics.
	maxErrorBody = 1 << 20

	// source labels this client in error values and logs.
	source = "ProjectBackend"
)

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend base URL, e.g. https://backend.example.com.
	BaseURL string

	// Token is the bearer credential forwarded on every request.
	Token string

	// Timeout is the per-request timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to 10.
	RateLimit float64

	// BurstSize is the maximum burst of requests. Defaults to 10.
	BurstSize int

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Client is the REST client for the project backend.
// It is safe for concurrent use.
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *RateLimiter
	metrics     *observability.Metrics // nil = metrics recording disabled
	logger      zerolog.Logger
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithMetrics attaches Prometheus metrics to the client.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a new backend client with the given configuration.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	cfg.applyDefaults()

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		logger:      logger.With().Str("component", "backend-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// groupsResponse is the GET /api/duplicates/projects/{id} response body.
type groupsResponse struct {
	Results []domain.DuplicateGroup `json:"results"`
}

// detectResponse is the POST .../detect response body.
type detectResponse struct {
	Duplicates []domain.DuplicateGroup `json:"duplicates"`
	Summary    domain.DetectionSummary `json:"summary"`
}

// resolveRequest is the POST .../resolve request body.
type resolveRequest struct {
	ArticleIDs []string          `json:"articleIds"`
	Resolution domain.Resolution `json:"resolution"`
}

// resolveAllResponse is the POST .../resolve-all response body.
type resolveAllResponse struct {
	Data struct {
		Summary struct {
			DuplicateGroupsFound int `json:"duplicateGroupsFound"`
		} `json:"summary"`
		Statistics domain.ResolveAllStatistics `json:"statistics"`
	} `json:"data"`
}

// summaryResponse is the GET .../resolution-summary response body. The
// summary payload is backend-defined and passed through opaquely.
type summaryResponse struct {
	Data json.RawMessage `json:"data"`
}

// errorResponse is the error body shape the backend uses on non-2xx
// responses. Either field may be set.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchGroups returns the current duplicate groups for a project.
func (c *Client) FetchGroups(ctx context.Context, projectID string) ([]domain.DuplicateGroup, error) {
	var out groupsResponse
	path := fmt.Sprintf("/api/duplicates/projects/%s", projectID)
	if err := c.do(ctx, "fetch_groups", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Detect runs duplicate detection for a project and returns the detected
// groups plus the backend's summary.
func (c *Client) Detect(ctx context.Context, projectID string) ([]domain.DuplicateGroup, domain.DetectionSummary, error) {
	var out detectResponse
	path := fmt.Sprintf("/api/duplicates/projects/%s/detect", projectID)
	if err := c.do(ctx, "detect", http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, domain.DetectionSummary{}, err
	}
	return out.Duplicates, out.Summary, nil
}

// Resolve submits a single-pair resolution decision.
func (c *Client) Resolve(ctx context.Context, projectID string, articleIDs []string, resolution domain.Resolution) error {
	path := fmt.Sprintf("/api/duplicates/projects/%s/resolve", projectID)
	body := resolveRequest{ArticleIDs: articleIDs, Resolution: resolution}
	return c.do(ctx, "resolve", http.MethodPost, path, body, nil)
}

// ResolveAll asks the backend to auto-resolve every detected group and
// returns the authoritative statistics of the run.
func (c *Client) ResolveAll(ctx context.Context, projectID string) (domain.ResolveAllResult, error) {
	var out resolveAllResponse
	path := fmt.Sprintf("/api/duplicates/projects/%s/resolve-all", projectID)
	if err := c.do(ctx, "resolve_all", http.MethodPost, path, struct{}{}, &out); err != nil {
		return domain.ResolveAllResult{}, err
	}
	return domain.ResolveAllResult{
		DuplicateGroupsFound: out.Data.Summary.DuplicateGroupsFound,
		Statistics:           out.Data.Statistics,
	}, nil
}

// ResolutionSummary returns the backend's resolution summary payload. The
// shape is backend-defined, so it is passed through as raw JSON.
func (c *Client) ResolutionSummary(ctx context.Context, projectID string) (json.RawMessage, error) {
	var out summaryResponse
	path := fmt.Sprintf("/api/duplicates/projects/%s/resolution-summary", projectID)
	if err := c.do(ctx, "resolution_summary", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// do executes one request against the backend: rate limit, auth headers,
// status handling, JSON decode, metrics. The op label names the operation
// in metrics series. A nil out skips body decoding.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordRequest(op, false, time.Since(start))
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%s request failed: %w", source, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	success := resp.StatusCode >= 200 && resp.StatusCode <= 299
	c.recordRequest(op, success, duration)

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("backend request completed")

	if !success {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// recordRequest reports one backend request outcome to the metrics, if any.
func (c *Client) recordRequest(op string, success bool, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(op, success, duration.Seconds())
	}
}

// decodeError converts a non-2xx response into a typed domain error,
// extracting the backend's {error} or {message} text when present.
func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := http.StatusText(resp.StatusCode)
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			msg = body.Error
		} else if body.Message != "" {
			msg = body.Message
		}
	}

	var cause error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		cause = domain.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		cause = domain.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		cause = domain.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewRateLimitError(source, retryAfter(resp))
	case resp.StatusCode >= 500:
		cause = domain.ErrServiceUnavailable
	default:
		cause = domain.ErrInvalidInput
	}

	return domain.NewExternalAPIError(source, resp.StatusCode, msg, cause)
}

// retryAfter parses the Retry-After header, defaulting to one second.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
