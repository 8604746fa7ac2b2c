package backend

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

const (
	configurationsPath = "/api/v1/configurations"
	statusesPath       = "/api/v1/statuses"

	// maxErrorBody caps how much of a failed response ends up in errors.
	maxErrorBody = 512
)

// Options configures the HTTP backend client.
type Options struct {
	BaseURL           string        // ex: "https://status.example.com"
	Timeout           time.Duration // per request timeout
	RequestsPerSecond float64       // outgoing pacing, <= 0 disables it
	Burst             int           // pacing burst
	HTTPClient        *http.Client  // optional, overrides Timeout
}

// StatusError is returned when the backend answers with a non-2xx code.
type StatusError struct {
	Endpoint string
	URL      string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: %s returned %d: %s", e.Endpoint, e.URL, e.Code, e.Body)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type singleResponse[T any] struct {
	Record T `json:"record"`
}

type multiResponse[T any] struct {
	Records []T `json:"records"`
}

// Client talks to the status backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewClient validates opts and builds a client.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend base URL scheme %q", base.Scheme)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL: base.String(),
		http:    httpClient,
		limiter: limiter,
		logger:  log,
	}, nil
}

// Configuration fetches one configuration.
func (c *Client) Configuration(ctx context.Context, key domain.ServiceKey) (domain.ServiceConfiguration, error) {
	var resp singleResponse[domain.ServiceConfiguration]
	if err := c.get(ctx, "configuration", servicePath(configurationsPath, key), nil, &resp); err != nil {
		return domain.ServiceConfiguration{}, err
	}
	return resp.Record, nil
}

// Configurations lists configurations, hidden ones only when asked.
func (c *Client) Configurations(ctx context.Context, includeHidden bool) ([]domain.ServiceConfiguration, error) {
	query := url.Values{"include-hidden": []string{strconv.FormatBool(includeHidden)}}
	var resp multiResponse[domain.ServiceConfiguration]
	if err := c.get(ctx, "configurations", configurationsPath, query, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// Dependencies lists the services key depends on.
func (c *Client) Dependencies(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error) {
	var resp multiResponse[domain.ServiceReference]
	if err := c.get(ctx, "dependencies", servicePath(configurationsPath, key)+"/dependencies", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// Dependents lists the services depending on key.
func (c *Client) Dependents(ctx context.Context, key domain.ServiceKey) ([]domain.ServiceReference, error) {
	var resp multiResponse[domain.ServiceReference]
	if err := c.get(ctx, "dependents", servicePath(configurationsPath, key)+"/dependents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// LatestStatuses fetches the latest status of every service.
func (c *Client) LatestStatuses(ctx context.Context) ([]domain.RefinedStatus, error) {
	var resp multiResponse[domain.RefinedStatus]
	if err := c.get(ctx, "statuses", statusesPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// ServiceHistory fetches the full status history of one service.
func (c *Client) ServiceHistory(ctx context.Context, key domain.ServiceKey) ([]domain.RefinedStatus, error) {
	var resp multiResponse[domain.RefinedStatus]
	if err := c.get(ctx, "history", servicePath(statusesPath, key), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func servicePath(prefix string, key domain.ServiceKey) string {
	return prefix + "/" + url.PathEscape(key.Environment) + "/" + url.PathEscape(key.Name)
}

// get performs one paced GET and decodes the JSON body into out.
// Status strings are parsed while decoding.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (err error) {
	start := time.Now()
	defer func() { observeRequest(endpoint, start, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("backend %s: rate limiter: %w", endpoint, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("backend %s: failed to create request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: request failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("backend request",
		logger.String("endpoint", endpoint),
		logger.String("url", target),
		logger.Int("status", resp.StatusCode),
		logger.String("request_id", requestID),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Endpoint: endpoint,
			URL:      target,
			Code:     resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend %s: failed to decode response: %w", endpoint, err)
	}
	return nil
}
