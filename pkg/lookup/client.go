package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
	userAgent       = "go-kardex/1.0"
)

// ErrNotFound is returned when an endpoint answers 404.
var ErrNotFound = errors.New("lookup: not found")

// StatusError is a non-2xx answer from an endpoint.
type StatusError struct {
	Method string
	URL    string
	Status int
	// Detail is the server's detail, message or error field when present.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("lookup: %s %s: %d: %s", e.Method, e.URL, e.Status, e.Detail)
	}
	return fmt.Sprintf("lookup: %s %s: %d", e.Method, e.URL, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects the HTTP client used for every request.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit caps outgoing requests to rps with the given burst. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCSRFToken sets the token sent as X-CSRFToken on POST requests.
func WithCSRFToken(token string) Option {
	return func(c *Client) {
		c.csrfToken = token
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client talks to the clinic endpoints. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	csrfToken string
	timeout   time.Duration
	logger    zerolog.Logger
	group     singleflight.Group
}

// New constructs a Client rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("lookup: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("lookup: base url %q must be absolute", baseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// endpoint joins the escaped path onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	} else {
		u.Path, u.RawPath = c.base.Path+path, ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// get fetches path. Concurrent calls for the same URL share one request.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.endpoint(path, query)
	body, err, shared := c.group.Do(target, func() (any, error) {
		return c.do(ctx, http.MethodGet, target, nil, "")
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("url", target).Msg("lookup request shared")
	}
	return body.([]byte), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("lookup: decode %s: %w", path, err)
	}
	return nil
}

func getResults[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	items, err := decodeResults[T](body)
	if err != nil {
		return nil, fmt.Errorf("lookup: decode %s: %w", path, err)
	}
	return items, nil
}

func (c *Client) postForm(ctx context.Context, target string, form url.Values, out any) error {
	body, err := c.do(ctx, http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("lookup: decode %s: %w", target, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, payload io.Reader, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("lookup: rate limit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("lookup: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet && c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("lookup: read %s: %w", target, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("lookup request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method: method,
			URL:    target,
			Status: resp.StatusCode,
			Detail: errorDetail(body),
		}
	}
	return body, nil
}

func errorDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
