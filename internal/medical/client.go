package medical

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/logging"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"

	apiVersion = "2022-06-28"

	// ObjectPage is the search filter value for pages.
	ObjectPage = "page"

	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultMaxSearchPages = 10

	// Retry-After values above this are clamped.
	maxRetryAfter = 30 * time.Second
)

// retryPolicy decides which failed attempts are worth repeating.
type retryPolicy int

const (
	// retryReads repeats transport failures, 429 and 5xx.
	retryReads retryPolicy = iota
	// retryRateLimited repeats only 429, for non-idempotent writes.
	retryRateLimited
)

func (p retryPolicy) retryStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return p == retryReads && code >= 500
}

// Client talks to the workspace API. It is safe for concurrent use.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	token          string
	baseURL        string
	maxRetries     uint
	maxSearchPages int
	newBackOff     func() backoff.BackOff
	metrics        *instrumentation.Metrics
	logger         logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying http.Client. The client is copied
// when a timeout is configured, so hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt request timeout. It applies regardless
// of its position relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRetries sets the total number of attempts per request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = uint(n)
		}
	}
}

// WithMaxSearchPages caps how many result pages a search follows.
func WithMaxSearchPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxSearchPages = n
		}
	}
}

// WithBackOff sets the backoff strategy used between attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// WithMetrics records API operations and retries.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client authenticating with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		timeout:        defaultTimeout,
		token:          token,
		baseURL:        DefaultBaseURL,
		maxRetries:     defaultMaxRetries,
		maxSearchPages: defaultMaxSearchPages,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Body       []byte
}

// statusError marks an attempt that got a retryable status. It unwraps to
// a RetryAfterError when the server asked for a specific delay.
type statusError struct {
	resp       *response
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.resp.StatusCode)
}

func (e *statusError) Unwrap() error {
	if e.retryAfter <= 0 {
		return nil
	}
	return &backoff.RetryAfterError{Duration: e.retryAfter}
}

// do sends one logical request, retrying per policy. A nil error means a
// response was received; its status may still be a failure, including a
// retryable one when attempts ran out.
func (c *Client) do(ctx context.Context, operation, method, url string, payload []byte, policy retryPolicy, attrs ...attribute.KeyValue) (*response, error) {
	ctx, span := instrumentation.StartAPISpan(ctx, instrumentation.ServiceWorkspace, operation, attrs...)
	defer span.End()

	start := time.Now()

	attempt := func() (*response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transportError(fmt.Errorf("failed to send request: %w", err), policy)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(fmt.Errorf("failed to read response body: %w", err), policy)
		}

		r := &response{StatusCode: resp.StatusCode, Body: data}
		if policy.retryStatus(resp.StatusCode) {
			return r, &statusError{resp: r, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return r, nil
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			if c.metrics != nil {
				c.metrics.RecordAPIRetry(ctx, instrumentation.ServiceWorkspace, operation)
			}
			c.logger.Debug("retrying API request",
				logging.Operation(operation),
				"wait", next,
				logging.KeyError, err.Error())
		}),
	)

	var se *statusError
	if err != nil && errors.As(err, &se) {
		resp, err = se.resp, nil
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordAPIOperation(ctx, instrumentation.ServiceWorkspace, operation, statusCode, time.Since(start))
	}
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithStatusCode(statusCode).Build()...)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	if statusCode < 200 || statusCode > 299 {
		instrumentation.SetSpanError(span, fmt.Errorf("status %d", statusCode))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return resp, nil
}

func transportError(err error, policy retryPolicy) error {
	if policy == retryRateLimited {
		return backoff.Permanent(err)
	}
	return err
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// checkStatus turns a non-2xx read response into a remote rejection.
func checkStatus(op string, resp *response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return &Error{Op: op, Kind: KindRemoteRejection, Err: decodeAPIError(resp.StatusCode, resp.Body)}
}

func normalizeID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
