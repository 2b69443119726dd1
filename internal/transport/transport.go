// Package transport sends HTTP requests for the HAL client over a retrying
// HTTP client.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Options are per-send settings.
type Options struct {
	// Timeout bounds the whole exchange, retries included. Zero disables it.
	Timeout time.Duration

	// FailOnStatus turns 4xx and 5xx responses into *StatusError.
	FailOnStatus bool
}

// ConnectError is returned when no connection could be established.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ConnectFailure marks the error as a connect-level failure.
func (e *ConnectError) ConnectFailure() bool {
	return true
}

// StatusError is returned for error statuses when FailOnStatus is set. The
// response body is buffered and can be read again.
type StatusError struct {
	Response *http.Response
}

func (e *StatusError) Error() string {
	if e.Response.Request == nil {
		return fmt.Sprintf("unexpected status %d", e.Response.StatusCode)
	}

	return fmt.Sprintf("%s %s: unexpected status %d", e.Response.Request.Method, e.Response.Request.URL, e.Response.StatusCode)
}

// TransportStatus returns the status the transport failed on.
func (e *StatusError) TransportStatus() int {
	return e.Response.StatusCode
}

// TransportResponse returns the failed response.
func (e *StatusError) TransportResponse() *http.Response {
	return e.Response
}

// Client is the default transport.
type Client struct {
	httpClient *retryablehttp.Client
	logger     Logger
	debug      bool
	userAgent  string
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLeveledLogger hands retry diagnostics to a key/value logger such as
// hclog.
func WithLeveledLogger(logger retryablehttp.LeveledLogger) Option {
	return func(c *Client) {
		c.httpClient.Logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the user agent used when a request carries none.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets retry configuration.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// WithTimeout sets the per-attempt timeout of the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// New creates a transport. Retries are off unless WithRetryConfig is given.
func New(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{httpClient: retryClient}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Send performs the request. Connect failures come back as *ConnectError;
// other transport failures are returned as is.
func (c *Client) Send(ctx context.Context, req *http.Request, opts Options) (*http.Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}

	if retryReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		retryReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  retryReq.Method,
			"url":     retryReq.URL.String(),
			"headers": retryReq.Header,
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(retryReq)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		if isConnectError(err) {
			return nil, &ConnectError{URL: req.URL.String(), Err: err}
		}

		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
		})
	}

	// The timeout context dies with this call, so the body is read now.
	if opts.Timeout > 0 || (opts.FailOnStatus && resp.StatusCode >= constants.HTTPStatusBadRequest) {
		BufferBody(resp)
	}

	if opts.FailOnStatus && resp.StatusCode >= constants.HTTPStatusBadRequest {
		return nil, &StatusError{Response: resp}
	}

	return resp, nil
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError

	return errors.As(err, &dnsErr)
}

// BufferBody replaces the body with an in-memory copy. A read failure is
// replayed to the reader.
func BufferBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if err != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), &errReader{err: err}))

		return
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}
