package halclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Common static errors that can be wrapped with context.
var (
	// ErrNoCache is wrapped in a *RuntimeError when a cached call runs on a
	// client without a cache store.
	ErrNoCache = errors.New("no cache defined")

	// ErrInvalidRootURL is returned for an unparsable root URL.
	ErrInvalidRootURL = errors.New("invalid root URL")

	// ErrRootURLRequired is returned when no root URL is configured.
	ErrRootURLRequired = errors.New("root URL is required")
)

// BadResponse is returned when a response was obtained but its status was
// not accepted, or its body could not be read or parsed.
type BadResponse = hal.BadResponse

// ErrorFactory builds the error returned for a classified response.
type ErrorFactory func(resp *http.Response, cause error) error

// DefaultErrorFactory builds a *BadResponse.
func DefaultErrorFactory(resp *http.Response, cause error) error {
	return hal.NewBadResponse(resp, cause)
}

// RequestError is returned when the transport could not connect at all.
type RequestError struct {
	Request *http.Request
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// transportStatusError carries a status reported by the transport before a
// response reached the pipeline.
type transportStatusError struct {
	StatusCode int
	Response   *http.Response
	Err        error
}

// ClientError is returned when the transport itself reported a 4xx status.
type ClientError struct {
	transportStatusError
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error [status code] %d: %v", e.StatusCode, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// ServerError is returned when the transport itself reported a 5xx status.
type ServerError struct {
	transportStatusError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error [status code] %d: %v", e.StatusCode, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// RuntimeError wraps unexpected transport failures.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CacheNotSaved is returned when the cache store refused a write after a
// successful fetch.
type CacheNotSaved struct {
	Key string
	Err error
}

func (e *CacheNotSaved) Error() string {
	return fmt.Sprintf("cache not saved for key %q: %v", e.Key, e.Err)
}

func (e *CacheNotSaved) Unwrap() error {
	return e.Err
}

// IsBadResponse checks if an error is a BadResponse.
func IsBadResponse(err error) bool {
	return hal.IsBadResponse(err)
}

// IsNotFound checks if an error carries a 404 status.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	return statusOf(err)
}

func statusOf(err error) int {
	var badResponse *BadResponse
	if errors.As(err, &badResponse) {
		return badResponse.StatusCode()
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}

	return 0
}
