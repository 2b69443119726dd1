package halclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/transport"
)

// TransportOptions are handed to the transport on every send.
type TransportOptions struct {
	// Timeout bounds the exchange. Zero leaves it to the transport.
	Timeout time.Duration

	// FailOnStatus asks the transport to fail on 4xx and 5xx statuses
	// itself instead of returning the response.
	FailOnStatus bool
}

// Transport sends one request and returns its response. Failures before a
// response exists may implement ConnectFailure() bool or
// TransportStatus() int to be classified by the client.
type Transport interface {
	Send(ctx context.Context, req *http.Request, opts TransportOptions) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *http.Request, opts TransportOptions) (*http.Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *http.Request, opts TransportOptions) (*http.Response, error) {
	return f(ctx, req, opts)
}

// DefaultTransport wraps the retrying HTTP transport.
type DefaultTransport struct {
	client *transport.Client
}

// NewDefaultTransport builds the retrying transport.
func NewDefaultTransport(opts ...transport.Option) *DefaultTransport {
	return &DefaultTransport{client: transport.New(opts...)}
}

// Send implements Transport.
func (t *DefaultTransport) Send(ctx context.Context, req *http.Request, opts TransportOptions) (*http.Response, error) {
	return t.client.Send(ctx, req, transport.Options{
		Timeout:      opts.Timeout,
		FailOnStatus: opts.FailOnStatus,
	})
}

type connectFailure interface {
	ConnectFailure() bool
}

type statusFailure interface {
	TransportStatus() int
}

type responseCarrier interface {
	TransportResponse() *http.Response
}

// translateTransportError maps a transport failure onto the client's error
// kinds.
func translateTransportError(req *http.Request, err error) error {
	var connErr connectFailure
	if errors.As(err, &connErr) && connErr.ConnectFailure() {
		return &RequestError{Request: req, Err: err}
	}

	var statusErr statusFailure
	if errors.As(err, &statusErr) {
		status := statusErr.TransportStatus()
		detail := transportStatusError{StatusCode: status, Err: err}

		var carrier responseCarrier
		if errors.As(err, &carrier) {
			detail.Response = carrier.TransportResponse()
		}

		switch {
		case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
			return &ClientError{transportStatusError: detail}
		case status >= http.StatusInternalServerError:
			return &ServerError{transportStatusError: detail}
		}
	}

	return &RuntimeError{Err: err}
}
