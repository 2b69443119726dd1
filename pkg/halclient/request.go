package halclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/internal/transport"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, uri string, opts *Options) (*hal.Resource, error) {
	return c.Request(ctx, http.MethodGet, uri, opts)
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, uri string, opts *Options) (*hal.Resource, error) {
	return c.Request(ctx, http.MethodPost, uri, opts)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, uri string, opts *Options) (*hal.Resource, error) {
	return c.Request(ctx, http.MethodPut, uri, opts)
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, uri string, opts *Options) (*hal.Resource, error) {
	return c.Request(ctx, http.MethodPatch, uri, opts)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, uri string, opts *Options) (*hal.Resource, error) {
	return c.Request(ctx, http.MethodDelete, uri, opts)
}

// Request sends a request and turns the response into a resource.
//
// Transport failures come back as *RequestError, *ClientError, *ServerError
// or *RuntimeError. Responses are then classified in order: with HTTPErrors
// on, any status outside [200,400) is a *BadResponse; a 5xx without Allow5xx
// goes through Exception5xx; a status listed in ExceptionStatusCodes goes
// through its factory; RawResponse yields a plain empty resource and leaves
// the body to LastResponse; anything else
// is parsed. Every failure is reported to the observers before it is
// returned.
func (c *Client) Request(ctx context.Context, method, uri string, opts *Options) (*hal.Resource, error) {
	merged := MergeOptions(c.defaults, opts)

	req, err := c.BuildRequest(ctx, method, uri, merged)
	if err != nil {
		return nil, err
	}

	c.observers.OnRequestStart(ctx, req)

	start := time.Now()

	resp, err := c.transport.Send(ctx, req, merged.transportOptions())
	if err != nil {
		translated := translateTransportError(req, err)
		c.observers.OnRequestFailure(ctx, req, translated)

		return nil, translated
	}

	elapsed := time.Since(start)

	if resp.Request == nil {
		resp.Request = req
	}

	transport.BufferBody(resp)
	c.lastResponse = resp

	if isSet(merged.AddRequestTime) {
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}

		resp.Header.Set(constants.HeaderResponseTime, formatElapsed(elapsed))
	}

	c.observers.OnRequestComplete(ctx, req, resp)

	resource, err := c.handleResponse(resp, merged)
	if err != nil {
		c.observers.OnRequestFailure(ctx, req, err)

		return nil, err
	}

	return resource, nil
}

func (c *Client) handleResponse(resp *http.Response, opts *Options) (*hal.Resource, error) {
	status := resp.StatusCode

	if opts.httpErrors() && (status < constants.HTTPStatusOK || status >= constants.HTTPStatusBadRequest) {
		return nil, DefaultErrorFactory(resp, nil)
	}

	if status >= constants.HTTPStatusInternalServerError && status <= constants.HTTPStatusServerErrorMax && !isSet(opts.Allow5xx) {
		return nil, buildError(opts.Exception5xx, resp)
	}

	if factory, ok := opts.ExceptionStatusCodes[status]; ok {
		return nil, buildError(factory, resp)
	}

	if isSet(opts.RawResponse) {
		return hal.Empty(), nil
	}

	resource, err := hal.FromResponse(resp)
	if err != nil {
		c.logger.Debug("failed to parse response", map[string]interface{}{
			"status_code": status,
			"error":       err.Error(),
		})

		return nil, err
	}

	return resource, nil
}

// buildError runs factory, falling back to a *BadResponse when it is nil or
// returns nil.
func buildError(factory ErrorFactory, resp *http.Response) error {
	if factory != nil {
		if err := factory(resp, nil); err != nil {
			return err
		}
	}

	return DefaultErrorFactory(resp, nil)
}

func formatElapsed(elapsed time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(elapsed.Nanoseconds())/float64(time.Millisecond))
}

// BuildRequest builds the request Request would send. opts is used as
// given, without merging the client defaults.
//
// The URI is resolved against the root URL; an absolute URI replaces it.
// Query parameters already on the URI are kept unless opts overrides them.
// Headers from opts replace the template's. Correlation headers are added
// last.
func (c *Client) BuildRequest(ctx context.Context, method, uri string, opts *Options) (*http.Request, error) {
	if opts == nil {
		opts = &Options{}
	}

	target, err := c.resolve(uri)
	if err != nil {
		return nil, err
	}

	if err := mergeQuery(target, opts); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.header.Clone()
	for name, values := range opts.Headers {
		req.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	if isSet(opts.AddRequestID) {
		applyRequestID(ctx, req.Header)
	}

	if opts.RequestName != "" {
		req.Header.Set(constants.HeaderRequestName, opts.RequestName)
	}

	if isSet(opts.AddRequestDepth) {
		incrementDepth(req.Header)
	}

	return req, nil
}

func (c *Client) resolve(uri string) (*url.URL, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URI %q: %w", hal.ErrInvalidArgument, uri, err)
	}

	if ref.IsAbs() {
		return ref, nil
	}

	if c.rootURL == nil {
		return nil, fmt.Errorf("%w: cannot resolve %q", ErrRootURLRequired, uri)
	}

	return c.rootURL.ResolveReference(ref), nil
}

func mergeQuery(target *url.URL, opts *Options) error {
	if opts.RawQuery == "" && len(opts.Query) == 0 {
		return nil
	}

	query := target.Query()

	if opts.RawQuery != "" {
		raw, err := url.ParseQuery(strings.TrimPrefix(opts.RawQuery, "?"))
		if err != nil {
			return fmt.Errorf("%w: invalid query %q: %w", hal.ErrInvalidArgument, opts.RawQuery, err)
		}

		for key, values := range raw {
			query[key] = values
		}
	}

	for key, values := range opts.Query {
		query[key] = append([]string(nil), values...)
	}

	target.RawQuery = query.Encode()

	return nil
}

// encodeBody returns raw bodies as is and JSON encodes everything else.
func encodeBody(body interface{}) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "", nil
	case io.Reader:
		return v, "", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to encode body: %w", hal.ErrInvalidArgument, err)
	}

	return bytes.NewReader(data), constants.MediaTypeJSON, nil
}
