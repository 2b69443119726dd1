package halclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

var errCustom = errors.New("custom failure")

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/hal+json")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func newClient(t *testing.T, rootURL string, opts ...halclient.ClientOption) *halclient.Client {
	t.Helper()

	client, err := halclient.New(rootURL, opts...)
	require.NoError(t, err)

	return client
}

// fakeResponse builds a response as a transport would return it.
func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	started   int
	completed int
	failures  []error
}

func (o *recordingObserver) OnRequestStart(context.Context, *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.started++
}

func (o *recordingObserver) OnRequestFailure(_ context.Context, _ *http.Request, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.failures = append(o.failures, err)
}

func (o *recordingObserver) OnRequestComplete(context.Context, *http.Request, *http.Response) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.completed++
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Request(t *testing.T) {
	t.Parallel()

	t.Run("parses a HAL document", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusOK, `{
			"id": 7,
			"name": "ada",
			"_links": {"self": {"href": "/users/7"}}
		}`)

		resource, err := newClient(t, server.URL).Get(context.Background(), "/users/7", nil)
		require.NoError(t, err)

		assert.False(t, resource.IsErrorResource())
		assert.Equal(t, json.Number("7"), resource.Data()["id"])
		assert.Equal(t, "ada", resource.Data()["name"])

		self := resource.LinksByRel("self")
		require.Len(t, self, 1)
		assert.Equal(t, "/users/7", self[0].Href())
	})

	t.Run("500 with http errors is a bad response", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusInternalServerError, `{"title":"boom"}`)
		observer := &recordingObserver{}

		_, err := newClient(t, server.URL, halclient.WithObserver(observer)).Get(context.Background(), "/", nil)

		var badResponse *halclient.BadResponse
		require.ErrorAs(t, err, &badResponse)
		assert.Equal(t, http.StatusInternalServerError, badResponse.StatusCode())
		assert.True(t, badResponse.IsServerError())
		assert.Contains(t, err.Error(), "Server error")
		assert.Equal(t, 1, observer.completed)
		require.Len(t, observer.failures, 1)
		assert.Equal(t, err, observer.failures[0])
	})

	t.Run("500 allowed without http errors is parsed", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusInternalServerError, `{"title":"boom"}`)

		resource, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors: halclient.Bool(false),
			Allow5xx:   halclient.Bool(true),
		})
		require.NoError(t, err)

		assert.True(t, resource.IsErrorResource())
		assert.Equal(t, "boom", resource.Data()["title"])
		assert.Equal(t, http.StatusInternalServerError, resource.Response().StatusCode)
	})

	t.Run("5xx not allowed uses the configured factory", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusBadGateway, ``)

		_, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors: halclient.Bool(false),
			Exception5xx: func(*http.Response, error) error {
				return errCustom
			},
		})
		require.ErrorIs(t, err, errCustom)
	})

	t.Run("5xx not allowed defaults to a bad response", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusServiceUnavailable, ``)

		_, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors: halclient.Bool(false),
		})
		assert.True(t, halclient.IsBadResponse(err))
		assert.Equal(t, http.StatusServiceUnavailable, halclient.StatusCode(err))
	})

	t.Run("status code factory", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNotFound, `{"title":"missing"}`)

		_, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors: halclient.Bool(false),
			ExceptionStatusCodes: map[int]halclient.ErrorFactory{
				http.StatusNotFound: func(resp *http.Response, _ error) error {
					return errCustom
				},
			},
		})
		require.ErrorIs(t, err, errCustom)
	})

	t.Run("4xx without http errors is an error resource", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNotFound, `{"title":"missing"}`)

		resource, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors: halclient.Bool(false),
		})
		require.NoError(t, err)
		assert.True(t, resource.IsErrorResource())
		assert.Equal(t, "missing", resource.Data()["title"])
	})

	t.Run("404 is reported as not found", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNotFound, ``)

		_, err := newClient(t, server.URL).Get(context.Background(), "/", nil)
		assert.True(t, halclient.IsNotFound(err))
	})

	t.Run("raw response skips parsing", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusOK, `not json`)

		client := newClient(t, server.URL)

		resource, err := client.Get(context.Background(), "/", &halclient.Options{RawResponse: halclient.Bool(true)})
		require.NoError(t, err)
		assert.True(t, resource.IsEmpty())

		body, err := io.ReadAll(client.LastResponse().Body)
		require.NoError(t, err)
		assert.Equal(t, "not json", string(body))
	})

	t.Run("raw error status is a plain empty resource", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNotFound, `missing`)

		resource, err := newClient(t, server.URL).Get(context.Background(), "/", &halclient.Options{
			HTTPErrors:  halclient.Bool(false),
			RawResponse: halclient.Bool(true),
		})
		require.NoError(t, err)
		assert.True(t, resource.IsEmpty())
		assert.False(t, resource.IsErrorResource())
		assert.Nil(t, resource.Response())
	})

	t.Run("parse failure is a bad response", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusOK, `{"a":`)
		observer := &recordingObserver{}

		_, err := newClient(t, server.URL, halclient.WithObserver(observer)).Get(context.Background(), "/", nil)

		var badResponse *halclient.BadResponse
		require.ErrorAs(t, err, &badResponse)
		assert.Contains(t, err.Error(), "JSON parse error")
		assert.Len(t, observer.failures, 1)
	})

	t.Run("empty body yields an empty resource", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNoContent, ``)

		resource, err := newClient(t, server.URL).Delete(context.Background(), "/users/7", nil)
		require.NoError(t, err)
		assert.True(t, resource.IsEmpty())
	})

	t.Run("default options apply", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusNotFound, `{}`)

		client := newClient(t, server.URL, halclient.WithDefaultOptions(&halclient.Options{
			HTTPErrors: halclient.Bool(false),
		}))

		resource, err := client.Get(context.Background(), "/", nil)
		require.NoError(t, err)
		assert.True(t, resource.IsErrorResource())

		_, err = client.Get(context.Background(), "/", &halclient.Options{HTTPErrors: halclient.Bool(true)})
		assert.True(t, halclient.IsBadResponse(err))
	})

	t.Run("response time header", func(t *testing.T) {
		t.Parallel()

		transport := halclient.TransportFunc(func(context.Context, *http.Request, halclient.TransportOptions) (*http.Response, error) {
			return fakeResponse(http.StatusOK, `{}`), nil
		})

		client := newClient(t, "http://api.test/", halclient.WithTransport(transport))

		_, err := client.Get(context.Background(), "/", &halclient.Options{AddRequestTime: halclient.Bool(true)})
		require.NoError(t, err)
		assert.Regexp(t, `^\d+\.\d{2}ms$`, client.LastResponse().Header.Get("X-Response-Time"))
	})

	t.Run("transport options are passed through", func(t *testing.T) {
		t.Parallel()

		var got halclient.TransportOptions

		transport := halclient.TransportFunc(func(_ context.Context, _ *http.Request, opts halclient.TransportOptions) (*http.Response, error) {
			got = opts

			return fakeResponse(http.StatusOK, `{}`), nil
		})

		_, err := newClient(t, "http://api.test/", halclient.WithTransport(transport)).Get(context.Background(), "/", &halclient.Options{
			Transport: &halclient.TransportOptions{FailOnStatus: true},
		})
		require.NoError(t, err)
		assert.True(t, got.FailOnStatus)
	})
}

type connectErr struct{}

func (connectErr) Error() string        { return "dial tcp: connection refused" }
func (connectErr) ConnectFailure() bool { return true }

type statusErr struct{ status int }

func (e statusErr) Error() string        { return "transport rejected status" }
func (e statusErr) TransportStatus() int { return e.status }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_TransportErrors(t *testing.T) {
	t.Parallel()

	failing := func(err error) halclient.Transport {
		return halclient.TransportFunc(func(context.Context, *http.Request, halclient.TransportOptions) (*http.Response, error) {
			return nil, err
		})
	}

	t.Run("connect failure", func(t *testing.T) {
		t.Parallel()

		observer := &recordingObserver{}
		client := newClient(t, "http://api.test/", halclient.WithTransport(failing(connectErr{})), halclient.WithObserver(observer))

		_, err := client.Get(context.Background(), "/", nil)

		var requestErr *halclient.RequestError
		require.ErrorAs(t, err, &requestErr)
		assert.Equal(t, "http://api.test/", requestErr.Request.URL.String())
		assert.Equal(t, 1, observer.started)
		assert.Equal(t, 0, observer.completed)
		require.Len(t, observer.failures, 1)
		assert.Equal(t, err, observer.failures[0])
	})

	t.Run("transport 4xx", func(t *testing.T) {
		t.Parallel()

		_, err := newClient(t, "http://api.test/", halclient.WithTransport(failing(statusErr{status: 404}))).Get(context.Background(), "/", nil)

		var clientErr *halclient.ClientError
		require.ErrorAs(t, err, &clientErr)
		assert.Equal(t, 404, clientErr.StatusCode)
		assert.True(t, halclient.IsNotFound(err))
	})

	t.Run("transport 5xx", func(t *testing.T) {
		t.Parallel()

		_, err := newClient(t, "http://api.test/", halclient.WithTransport(failing(statusErr{status: 503}))).Get(context.Background(), "/", nil)

		var serverErr *halclient.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, 503, halclient.StatusCode(err))
	})

	t.Run("anything else", func(t *testing.T) {
		t.Parallel()

		_, err := newClient(t, "http://api.test/", halclient.WithTransport(failing(errCustom))).Get(context.Background(), "/", nil)

		var runtimeErr *halclient.RuntimeError
		require.ErrorAs(t, err, &runtimeErr)
		require.ErrorIs(t, err, errCustom)
	})

	t.Run("default transport connect failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newClient(t, url).Get(context.Background(), "/", nil)

		var requestErr *halclient.RequestError
		require.ErrorAs(t, err, &requestErr)
	})

	t.Run("default transport failing on status", func(t *testing.T) {
		t.Parallel()

		server := newServer(t, http.StatusConflict, `{"title":"conflict"}`)

		_, err := newClient(t, server.URL).Post(context.Background(), "/", &halclient.Options{
			Body:      map[string]string{"name": "ada"},
			Transport: &halclient.TransportOptions{FailOnStatus: true},
		})

		var clientErr *halclient.ClientError
		require.ErrorAs(t, err, &clientErr)
		assert.Equal(t, http.StatusConflict, clientErr.StatusCode)
		require.NotNil(t, clientErr.Response)

		body, err := io.ReadAll(clientErr.Response.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"conflict"}`, string(body))
	})
}

func TestClient_ValueCopies(t *testing.T) {
	t.Parallel()

	client := newClient(t, "http://api.test/v1/", halclient.WithHeader("X-Tenant", "a"))

	assert.Equal(t, "http://api.test/v1/", client.RootURL())
	assert.Equal(t, []string{"hal-client/" + halclient.Version}, client.Header("User-Agent"))
	assert.True(t, client.HasHeader("x-tenant"))

	changed := client.WithHeader("X-Tenant", "b")
	assert.Equal(t, []string{"a"}, client.Header("X-Tenant"))
	assert.Equal(t, []string{"b"}, changed.Header("X-Tenant"))

	dropped := client.WithoutHeader("X-Tenant")
	assert.False(t, dropped.HasHeader("X-Tenant"))
	assert.True(t, client.HasHeader("X-Tenant"))

	moved, err := client.WithRootURL("http://other.test/")
	require.NoError(t, err)
	assert.Equal(t, "http://other.test/", moved.RootURL())
	assert.Equal(t, "http://api.test/v1/", client.RootURL())

	_, err = client.WithRootURL("relative/path")
	require.ErrorIs(t, err, halclient.ErrInvalidRootURL)

	extra := client.WithExtra("trace", 42)
	assert.Equal(t, 42, extra.Extra("trace"))
	assert.Nil(t, client.Extra("trace"))

	assert.Nil(t, client.LastResponse())
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := halclient.New("://bad")
	require.ErrorIs(t, err, halclient.ErrInvalidRootURL)

	client, err := halclient.New("", halclient.WithUserAgent("halc/1.0"))
	require.NoError(t, err)
	assert.Empty(t, client.RootURL())
	assert.Equal(t, []string{"halc/1.0"}, client.Header("User-Agent"))
	assert.Equal(t, []string{"application/hal+json, application/json, application/vnd.error+json"}, client.Header("Accept"))
}
