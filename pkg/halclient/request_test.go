package halclient_test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_BuildRequest(t *testing.T) {
	t.Parallel()

	client := newClient(t, "http://api.test/v1/")

	t.Run("URI resolution", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			uri  string
			want string
		}{
			{name: "relative", uri: "orders", want: "http://api.test/v1/orders"},
			{name: "root relative", uri: "/health", want: "http://api.test/health"},
			{name: "empty", uri: "", want: "http://api.test/v1/"},
			{name: "absolute", uri: "https://other.test/x?y=1", want: "https://other.test/x?y=1"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				req, err := client.BuildRequest(context.Background(), http.MethodGet, tt.uri, nil)
				require.NoError(t, err)
				assert.Equal(t, tt.want, req.URL.String())
				assert.Equal(t, http.MethodGet, req.Method)
			})
		}
	})

	t.Run("relative URI without root", func(t *testing.T) {
		t.Parallel()

		_, err := newClient(t, "").BuildRequest(context.Background(), http.MethodGet, "orders", nil)
		require.ErrorIs(t, err, halclient.ErrRootURLRequired)
	})

	t.Run("query merge keeps existing parameters", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodGet, "orders?a=1&b=1", &halclient.Options{
			Query: url.Values{"a": {"2"}, "c": {"3"}},
		})
		require.NoError(t, err)
		assert.Equal(t, url.Values{"a": {"2"}, "b": {"1"}, "c": {"3"}}, req.URL.Query())
	})

	t.Run("raw query is merged before query", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodGet, "orders?a=1", &halclient.Options{
			RawQuery: "b=2&c=2",
			Query:    url.Values{"c": {"3"}},
		})
		require.NoError(t, err)
		assert.Equal(t, url.Values{"a": {"1"}, "b": {"2"}, "c": {"3"}}, req.URL.Query())
	})

	t.Run("headers override the template", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodGet, "", &halclient.Options{
			Headers: http.Header{"accept": {"application/json"}, "X-Trace": {"t1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Equal(t, "t1", req.Header.Get("X-Trace"))
		assert.Equal(t, "hal-client/"+halclient.Version, req.Header.Get("User-Agent"))
		assert.Empty(t, req.Header.Get("X-Request-Id"))
	})

	t.Run("structured body is JSON encoded", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodPost, "users", &halclient.Options{
			Body: map[string]interface{}{"name": "ada"},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"ada"}`, string(body))
	})

	t.Run("explicit content type wins", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodPost, "users", &halclient.Options{
			Body:    []int{1, 2},
			Headers: http.Header{"Content-Type": {"application/hal+json"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/hal+json", req.Header.Get("Content-Type"))
	})

	t.Run("raw bodies are sent as is", func(t *testing.T) {
		t.Parallel()

		for _, body := range []interface{}{"a=b", []byte("a=b"), strings.NewReader("a=b")} {
			req, err := client.BuildRequest(context.Background(), http.MethodPost, "form", &halclient.Options{Body: body})
			require.NoError(t, err)
			assert.Empty(t, req.Header.Get("Content-Type"))

			data, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			assert.Equal(t, "a=b", string(data))
		}
	})

	t.Run("unencodable body", func(t *testing.T) {
		t.Parallel()

		_, err := client.BuildRequest(context.Background(), http.MethodPost, "users", &halclient.Options{
			Body: map[string]interface{}{"ch": make(chan int)},
		})
		require.ErrorIs(t, err, hal.ErrInvalidArgument)
	})

	t.Run("generated request ID", func(t *testing.T) {
		t.Parallel()

		req, err := client.BuildRequest(context.Background(), http.MethodGet, "", &halclient.Options{AddRequestID: halclient.Bool(true)})
		require.NoError(t, err)

		_, err = uuid.Parse(req.Header.Get("X-Request-Id"))
		require.NoError(t, err)
	})

	t.Run("request ID from context", func(t *testing.T) {
		t.Parallel()

		ctx := halclient.ContextWithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", halclient.RequestIDFromContext(ctx))

		req, err := client.BuildRequest(ctx, http.MethodGet, "", &halclient.Options{AddRequestID: halclient.Bool(true)})
		require.NoError(t, err)
		assert.Equal(t, "req-123", req.Header.Get("X-Request-Id"))
	})

	t.Run("existing request ID is kept", func(t *testing.T) {
		t.Parallel()

		ctx := halclient.ContextWithRequestID(context.Background(), "from-context")

		req, err := client.WithHeader("X-Request-Id", "upstream").BuildRequest(ctx, http.MethodGet, "", &halclient.Options{
			AddRequestID: halclient.Bool(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "upstream", req.Header.Get("X-Request-Id"))
	})

	t.Run("request name and depth", func(t *testing.T) {
		t.Parallel()

		opts := &halclient.Options{RequestName: "list-orders", AddRequestDepth: halclient.Bool(true)}

		req, err := client.BuildRequest(context.Background(), http.MethodGet, "", opts)
		require.NoError(t, err)
		assert.Equal(t, "list-orders", req.Header.Get("X-Request-Name"))
		assert.Equal(t, "1", req.Header.Get("X-Request-Depth"))

		req, err = client.WithHeader("X-Request-Depth", "3").BuildRequest(context.Background(), http.MethodGet, "", opts)
		require.NoError(t, err)
		assert.Equal(t, "4", req.Header.Get("X-Request-Depth"))
	})
}

func TestClient_RequestHeadersOnTheWire(t *testing.T) {
	t.Parallel()

	var got http.Header

	transport := halclient.TransportFunc(func(_ context.Context, req *http.Request, _ halclient.TransportOptions) (*http.Response, error) {
		got = req.Header.Clone()

		return fakeResponse(http.StatusOK, `{}`), nil
	})

	client := newClient(t, "http://api.test/", halclient.WithTransport(transport), halclient.WithDefaultOptions(&halclient.Options{
		AddRequestID:    halclient.Bool(true),
		AddRequestDepth: halclient.Bool(true),
	}))

	ctx := halclient.ContextWithRequestID(context.Background(), "corr-1")

	_, err := client.Get(ctx, "/", &halclient.Options{RequestName: "probe"})
	require.NoError(t, err)

	assert.Equal(t, "corr-1", got.Get("X-Request-Id"))
	assert.Equal(t, "1", got.Get("X-Request-Depth"))
	assert.Equal(t, "probe", got.Get("X-Request-Name"))
}
