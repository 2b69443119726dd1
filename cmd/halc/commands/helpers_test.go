package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()

	values, err := parseQuery([]string{"status=open", "tag=a", "tag=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"status": {"open"}, "tag": {"a", "b"}, "empty": {""}}, values)

	values, err = parseQuery(nil)
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = parseQuery([]string{"novalue"})
	require.ErrorIs(t, err, ErrInvalidQueryParam)

	_, err = parseQuery([]string{"=x"})
	require.ErrorIs(t, err, ErrInvalidQueryParam)
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	header, err := parseHeaders([]string{"Accept: application/json", "x-trace:abc"})
	require.NoError(t, err)
	assert.Equal(t, http.Header{"Accept": {"application/json"}, "X-Trace": {"abc"}}, header)

	_, err = parseHeaders([]string{"no separator"})
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadBody(t *testing.T) {
	t.Parallel()

	t.Run("inline JSON is decoded", func(t *testing.T) {
		t.Parallel()

		body, err := readBody(nil, `{"name":"ada"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "ada"}, body)
	})

	t.Run("non JSON is raw", func(t *testing.T) {
		t.Parallel()

		body, err := readBody(nil, "a=b")
		require.NoError(t, err)
		assert.Equal(t, []byte("a=b"), body)
	})

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		body, err := readBody(strings.NewReader(`[1,2]`), "-")
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1), float64(2)}, body)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "body.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"a":true}`), 0o600))

		body, err := readBody(nil, "@"+path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": true}, body)

		_, err = readBody(nil, "@"+path+".missing")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		body, err := readBody(nil, "")
		require.NoError(t, err)
		assert.Nil(t, body)
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("x", constants.StringTruncationLength+10)
	truncated := truncate(long)
	assert.Len(t, truncated, constants.StringTruncationLength)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestCellValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.NotAvailable, cellValue(nil))
	assert.Equal(t, "12", cellValue(json.Number("12")))
	assert.Equal(t, "true", cellValue(true))
	assert.Equal(t, `{"a":1}`, cellValue(map[string]any{"a": 1}))
}

func TestPlainValue(t *testing.T) {
	t.Parallel()

	value := plainValue(map[string]any{
		"count": json.Number("3"),
		"ratio": json.Number("0.5"),
		"items": []any{json.Number("1"), "x"},
	})

	assert.Equal(t, map[string]any{
		"count": int64(3),
		"ratio": 0.5,
		"items": []any{int64(1), "x"},
	}, value)
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		wantErr error
		check   func(t *testing.T, config *Config)
	}{
		{key: "api", value: "https://api.test/", check: func(t *testing.T, c *Config) { assert.Equal(t, "https://api.test/", c.API) }},
		{key: "output", value: "yaml", check: func(t *testing.T, c *Config) { assert.Equal(t, "yaml", c.Output) }},
		{key: "output", value: "xml", wantErr: ErrInvalidConfigValue},
		{key: "timeout", value: "5s", check: func(t *testing.T, c *Config) { assert.Equal(t, "5s", c.Timeout) }},
		{key: "timeout", value: "soon", wantErr: ErrInvalidConfigValue},
		{key: "retry_max", value: "3", check: func(t *testing.T, c *Config) { assert.Equal(t, 3, c.RetryMax) }},
		{key: "retry_max", value: "-1", wantErr: ErrInvalidConfigValue},
		{key: "log.format", value: "hclog", check: func(t *testing.T, c *Config) { assert.Equal(t, "hclog", c.Log.Format) }},
		{key: "log.format", value: "logrus", wantErr: ErrInvalidConfigValue},
		{key: "cache.type", value: "nats", check: func(t *testing.T, c *Config) { assert.Equal(t, "nats", c.Cache.Type) }},
		{key: "cache.ttl", value: "1h", check: func(t *testing.T, c *Config) { assert.Equal(t, "1h", c.Cache.TTL) }},
		{key: "headers.X-Tenant", value: "acme", check: func(t *testing.T, c *Config) { assert.Equal(t, "acme", c.Headers["X-Tenant"]) }},
		{key: "colour", value: "red", wantErr: ErrUnknownConfigKey},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			config := &Config{}

			err := setConfigValue(config, tt.key, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, config)

			require.NoError(t, unsetConfigValue(config, tt.key))
		})
	}
}

func TestDisplayConfigTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := displayConfigTable(&buf, &Config{API: "https://api.test/", Headers: map[string]string{"X-Tenant": "acme"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://api.test/")
	assert.Contains(t, buf.String(), "Header X-Tenant")
	assert.Contains(t, buf.String(), constants.NotAvailable)
}
