package halclient

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

// Version is reported in the default User-Agent. It is set at build time.
var Version = "dev"

// defaultAccept lists the media types the client understands.
var defaultAccept = strings.Join([]string{
	constants.MediaTypeHAL,
	constants.MediaTypeJSON,
	constants.MediaTypeVndError,
}, ", ")

// Client sends requests against a HAL API and parses the responses into
// resources. Configuration is immutable after New; the With* methods return
// modified copies. LastResponse is per instance and not safe for concurrent
// use, so concurrent callers should each hold their own copy.
type Client struct {
	rootURL   *url.URL
	header    http.Header
	transport Transport
	cache     cache.Store
	cacheTTL  time.Duration
	defaults  *Options
	observers Observers
	logger    Logger
	extra     map[string]interface{}

	lastResponse *http.Response
}

// ClientOption configures a client.
type ClientOption func(*Client)

// WithTransport sets the transport.
func WithTransport(transport Transport) ClientOption {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithCache enables GetCached. A zero ttl uses the package default.
func WithCache(store cache.Store, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = store
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithDefaultOptions sets options merged under every call.
func WithDefaultOptions(opts *Options) ClientOption {
	return func(c *Client) {
		c.defaults = MergeOptions(nil, opts)
	}
}

// WithObserver adds an observer.
func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		c.observers = append(c.observers, observer)
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader sets a header sent with every request.
func WithHeader(name, value string) ClientOption {
	return func(c *Client) {
		c.header.Set(name, value)
	}
}

// WithUserAgent replaces the default User-Agent.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.header.Set("User-Agent", userAgent)
	}
}

// New creates a client rooted at rootURL. An empty root is allowed when
// every request uses an absolute URI.
func New(rootURL string, opts ...ClientOption) (*Client, error) {
	root, err := parseRoot(rootURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		rootURL:  root,
		header:   make(http.Header),
		cacheTTL: constants.DefaultCacheTTL,
		defaults: &Options{},
		logger:   NoOpLogger{},
	}

	client.header.Set("User-Agent", "hal-client/"+Version)
	client.header.Set("Accept", defaultAccept)

	for _, opt := range opts {
		opt(client)
	}

	if client.transport == nil {
		client.transport = NewDefaultTransport()
	}

	return client, nil
}

func parseRoot(rootURL string) (*url.URL, error) {
	if rootURL == "" {
		return nil, nil
	}

	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRootURL, err)
	}

	if !root.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidRootURL, rootURL)
	}

	return root, nil
}

// RootURL returns the root URL, or "" when none is set.
func (c *Client) RootURL() string {
	if c.rootURL == nil {
		return ""
	}

	return c.rootURL.String()
}

// Header returns the values of the named template header.
func (c *Client) Header(name string) []string {
	return append([]string(nil), c.header.Values(name)...)
}

// HasHeader reports whether the template carries the named header.
func (c *Client) HasHeader(name string) bool {
	_, ok := c.header[http.CanonicalHeaderKey(name)]

	return ok
}

// LastResponse returns the most recent response received by this instance.
func (c *Client) LastResponse() *http.Response {
	return c.lastResponse
}

// Extra returns a caller value attached with WithExtra.
func (c *Client) Extra(key string) interface{} {
	return c.extra[key]
}

// WithRootURL returns a copy rooted at rootURL.
func (c *Client) WithRootURL(rootURL string) (*Client, error) {
	root, err := parseRoot(rootURL)
	if err != nil {
		return nil, err
	}

	clone := c.clone()
	clone.rootURL = root

	return clone, nil
}

// WithHeader returns a copy whose template sets the header.
func (c *Client) WithHeader(name, value string) *Client {
	clone := c.clone()
	clone.header.Set(name, value)

	return clone
}

// WithoutHeader returns a copy whose template drops the header.
func (c *Client) WithoutHeader(name string) *Client {
	clone := c.clone()
	clone.header.Del(name)

	return clone
}

// WithTransport returns a copy sending through transport.
func (c *Client) WithTransport(transport Transport) *Client {
	clone := c.clone()
	clone.transport = transport

	return clone
}

// WithExtra returns a copy carrying a caller value under key.
func (c *Client) WithExtra(key string, value interface{}) *Client {
	clone := c.clone()
	if clone.extra == nil {
		clone.extra = make(map[string]interface{})
	}

	clone.extra[key] = value

	return clone
}

// clone copies the configuration. The last response is not carried over.
func (c *Client) clone() *Client {
	clone := &Client{
		header:    c.header.Clone(),
		transport: c.transport,
		cache:     c.cache,
		cacheTTL:  c.cacheTTL,
		defaults:  c.defaults,
		observers: append(Observers(nil), c.observers...),
		logger:    c.logger,
		extra:     maps.Clone(c.extra),
	}

	if c.rootURL != nil {
		root := *c.rootURL
		clone.rootURL = &root
	}

	return clone
}
