package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and cache directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and cache files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries. Retries are
	// off unless configured.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// HTTP status boundaries.
const (
	// HTTPStatusOK is the lowest accepted status.
	HTTPStatusOK = 200

	// HTTPStatusBadRequest is the lowest client error status.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError is the lowest server error status.
	HTTPStatusInternalServerError = 500

	// HTTPStatusServerErrorMax is the highest server error status.
	HTTPStatusServerErrorMax = 599
)

// Correlation headers.
const (
	// HeaderRequestID carries the correlation ID.
	HeaderRequestID = "X-Request-Id"

	// HeaderRequestName carries a caller supplied request name.
	HeaderRequestName = "X-Request-Name"

	// HeaderRequestDepth counts nested calls.
	HeaderRequestDepth = "X-Request-Depth"

	// HeaderResponseTime carries the measured round trip in milliseconds.
	HeaderResponseTime = "X-Response-Time"
)

// Content negotiation.
const (
	// MediaTypeHAL is the HAL media type.
	MediaTypeHAL = "application/hal+json"

	// MediaTypeJSON is the plain JSON media type.
	MediaTypeJSON = "application/json"

	// MediaTypeVndError is the vnd.error media type.
	MediaTypeVndError = "application/vnd.error+json"
)

// Cache sizes and lifetimes.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCleanupInterval is how often the memory cache drops expired entries.
	DefaultCleanupInterval = 1 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// MaxCacheKeyLength is the longest file cache key kept verbatim.
	MaxCacheKeyLength = 200

	// DefaultNATSBucket is the default JetStream key-value bucket.
	DefaultNATSBucket = "hal-cache"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLength is the default length for truncating strings.
	StringTruncationLength = 80
)

// MinimumArgumentCount is the minimum number of command line arguments.
const MinimumArgumentCount = 2
