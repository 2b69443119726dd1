package halclient

import (
	"maps"
	"net/http"
	"net/url"
)

// Options are per-call request settings. A nil pointer field means "not
// set" and falls back to the client defaults.
type Options struct {
	// Query is merged over the query string of the request URI.
	Query url.Values

	// RawQuery is an encoded query string merged before Query.
	RawQuery string

	// Headers are set over the client's header template.
	Headers http.Header

	// Body is sent as is for []byte, string and io.Reader values. Any other
	// value is encoded as JSON.
	Body interface{}

	AddRequestID    *bool
	AddRequestDepth *bool
	AddRequestTime  *bool

	// RequestName is sent as X-Request-Name.
	RequestName string

	// HTTPErrors turns statuses outside [200,400) into errors. Default true.
	HTTPErrors *bool

	// Allow5xx lets 5xx responses through when HTTPErrors is off.
	Allow5xx *bool

	// Exception5xx builds the error for 5xx responses that are not allowed.
	Exception5xx ErrorFactory

	// ExceptionStatusCodes maps statuses to the error built for them.
	ExceptionStatusCodes map[int]ErrorFactory

	// RawResponse skips body parsing and yields an empty resource.
	RawResponse *bool

	Transport *TransportOptions
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// MergeOptions layers call over defaults. Scalars from call win when set.
// Query values, headers and status factories merge per key with call
// winning on conflicts. Neither argument is modified.
func MergeOptions(defaults, call *Options) *Options {
	merged := &Options{}
	if defaults != nil {
		*merged = *defaults
		merged.Query = cloneValues(defaults.Query)
		merged.Headers = defaults.Headers.Clone()
		merged.ExceptionStatusCodes = maps.Clone(defaults.ExceptionStatusCodes)
	}

	if call == nil {
		return merged
	}

	merged.Query = mergeValues(merged.Query, call.Query)
	merged.Headers = mergeHeaders(merged.Headers, call.Headers)

	if call.ExceptionStatusCodes != nil {
		if merged.ExceptionStatusCodes == nil {
			merged.ExceptionStatusCodes = make(map[int]ErrorFactory, len(call.ExceptionStatusCodes))
		}

		maps.Copy(merged.ExceptionStatusCodes, call.ExceptionStatusCodes)
	}

	if call.RawQuery != "" {
		merged.RawQuery = call.RawQuery
	}

	if call.Body != nil {
		merged.Body = call.Body
	}

	if call.RequestName != "" {
		merged.RequestName = call.RequestName
	}

	if call.Exception5xx != nil {
		merged.Exception5xx = call.Exception5xx
	}

	if call.Transport != nil {
		merged.Transport = call.Transport
	}

	merged.AddRequestID = pick(merged.AddRequestID, call.AddRequestID)
	merged.AddRequestDepth = pick(merged.AddRequestDepth, call.AddRequestDepth)
	merged.AddRequestTime = pick(merged.AddRequestTime, call.AddRequestTime)
	merged.HTTPErrors = pick(merged.HTTPErrors, call.HTTPErrors)
	merged.Allow5xx = pick(merged.Allow5xx, call.Allow5xx)
	merged.RawResponse = pick(merged.RawResponse, call.RawResponse)

	return merged
}

func (o *Options) httpErrors() bool {
	return o.HTTPErrors == nil || *o.HTTPErrors
}

func (o *Options) transportOptions() TransportOptions {
	if o.Transport == nil {
		return TransportOptions{}
	}

	return *o.Transport
}

func pick(base, override *bool) *bool {
	if override != nil {
		return override
	}

	return base
}

func isSet(v *bool) bool {
	return v != nil && *v
}

func cloneValues(values url.Values) url.Values {
	if values == nil {
		return nil
	}

	out := make(url.Values, len(values))
	for key, vals := range values {
		out[key] = append([]string(nil), vals...)
	}

	return out
}

func mergeValues(base, override url.Values) url.Values {
	if len(override) == 0 {
		return base
	}

	if base == nil {
		base = make(url.Values, len(override))
	}

	for key, vals := range override {
		base[key] = append([]string(nil), vals...)
	}

	return base
}

func mergeHeaders(base, override http.Header) http.Header {
	if len(override) == 0 {
		return base
	}

	if base == nil {
		base = make(http.Header, len(override))
	}

	for key, vals := range override {
		base[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}

	return base
}
