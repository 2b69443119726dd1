package hal

import (
	"errors"
	"fmt"
	"net/http"
)

// Common static errors that can be wrapped with context.
var (
	// ErrInvalidArgument marks a caller contract violation: bad element name,
	// bad collection index or malformed link arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingElement marks a required element absent from a resource.
	ErrMissingElement = errors.New("missing element")

	// ErrCollision marks a name used both as a data element and an embedded relation.
	ErrCollision = errors.New("collision detected")
)

// Status code classes used by BadResponse.
const (
	statusClientErrorMin = 400
	statusServerErrorMin = 500
	statusServerErrorMax = 600
)

// BadResponse is returned when a response was obtained but its status was
// not accepted, or its body could not be read or parsed.
type BadResponse struct {
	Message  string
	Err      error
	response *http.Response
}

// NewBadResponse builds a BadResponse whose message is derived from the
// response status.
func NewBadResponse(resp *http.Response, cause error) *BadResponse {
	return NewBadResponseMessage(resp, "", cause)
}

// NewBadResponseMessage builds a BadResponse with an explicit message prefix.
// An empty prefix is replaced by the status class.
func NewBadResponseMessage(resp *http.Response, message string, cause error) *BadResponse {
	code := 0
	if resp != nil {
		code = resp.StatusCode
	}

	if message == "" {
		switch {
		case code >= statusClientErrorMin && code < statusServerErrorMin:
			message = "Client error"
		case code >= statusServerErrorMin && code < statusServerErrorMax:
			message = "Server error"
		default:
			message = "Unsuccessful response"
		}
	}

	return &BadResponse{
		Message:  fmt.Sprintf("%s [status code] %d [reason phrase] %s.", message, code, reasonPhrase(resp)),
		Err:      cause,
		response: resp,
	}
}

// newParseError builds a BadResponse for body read and decode failures. The
// message is kept verbatim.
func newParseError(resp *http.Response, message string, cause error) *BadResponse {
	return &BadResponse{Message: message, Err: cause, response: resp}
}

// Error implements the error interface.
func (e *BadResponse) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *BadResponse) Unwrap() error {
	return e.Err
}

// Response returns the response that triggered the error.
func (e *BadResponse) Response() *http.Response {
	return e.response
}

// StatusCode returns the status of the offending response, or 0.
func (e *BadResponse) StatusCode() int {
	if e.response == nil {
		return 0
	}

	return e.response.StatusCode
}

// IsClientError reports a 4xx status.
func (e *BadResponse) IsClientError() bool {
	code := e.StatusCode()

	return code >= statusClientErrorMin && code < statusServerErrorMin
}

// IsServerError reports a 5xx status.
func (e *BadResponse) IsServerError() bool {
	code := e.StatusCode()

	return code >= statusServerErrorMin && code < statusServerErrorMax
}

// IsBadResponse checks if an error is a BadResponse.
func IsBadResponse(err error) bool {
	var badResponse *BadResponse

	return errors.As(err, &badResponse)
}

func reasonPhrase(resp *http.Response) string {
	if resp == nil {
		return ""
	}

	return http.StatusText(resp.StatusCode)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
