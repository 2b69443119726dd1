package halclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID returns a context carrying id. Requests built with
// AddRequestID use it when they carry no X-Request-Id header yet.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)

	return id
}

// applyRequestID keeps an existing header, then falls back to the context
// ID and finally to a fresh UUID.
func applyRequestID(ctx context.Context, header http.Header) {
	if header.Get(constants.HeaderRequestID) != "" {
		return
	}

	id := RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	header.Set(constants.HeaderRequestID, id)
}

// incrementDepth adds one to X-Request-Depth. A missing or unparsable value
// counts as 0.
func incrementDepth(header http.Header) {
	depth, err := strconv.Atoi(strings.TrimSpace(header.Get(constants.HeaderRequestDepth)))
	if err != nil {
		depth = 0
	}

	header.Set(constants.HeaderRequestDepth, strconv.Itoa(depth+1))
}
