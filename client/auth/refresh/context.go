package refresh

import (
	"context"
	"net/http"
)

type contextKey string

const (
	skipKey    contextKey = "tokenrefreshSkip"
	retriedKey contextKey = "tokenrefreshRetried"
)

// WithSkip marks ctx so that requests carrying it bypass the refresh flow.
func WithSkip(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey, true)
}

// IsSkipped reports whether ctx opted out of the refresh flow.
func IsSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipKey).(bool)
	return skip
}

// IsRetried reports whether ctx belongs to a request already replayed after a refresh.
func IsRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey).(bool)
	return retried
}

// markRetried returns a deep copy of req carrying the retry marker.
func markRetried(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), retriedKey, true)
	return req.Clone(ctx)
}
