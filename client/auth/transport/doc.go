// Package transport implements an http.RoundTripper that renews credentials when a
// server rejects a request as unauthorized and replays the request with the renewed
// credential.
//
// Concurrent failures share a single renewal: the first failing request starts it
// and every other request failing meanwhile waits for its outcome. Each request is
// replayed at most once.
package transport
