package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/viant/tokenrefresh/client/auth/refresh"
	"github.com/viant/tokenrefresh/client/auth/store"
	"golang.org/x/oauth2"
)

// HeaderTokenHandler prepares the credential headers of an outgoing attempt.
type HeaderTokenHandler func(req *http.Request) error

type RoundTripper struct {
	config             refresh.Config
	headerTokenHandler HeaderTokenHandler
	store              store.Store
	transport          http.RoundTripper
	coordinator        *refresh.Coordinator
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.config.RequestRefresh == nil {
		return nil, &ConfigError{Option: "RequestRefresh", Reason: "is required"}
	}
	if ret.transport == nil {
		return nil, &ConfigError{Option: "Transport", Reason: "must not be nil"}
	}
	if ret.store != nil {
		ret.useStore()
	}
	ret.coordinator = refresh.New(&ret.config)
	return ret, nil
}

// Store returns the configured credential store, or nil.
func (r *RoundTripper) Store() store.Store {
	return r.store
}

// Coordinator returns the refresh coordinator shared by all requests of this RoundTripper.
func (r *RoundTripper) Coordinator() *refresh.Coordinator {
	return r.coordinator
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt, err := clone(req)
	if err != nil {
		return nil, err
	}
	resp, err := r.send(attempt)
	if !r.coordinator.Matches(attempt, resp, err) {
		return resp, err
	}
	discard(resp)

	replay, err := r.coordinator.Await(attempt.Context(), attempt)
	if err != nil {
		return nil, err
	}
	// the replay carries the retry marker, so it cannot trigger another refresh
	return r.RoundTrip(replay)
}

func (r *RoundTripper) send(req *http.Request) (*http.Response, error) {
	if r.headerTokenHandler != nil {
		if err := r.headerTokenHandler(req); err != nil {
			return nil, fmt.Errorf("failed to set request token: %w", err)
		}
	}
	return r.transport.RoundTrip(req)
}

func (r *RoundTripper) useStore() {
	if r.config.GetRefreshToken == nil {
		r.config.GetRefreshToken = func(ctx context.Context) (string, error) {
			token, err := r.store.LookupToken(ctx)
			if err != nil || token == nil {
				return "", err
			}
			return token.RefreshToken, nil
		}
	}
	onSuccess := r.config.OnSuccess
	r.config.OnSuccess = func(ctx context.Context, token *oauth2.Token) {
		r.saveToken(ctx, token)
		if onSuccess != nil {
			onSuccess(ctx, token)
		}
	}
	if r.headerTokenHandler == nil {
		r.headerTokenHandler = r.storedTokenHandler
	}
}

// saveToken keeps the stored refresh token when the renewed credential carries none.
func (r *RoundTripper) saveToken(ctx context.Context, token *oauth2.Token) {
	if token.RefreshToken == "" {
		if previous, err := r.store.LookupToken(ctx); err == nil && previous != nil {
			merged := *token
			merged.RefreshToken = previous.RefreshToken
			token = &merged
		}
	}
	if err := r.store.AddToken(ctx, token); err != nil {
		r.config.Logger.Warn("tokenrefresh: failed to store renewed token", "error", err)
	}
}

// storedTokenHandler attaches the stored access token to first attempts without credentials.
// Replays already carry the renewed credential.
func (r *RoundTripper) storedTokenHandler(req *http.Request) error {
	if refresh.IsRetried(req.Context()) || req.Header.Get("Authorization") != "" || r.config.ExtractToken(req) != "" {
		return nil
	}
	token, err := r.store.LookupToken(req.Context())
	if err != nil {
		return err
	}
	if token != nil && token.AccessToken != "" {
		r.config.AttachToken(req, token.AccessToken)
	}
	return nil
}
