package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/tokenrefresh/client/auth/lock"
	"github.com/viant/tokenrefresh/client/auth/refresh"
	"github.com/viant/tokenrefresh/client/auth/store"
)

type Option func(*RoundTripper)

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithStore wires a credential store: the refresh token is read from it, renewed
// credentials are saved to it and, unless a header handler is set, the stored
// access token is attached to outgoing requests.
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithRequestRefresh sets the renewal function; it is required.
func WithRequestRefresh(fn refresh.RequestRefresh) Option {
	return func(t *RoundTripper) {
		t.config.RequestRefresh = fn
	}
}

func WithRefreshTokenGetter(fn refresh.TokenGetter) Option {
	return func(t *RoundTripper) {
		t.config.GetRefreshToken = fn
	}
}

// WithRefreshTokenRequired fails the refresh when no refresh token is available.
func WithRefreshTokenRequired(required bool) Option {
	return func(t *RoundTripper) {
		t.config.RefreshTokenRequired = required
	}
}

func WithOnSuccess(fn refresh.SuccessHandler) Option {
	return func(t *RoundTripper) {
		t.config.OnSuccess = fn
	}
}

func WithOnFailure(fn refresh.FailureHandler) Option {
	return func(t *RoundTripper) {
		t.config.OnFailure = fn
	}
}

// WithTokenAttacher replaces the default Authorization bearer header.
func WithTokenAttacher(fn refresh.TokenAttacher) Option {
	return func(t *RoundTripper) {
		t.config.AttachToken = fn
	}
}

// WithTokenExtractor sets how the credential a request carries is read back;
// by default it is derived from the token attacher.
func WithTokenExtractor(fn refresh.TokenExtractor) Option {
	return func(t *RoundTripper) {
		t.config.ExtractToken = fn
	}
}

// WithHeaderTokenHandler sets a hook called before every attempt, replays included.
func WithHeaderTokenHandler(fn HeaderTokenHandler) Option {
	return func(t *RoundTripper) {
		t.headerTokenHandler = fn
	}
}

func WithTokenValidator(fn refresh.TokenValidator) Option {
	return func(t *RoundTripper) {
		t.config.CheckTokenIsValid = fn
	}
}

// WithStatusCodes sets the response statuses that trigger a refresh.
func WithStatusCodes(codes ...int) Option {
	return func(t *RoundTripper) {
		t.config.StatusCodes = codes
	}
}

func WithRefreshTimeout(timeout time.Duration) Option {
	return func(t *RoundTripper) {
		t.config.RefreshTimeout = timeout
	}
}

func WithDebug(debug bool) Option {
	return func(t *RoundTripper) {
		t.config.Debug = debug
	}
}

// WithLocker serializes refreshes across clients sharing locker under name.
func WithLocker(locker lock.Locker, name string) Option {
	return func(t *RoundTripper) {
		t.config.Locker = locker
		t.config.LockName = name
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *RoundTripper) {
		t.config.Logger = logger
	}
}
