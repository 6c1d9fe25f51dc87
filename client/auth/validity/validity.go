// Package validity provides token validators that report a stored credential which
// is still usable, so a refresh can reuse a token renewed by another process.
package validity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/tokenrefresh/client/auth/refresh"
	"github.com/viant/tokenrefresh/client/auth/store"
	"golang.org/x/oauth2"
)

// DefaultLeeway is subtracted from a token lifetime before it is reported valid.
const DefaultLeeway = 30 * time.Second

type options struct {
	leeway time.Duration
	now    func() time.Time
}

type Option func(*options)

func WithLeeway(leeway time.Duration) Option {
	return func(o *options) {
		o.leeway = leeway
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) *options {
	ret := &options{leeway: DefaultLeeway, now: time.Now}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// JWT reports the stored access token while its exp claim lies beyond the leeway.
// The signature is not verified; the resource server remains the authority.
// Tokens that are not JWTs or carry no exp claim fall back to the stored expiry.
func JWT(s store.Store, opts ...Option) refresh.TokenValidator {
	o := newOptions(opts)
	parser := jwt.NewParser()
	return func(ctx context.Context) (string, error) {
		token, err := s.LookupToken(ctx)
		if err != nil || token == nil || token.AccessToken == "" {
			return "", err
		}
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(token.AccessToken, claims); err != nil {
			return fromExpiry(token, o), nil
		}
		expiry, err := claims.GetExpirationTime()
		if err != nil || expiry == nil {
			return fromExpiry(token, o), nil
		}
		if o.now().Add(o.leeway).Before(expiry.Time) {
			return token.AccessToken, nil
		}
		return "", nil
	}
}

// Expiry reports the stored access token while its recorded expiry lies beyond the leeway.
// A token without expiry is never reported valid.
func Expiry(s store.Store, opts ...Option) refresh.TokenValidator {
	o := newOptions(opts)
	return func(ctx context.Context) (string, error) {
		token, err := s.LookupToken(ctx)
		if err != nil || token == nil {
			return "", err
		}
		return fromExpiry(token, o), nil
	}
}

func fromExpiry(token *oauth2.Token, o *options) string {
	if token.AccessToken == "" || token.Expiry.IsZero() {
		return ""
	}
	if o.now().Add(o.leeway).Before(token.Expiry) {
		return token.AccessToken
	}
	return ""
}
