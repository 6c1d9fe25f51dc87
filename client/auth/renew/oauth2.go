package renew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/viant/tokenrefresh/client/auth/refresh"
	"golang.org/x/oauth2"
)

// ErrNoRefreshToken is returned when the OAuth2 refresh_token grant has nothing to redeem.
var ErrNoRefreshToken = errors.New("renew: refresh token is required")

type options struct {
	httpClient *http.Client
	retryMax   int
	logger     *slog.Logger
}

type Option func(*options)

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithRetryMax sets how many times a failed token request is retried.
func WithRetryMax(retryMax int) Option {
	return func(o *options) {
		o.retryMax = retryMax
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// OAuth2 returns a refresh function redeeming the refresh token at config's token endpoint.
// Transient token endpoint failures are retried; a response without a refresh
// token keeps the one that was redeemed.
func OAuth2(config *oauth2.Config, opts ...Option) refresh.RequestRefresh {
	o := &options{retryMax: 2}
	for _, opt := range opts {
		opt(o)
	}
	client := o.httpClient
	if client == nil {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = o.retryMax
		retryClient.RetryWaitMin = 100 * time.Millisecond
		retryClient.RetryWaitMax = time.Second
		retryClient.Logger = nil
		if o.logger != nil {
			retryClient.Logger = o.logger
		}
		client = retryClient.StandardClient()
	}
	return func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		if refreshToken == "" {
			return nil, ErrNoRefreshToken
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		token, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return nil, err
		}
		if token.RefreshToken == "" {
			token.RefreshToken = refreshToken
		}
		return token, nil
	}
}
