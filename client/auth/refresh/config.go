package refresh

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/viant/tokenrefresh/client/auth/lock"
	"golang.org/x/oauth2"
)

const (
	// DefaultRefreshTimeout bounds a single renewal call.
	DefaultRefreshTimeout = 30 * time.Second
	// DefaultLockName names the cross-context refresh lock.
	DefaultLockName = "tokenrefresh"
)

type (
	// RequestRefresh renews credentials; refreshToken is empty when none is available.
	RequestRefresh func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	// TokenGetter returns the current refresh token, or empty when absent.
	TokenGetter func(ctx context.Context) (string, error)

	// TokenValidator returns an access token that is already valid, e.g. renewed by
	// another process, or empty when a renewal is needed.
	TokenValidator func(ctx context.Context) (string, error)

	// SuccessHandler is called once per successful refresh, before queued requests are replayed.
	SuccessHandler func(ctx context.Context, token *oauth2.Token)

	// FailureHandler is called once per failed refresh, before queued requests are rejected.
	FailureHandler func(ctx context.Context, err error)
)

// Config holds the collaborators and settings of a Coordinator.
type Config struct {
	RequestRefresh       RequestRefresh
	GetRefreshToken      TokenGetter
	RefreshTokenRequired bool
	CheckTokenIsValid    TokenValidator
	OnSuccess            SuccessHandler
	OnFailure            FailureHandler
	AttachToken          TokenAttacher
	ExtractToken         TokenExtractor
	StatusCodes          []int
	RefreshTimeout       time.Duration
	Locker               lock.Locker
	LockName             string
	Debug                bool
	Logger               *slog.Logger
}

func (c *Config) init() {
	if c.GetRefreshToken == nil {
		c.GetRefreshToken = func(ctx context.Context) (string, error) { return "", nil }
	}
	if c.OnSuccess == nil {
		c.OnSuccess = func(ctx context.Context, token *oauth2.Token) {}
	}
	if c.OnFailure == nil {
		c.OnFailure = func(ctx context.Context, err error) {}
	}
	// the extractor follows the attacher so custom header layouts are recognized
	if c.ExtractToken == nil {
		if c.AttachToken == nil {
			c.ExtractToken = bearerToken
		} else {
			c.ExtractToken = ExtractorFor(c.AttachToken)
		}
	}
	if c.AttachToken == nil {
		c.AttachToken = AttachBearer
	}
	if len(c.StatusCodes) == 0 {
		c.StatusCodes = []int{401}
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = DefaultRefreshTimeout
	}
	if c.Locker == nil {
		c.Locker = lock.Nop{}
	}
	if c.LockName == "" {
		c.LockName = DefaultLockName
	}
	if c.Logger == nil {
		if c.Debug {
			c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			c.Logger = slog.Default()
		}
	}
}
