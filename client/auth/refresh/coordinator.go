package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Coordinator is the refresh state machine of one client installation.
// At most one refresh runs at a time; every request that fails while it runs
// waits for its outcome.
type Coordinator struct {
	config     *Config
	classifier *Classifier
	logger     *slog.Logger

	mux        sync.Mutex
	refreshing bool
	queue      *Queue
}

// New creates a Coordinator; config defaults are applied in place.
func New(config *Config) *Coordinator {
	config.init()
	return &Coordinator{
		config:     config,
		classifier: NewClassifier(config.StatusCodes...),
		logger:     config.Logger,
		queue:      &Queue{},
	}
}

// Config returns the effective configuration.
func (c *Coordinator) Config() *Config {
	return c.config
}

// Matches reports whether the failed attempt should go through the refresh flow.
func (c *Coordinator) Matches(req *http.Request, resp *http.Response, err error) bool {
	return c.classifier.Matches(req, resp, err)
}

// Refreshing reports whether a refresh is in progress.
func (c *Coordinator) Refreshing() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.refreshing
}

// Await suspends req until the current refresh settles, starting one when idle.
// It returns a copy of req carrying the retry marker and the renewed credential,
// or the refresh failure. The caller owns req; it is cloned before queuing.
// Cancelling ctx abandons the wait but not the refresh.
func (c *Coordinator) Await(ctx context.Context, req *http.Request) (*http.Request, error) {
	entry := NewEntry(markRetried(req), c.config.ExtractToken(req))

	c.mux.Lock()
	if c.refreshing {
		c.queue.Enqueue(entry)
		pending := c.queue.Len()
		c.mux.Unlock()
		c.trace("joining refresh in progress", "url", req.URL.String(), "pending", pending)
	} else {
		c.refreshing = true
		c.queue.Enqueue(entry)
		queue := c.queue
		c.mux.Unlock()
		c.trace("starting refresh", "url", req.URL.String())
		go c.refresh(context.WithoutCancel(ctx), queue, entry.stale)
	}

	select {
	case outcome := <-entry.Done():
		return outcome.Request, outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs one refresh cycle and settles queue exactly once.
func (c *Coordinator) refresh(ctx context.Context, queue *Queue, stale string) {
	cycle := uuid.NewString()
	started := time.Now()
	var token *oauth2.Token
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRefreshAborted, r)
			c.logger.Error("tokenrefresh: refresh panicked", "cycle", cycle, "panic", r)
		}
		accessToken := ""
		if err == nil {
			accessToken = token.AccessToken
		}
		c.mux.Lock()
		c.refreshing = false
		c.queue = &Queue{}
		c.mux.Unlock()
		count := queue.Drain(accessToken, err, c.config.AttachToken)
		c.trace("refresh settled", "cycle", cycle, "drained", count, "elapsed", time.Since(started), "failed", err != nil)
	}()

	ran := false
	lockErr := c.config.Locker.Lock(ctx, c.config.LockName, func(ctx context.Context) error {
		ran = true
		token, err = c.obtain(ctx, cycle, stale)
		c.notify(ctx, token, err)
		return nil
	})
	if !ran && lockErr != nil {
		err = &LockError{Name: c.config.LockName, Err: lockErr}
		c.notify(ctx, nil, err)
	} else if lockErr != nil {
		c.logger.Warn("tokenrefresh: failed to release refresh lock", "lock", c.config.LockName, "error", lockErr)
	}
}

func (c *Coordinator) notify(ctx context.Context, token *oauth2.Token, err error) {
	if err != nil {
		c.logger.Warn("tokenrefresh: token refresh failed", "error", err)
		c.config.OnFailure(ctx, err)
		return
	}
	c.config.OnSuccess(ctx, token)
}

// obtain returns a usable credential: one already valid elsewhere, or a renewed one.
func (c *Coordinator) obtain(ctx context.Context, cycle, stale string) (*oauth2.Token, error) {
	if c.config.CheckTokenIsValid != nil {
		valid, err := c.config.CheckTokenIsValid(ctx)
		switch {
		case err != nil:
			c.logger.Warn("tokenrefresh: token validity check failed", "error", err)
		case valid != "" && valid == stale:
			c.trace("validity check returned the rejected token, renewing", "cycle", cycle)
		case valid != "":
			c.trace("reusing token renewed elsewhere", "cycle", cycle)
			refreshToken, _ := c.config.GetRefreshToken(ctx)
			return &oauth2.Token{AccessToken: valid, RefreshToken: refreshToken}, nil
		}
	}

	refreshToken, err := c.config.GetRefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if refreshToken == "" && c.config.RefreshTokenRequired {
		return nil, ErrMissingRefreshToken
	}
	c.trace("requesting token renewal", "cycle", cycle, "hasRefreshToken", refreshToken != "")
	return c.requestRefresh(ctx, refreshToken)
}

type renewal struct {
	token *oauth2.Token
	err   error
}

// requestRefresh races the renewal against the refresh timeout; a renewal that
// settles after the timer fired is discarded.
func (c *Coordinator) requestRefresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan renewal, 1)
	go func() {
		var result renewal
		defer func() {
			if r := recover(); r != nil {
				result = renewal{err: fmt.Errorf("%w: renewal panicked: %v", ErrRefreshAborted, r)}
			}
			results <- result
		}()
		result.token, result.err = c.config.RequestRefresh(ctx, refreshToken)
	}()

	timer := time.NewTimer(c.config.RefreshTimeout)
	defer timer.Stop()
	select {
	case result := <-results:
		if result.err != nil {
			return nil, result.err
		}
		if result.token == nil || result.token.AccessToken == "" {
			return nil, ErrEmptyToken
		}
		return result.token, nil
	case <-timer.C:
		return nil, &TimeoutError{Duration: c.config.RefreshTimeout}
	}
}

// trace logs at Debug, or at Info when the logger has Debug disabled.
func (c *Coordinator) trace(msg string, args ...any) {
	if !c.config.Debug {
		return
	}
	ctx := context.Background()
	level := slog.LevelDebug
	if !c.logger.Enabled(ctx, level) {
		level = slog.LevelInfo
	}
	c.logger.Log(ctx, level, "tokenrefresh: "+msg, args...)
}
