package refresh

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingRefreshToken is returned when a refresh token is required but none is available.
	ErrMissingRefreshToken = errors.New("refresh: no refresh token available")
	// ErrEmptyToken is returned when the renewal succeeded without an access token.
	ErrEmptyToken = errors.New("refresh: renewal returned an empty access token")
	// ErrRefreshAborted is returned when a collaborator panicked during a refresh.
	ErrRefreshAborted = errors.New("refresh: refresh aborted")
)

// TimeoutError is returned when the renewal outlives the configured refresh timeout.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("refresh: token refresh timed out after %dms", e.Duration.Milliseconds())
}

// Timeout reports true, matching the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// LockError wraps a failure to acquire the cross-context refresh lock.
type LockError struct {
	Name string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("refresh: failed to acquire lock %q: %v", e.Name, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}
