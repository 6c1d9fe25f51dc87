package lock

import (
	"context"
	"errors"

	"github.com/viant/tokenrefresh/internal/collection"
)

// ErrLockTimeout is returned when a lock could not be acquired within the configured wait time.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Locker runs fn while holding the lock identified by name.
// Callers attempting the same name block until the holder releases it.
type Locker interface {
	Lock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Nop is a Locker that runs the critical section immediately.
type Nop struct{}

func (Nop) Lock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Local is an in-process Locker; instances sharing one Local are serialized per name.
type Local struct {
	locks *collection.SyncMap[string, chan struct{}]
}

func (l *Local) Lock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	sem := l.locks.GetOrPut(name, func() chan struct{} {
		return make(chan struct{}, 1)
	})
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()
	return fn(ctx)
}

// NewLocal creates an in-process Locker.
func NewLocal() *Local {
	return &Local{locks: collection.NewSyncMap[string, chan struct{}]()}
}
