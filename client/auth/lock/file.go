package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const (
	defaultStaleAfter   = 2 * time.Minute
	defaultWaitTimeout  = 2 * time.Minute
	defaultPollInterval = 250 * time.Millisecond
)

// File is a cross-process Locker backed by one exclusively created file per lock name.
// Waiters are woken by filesystem notifications, with polling as a fallback.
// A lock file older than the stale threshold is treated as abandoned and broken.
type File struct {
	dir          string
	staleAfter   time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

type FileOption func(*File)

// WithStaleAfter sets the age after which an existing lock file is considered abandoned.
func WithStaleAfter(d time.Duration) FileOption {
	return func(f *File) {
		f.staleAfter = d
	}
}

// WithWaitTimeout bounds how long Lock waits for a held lock.
func WithWaitTimeout(d time.Duration) FileOption {
	return func(f *File) {
		f.waitTimeout = d
	}
}

// WithPollInterval sets the fallback polling interval.
func WithPollInterval(d time.Duration) FileOption {
	return func(f *File) {
		f.pollInterval = d
	}
}

// WithFileLogger sets the logger; nil keeps the default.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

type holder struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// NewFile creates a file Locker keeping lock files in dir.
func NewFile(dir string, options ...FileOption) *File {
	ret := &File{
		dir:          dir,
		staleAfter:   defaultStaleAfter,
		waitTimeout:  defaultWaitTimeout,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (f *File) Lock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	path := f.path(name)
	owner := uuid.NewString()
	if err := f.acquire(ctx, path, owner); err != nil {
		return err
	}
	defer f.release(path, owner)
	return fn(ctx)
}

func (f *File) path(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return filepath.Join(f.dir, replacer.Replace(name)+".lock")
}

func (f *File) acquire(ctx context.Context, path, owner string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory %s: %w", f.dir, err)
	}
	if f.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.waitTimeout)
		defer cancel()
	}

	var watcher *fsnotify.Watcher
	defer func() {
		if watcher != nil {
			_ = watcher.Close()
		}
	}()
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := f.tryCreate(path, owner)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if f.breakStale(path) {
			continue
		}
		if watcher == nil {
			if watcher, err = fsnotify.NewWatcher(); err == nil {
				if err = watcher.Add(f.dir); err != nil {
					_ = watcher.Close()
					watcher = nil
				}
			}
			if err != nil {
				f.logger.Debug("lock: file notifications unavailable, polling", "dir", f.dir, "error", err)
			}
		}
		if err := f.wait(ctx, watcher, ticker, path); err != nil {
			return err
		}
	}
}

func (f *File) tryCreate(path, owner string) (bool, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create lock file %s: %w", path, err)
	}
	data, _ := json.Marshal(holder{Owner: owner, PID: os.Getpid(), AcquiredAt: time.Now()})
	_, err = file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	return true, nil
}

// breakStale removes path when it has not been touched for staleAfter.
func (f *File) breakStale(path string) bool {
	if f.staleAfter <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) < f.staleAfter {
		return false
	}
	observed, err := readHolder(path)
	if err != nil && !errors.Is(err, errCorruptHolder) {
		return false
	}
	if !f.reclaim(path, observed) {
		return false
	}
	f.logger.Warn("lock: broke stale lock", "path", path, "owner", observed.Owner, "age", time.Since(info.ModTime()))
	return true
}

// reclaim moves the lock file aside under a unique name and discards it only when it
// still belongs to observed; a lock taken in the meantime is linked back in place.
func (f *File) reclaim(path string, observed holder) bool {
	aside := fmt.Sprintf("%s.%s.stale", path, uuid.NewString())
	if err := os.Rename(path, aside); err != nil {
		return false
	}
	defer func() { _ = os.Remove(aside) }()
	current, err := readHolder(aside)
	if (err == nil || errors.Is(err, errCorruptHolder)) && current.Owner == observed.Owner {
		return true
	}
	if err := os.Link(aside, path); err != nil {
		f.logger.Warn("lock: failed to restore lock taken over while breaking a stale one", "path", path, "error", err)
	}
	return false
}

func (f *File) wait(ctx context.Context, watcher *fsnotify.Watcher, ticker *time.Ticker, path string) error {
	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrLockTimeout, path)
			}
			return ctx.Err()
		case <-ticker.C:
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) == path && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			f.logger.Debug("lock: watcher error", "error", err)
		}
	}
}

// release removes the lock file only while it still belongs to owner.
func (f *File) release(path, owner string) {
	current, err := readHolder(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil || current.Owner != owner {
		f.logger.Warn("lock: lock file taken over before release", "path", path)
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("lock: failed to remove lock file", "path", path, "error", err)
	}
}

var errCorruptHolder = errors.New("lock: corrupt lock file")

func readHolder(path string) (holder, error) {
	var ret holder
	data, err := os.ReadFile(path)
	if err != nil {
		return ret, err
	}
	if err = json.Unmarshal(data, &ret); err != nil {
		return ret, fmt.Errorf("%w %s: %v", errCorruptHolder, path, err)
	}
	return ret, nil
}
