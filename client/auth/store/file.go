package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/viant/afs"
	"golang.org/x/oauth2"
)

// FileStore persists the credential pair as JSON at an afs URL (local path, mem://, or
// any registered storage), so independent processes observe each other's refreshes.
// Every lookup reads through to storage.
type FileStore struct {
	mu  sync.Mutex
	URL string
	fs  afs.Service
}

type FileStoreOption func(*FileStore)

// WithFileService sets the afs service used for storage access.
func WithFileService(fs afs.Service) FileStoreOption {
	return func(f *FileStore) {
		f.fs = fs
	}
}

type fileSnapshot struct {
	Token     *oauth2.Token `json:"token"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewFileStore creates a Store persisting credentials at URL.
func NewFileStore(URL string, options ...FileStoreOption) *FileStore {
	ret := &FileStore{URL: URL}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

func (f *FileStore) LookupToken(ctx context.Context) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check token file %s: %w", f.URL, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file %s: %w", f.URL, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", f.URL, err)
	}
	return snap.Token, nil
}

// AddToken writes to a temporary object first and moves it into place, so
// concurrent readers never observe a partial document.
func (f *FileStore) AddToken(ctx context.Context, token *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.MarshalIndent(fileSnapshot{Token: copyToken(token), UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.URL + ".tmp"
	if err = f.fs.Upload(ctx, tmp, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", tmp, err)
	}
	if err = f.fs.Move(ctx, tmp, f.URL); err != nil {
		return fmt.Errorf("failed to replace token file %s: %w", f.URL, err)
	}
	return nil
}

func (f *FileStore) ClearToken(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	if err = f.fs.Delete(ctx, f.URL); err != nil {
		return fmt.Errorf("failed to remove token file %s: %w", f.URL, err)
	}
	return nil
}
