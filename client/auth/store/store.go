package store

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Store is a pluggable persistence layer for the credential pair.
// LookupToken returns nil without error when nothing is stored.
type Store interface {
	LookupToken(ctx context.Context) (*oauth2.Token, error)
	AddToken(ctx context.Context, token *oauth2.Token) error
	ClearToken(ctx context.Context) error
}

type MemoryStoreOption func(*memoryStore)

// WithToken seeds the store.
func WithToken(token *oauth2.Token) MemoryStoreOption {
	return func(m *memoryStore) {
		m.token = copyToken(token)
	}
}

type memoryStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

func (m *memoryStore) LookupToken(_ context.Context) (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyToken(m.token), nil
}

func (m *memoryStore) AddToken(_ context.Context, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = copyToken(token)
	return nil
}

func (m *memoryStore) ClearToken(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

func NewMemoryStore(options ...MemoryStoreOption) Store {
	ret := &memoryStore{}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// copyToken isolates stored tokens from caller mutation; extra fields are not retained.
func copyToken(token *oauth2.Token) *oauth2.Token {
	if token == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		ExpiresIn:    token.ExpiresIn,
	}
}
