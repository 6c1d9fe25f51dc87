package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStores(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		description string
		newStore    func(t *testing.T) Store
	}{
		{description: "memory", newStore: func(t *testing.T) Store { return NewMemoryStore() }},
		{description: "file", newStore: func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "credentials", "token.json"))
		}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			s := testCase.newStore(t)
			token, err := s.LookupToken(ctx)
			require.NoError(t, err)
			assert.Nil(t, token)

			expiry := time.Now().Add(time.Hour).Truncate(time.Second)
			require.NoError(t, s.AddToken(ctx, &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}))
			token, err = s.LookupToken(ctx)
			require.NoError(t, err)
			require.NotNil(t, token)
			assert.Equal(t, "access", token.AccessToken)
			assert.Equal(t, "refresh", token.RefreshToken)
			assert.True(t, expiry.Equal(token.Expiry))

			require.NoError(t, s.AddToken(ctx, &oauth2.Token{AccessToken: "access-2"}))
			token, err = s.LookupToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "access-2", token.AccessToken)
			assert.Empty(t, token.RefreshToken)

			require.NoError(t, s.ClearToken(ctx))
			token, err = s.LookupToken(ctx)
			require.NoError(t, err)
			assert.Nil(t, token)
			require.NoError(t, s.ClearToken(ctx))
		})
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	seed := &oauth2.Token{AccessToken: "seed"}
	s := NewMemoryStore(WithToken(seed))
	seed.AccessToken = "mutated"
	token, err := s.LookupToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", token.AccessToken)
	token.AccessToken = "mutated"
	again, _ := s.LookupToken(ctx)
	assert.Equal(t, "seed", again.AccessToken)
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")
	writer, reader := NewFileStore(path), NewFileStore(path)
	require.NoError(t, writer.AddToken(ctx, &oauth2.Token{AccessToken: "from-writer", RefreshToken: "r"}))
	token, err := reader.LookupToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-writer", token.AccessToken)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).LookupToken(context.Background())
	assert.Error(t, err)
}
