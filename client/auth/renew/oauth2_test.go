package renew

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tokenrefresh/client/auth/mock"
	"golang.org/x/oauth2"
)

func TestOAuth2(t *testing.T) {
	testCases := []struct {
		description string
		rotate      bool
	}{
		{description: "rotated refresh token", rotate: true},
		{description: "refresh token kept", rotate: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			server, err := mock.NewHTTPTestAuthorizationServer(mock.WithRotateRefreshToken(testCase.rotate))
			require.NoError(t, err)
			defer server.Close()
			seed, err := server.IssueToken()
			require.NoError(t, err)

			renewed, err := OAuth2(server.Config())(context.Background(), seed.RefreshToken)
			require.NoError(t, err)
			assert.NotEmpty(t, renewed.AccessToken)
			assert.NotEqual(t, seed.AccessToken, renewed.AccessToken)
			if testCase.rotate {
				assert.NotEqual(t, seed.RefreshToken, renewed.RefreshToken)
			} else {
				assert.Equal(t, seed.RefreshToken, renewed.RefreshToken)
			}
			assert.Equal(t, 1, server.TokenCalls())
		})
	}
}

func TestOAuth2_Errors(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	_, err = OAuth2(server.Config())(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, 0, server.TokenCalls())

	_, err = OAuth2(server.Config())(context.Background(), "not-a-token")
	var retrieveErr *oauth2.RetrieveError
	require.ErrorAs(t, err, &retrieveErr)
	assert.Equal(t, "invalid_grant", retrieveErr.ErrorCode)
}

func TestOAuth2_RetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"renewed","token_type":"Bearer","expires_in":60}`))
	}))
	defer server.Close()

	config := &oauth2.Config{ClientID: "id", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: server.URL, AuthStyle: oauth2.AuthStyleInHeader}}
	token, err := OAuth2(config)(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "renewed", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
