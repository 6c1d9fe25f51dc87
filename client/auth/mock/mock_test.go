package mock

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationService(t *testing.T) {
	server, err := NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	token, err := server.IssueToken()
	require.NoError(t, err)

	get := func(accessToken string) int {
		req, err := http.NewRequest(http.MethodGet, server.ResourceURL(), nil)
		require.NoError(t, err)
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusUnauthorized, get(""))
	assert.Equal(t, http.StatusOK, get(token.AccessToken))
	server.Invalidate()
	assert.Equal(t, http.StatusUnauthorized, get(token.AccessToken))

	refresh := func(refreshToken string) int {
		form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refreshToken}}
		req, err := http.NewRequest(http.MethodPost, server.Issuer+"/token", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(server.ClientID, server.ClientSecret)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, refresh(token.RefreshToken))
	assert.Equal(t, http.StatusBadRequest, refresh(token.RefreshToken), "rotated refresh token is single use")
	assert.Equal(t, 2, server.TokenCalls())
	assert.Equal(t, 3, server.ResourceCalls())
}
