package mock

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeTokenError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(tokenError{Error: code, Description: description})
}

// defaultTokenHandler handles /token requests for the refresh_token grant
func (m *AuthorizationService) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.tokenCalls, 1)
	if m.TokenDelay > 0 {
		select {
		case <-time.After(m.TokenDelay):
		case <-r.Context().Done():
			return
		}
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_request", "invalid form data")
		return
	}
	if grantType := r.FormValue("grant_type"); grantType != "refresh_token" {
		writeTokenError(w, http.StatusBadRequest, "unsupported_grant_type", grantType)
		return
	}
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.FormValue("client_id")
		clientSecret = r.FormValue("client_secret")
	}
	if clientID != m.ClientID || clientSecret != m.ClientSecret {
		writeTokenError(w, http.StatusUnauthorized, "invalid_client", "invalid client credentials")
		return
	}
	if err := m.redeem(r.FormValue("refresh_token")); err != nil {
		writeTokenError(w, http.StatusBadRequest, "invalid_grant", err.Error())
		return
	}
	token, err := m.issue(clientID, m.RotateRefreshToken)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	response := map[string]interface{}{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   int(m.AccessTokenTTL.Seconds()),
	}
	if token.RefreshToken != "" {
		response["refresh_token"] = token.RefreshToken
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
