package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// defaultResourceHandler simulates a protected resource at /resource
func (m *AuthorizationService) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.resourceCalls, 1)
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s"`, m.Issuer))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		http.Error(w, "Invalid authorization header", http.StatusBadRequest)
		return
	}
	if err := m.validateAccessToken(parts[1]); err != nil {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="invalid_token"`, m.Issuer))
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "This is a protected resource"})
}
