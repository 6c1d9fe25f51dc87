package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the appropriate mock endpoints.
type Handler struct {
	Server *AuthorizationService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/token":
		if h.Server.TokenHandler != nil {
			h.Server.TokenHandler(w, r)
		} else {
			h.Server.defaultTokenHandler(w, r)
		}
	case "/resource":
		if h.Server.ResourceHandler != nil {
			h.Server.ResourceHandler(w, r)
		} else {
			h.Server.defaultResourceHandler(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}
