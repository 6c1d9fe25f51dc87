package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs/url"
	"golang.org/x/oauth2"
)

// AuthorizationService simulates an OAuth2 authorization server with one protected resource.
type AuthorizationService struct {
	PrivateKey   *rsa.PrivateKey
	Issuer       string
	ClientID     string
	ClientSecret string
	// AccessTokenTTL defaults to one hour.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// RotateRefreshToken issues a new refresh token with every refresh and revokes the presented one.
	RotateRefreshToken bool
	// TokenDelay delays every token response.
	TokenDelay      time.Duration
	TokenHandler    func(w http.ResponseWriter, r *http.Request)
	ResourceHandler func(w http.ResponseWriter, r *http.Request)

	mu            sync.Mutex
	generation    int64
	refreshTokens map[string]bool
	tokenCalls    int32
	resourceCalls int32
}

type Option func(*AuthorizationService)

func WithClientCredentials(clientID, clientSecret string) Option {
	return func(s *AuthorizationService) {
		s.ClientID = clientID
		s.ClientSecret = clientSecret
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *AuthorizationService) {
		s.AccessTokenTTL = ttl
	}
}

func WithRotateRefreshToken(rotate bool) Option {
	return func(s *AuthorizationService) {
		s.RotateRefreshToken = rotate
	}
}

func WithTokenDelay(delay time.Duration) Option {
	return func(s *AuthorizationService) {
		s.TokenDelay = delay
	}
}

// NewAuthorizationService creates a new mock OAuth2 authorization server
func NewAuthorizationService(opts ...Option) (*AuthorizationService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &AuthorizationService{
		PrivateKey:         privateKey,
		ClientID:           "test_client_id",
		ClientSecret:       "test_client_secret",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    24 * time.Hour,
		RotateRefreshToken: true,
		refreshTokens:      map[string]bool{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Config returns an OAuth2 client configuration targeting the service token endpoint.
func (m *AuthorizationService) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  url.Join(m.Issuer, "token"),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// IssueToken mints a credential pair without going through the token endpoint.
func (m *AuthorizationService) IssueToken() (*oauth2.Token, error) {
	return m.issue(m.ClientID, true)
}

// Invalidate makes every access token issued so far unacceptable to the resource.
func (m *AuthorizationService) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
}

// RevokeRefreshTokens rejects every refresh token issued so far.
func (m *AuthorizationService) RevokeRefreshTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTokens = map[string]bool{}
}

// TokenCalls returns the number of requests the token endpoint received.
func (m *AuthorizationService) TokenCalls() int {
	return int(atomic.LoadInt32(&m.tokenCalls))
}

// ResourceCalls returns the number of requests the protected resource received.
func (m *AuthorizationService) ResourceCalls() int {
	return int(atomic.LoadInt32(&m.resourceCalls))
}

func (m *AuthorizationService) currentGeneration() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (m *AuthorizationService) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Server: m})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *AuthorizationService) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}
