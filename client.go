package tokenrefresh

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/scy/auth/authorizer"
	"github.com/viant/tokenrefresh/client/auth/lock"
	"github.com/viant/tokenrefresh/client/auth/renew"
	"github.com/viant/tokenrefresh/client/auth/store"
	"github.com/viant/tokenrefresh/client/auth/transport"
	"github.com/viant/tokenrefresh/client/auth/validity"
	"golang.org/x/oauth2"
)

// ClientOptions defines options for an OAuth2 refresh-token client.
type ClientOptions struct {
	TokenURL     string `yaml:"tokenURL" json:"tokenURL,omitempty" short:"t" long:"token-url" description:"oauth2 token endpoint"`
	ClientID     string `yaml:"clientID" json:"clientID,omitempty" short:"i" long:"client-id" description:"oauth2 client id" env:"TOKENREFRESH_CLIENT_ID"`
	ClientSecret string `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty" short:"s" long:"client-secret" description:"oauth2 client secret" env:"TOKENREFRESH_CLIENT_SECRET"`

	// OAuth2ConfigURL locates a scy oauth2 client config; explicit token URL and client fields override it.
	OAuth2ConfigURL string `yaml:"oauth2ConfigURL,omitempty" json:"oauth2ConfigURL,omitempty" long:"oauth2-config" description:"oauth2 client config URL"`
	EncryptionKey   string `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty" short:"k" long:"key" description:"key decrypting the oauth2 client config"`

	// RefreshToken seeds the store when it holds no credential yet.
	RefreshToken string `yaml:"refreshToken,omitempty" json:"refreshToken,omitempty" long:"refresh-token" description:"initial refresh token" env:"TOKENREFRESH_REFRESH_TOKEN"`
	StoreURL     string `yaml:"store,omitempty" json:"store,omitempty" short:"S" long:"store" description:"credential store URL, in memory when empty"`
	LockDir      string `yaml:"lockDir,omitempty" json:"lockDir,omitempty" short:"L" long:"lock-dir" description:"directory of the refresh lock shared between processes"`
	// RefreshTimeoutMs defaults to 30000.
	RefreshTimeoutMs int   `yaml:"refreshTimeoutMs,omitempty" json:"refreshTimeoutMs,omitempty" long:"refresh-timeout" description:"token refresh timeout in ms"`
	StatusCodes      []int `yaml:"statusCodes,omitempty" json:"statusCodes,omitempty" long:"status" description:"response status triggering a refresh, repeatable"`
	LeewaySeconds    int   `yaml:"leewaySeconds,omitempty" json:"leewaySeconds,omitempty" long:"leeway" description:"seconds before expiry a stored token is treated as expired"`
	Debug            bool  `yaml:"debug,omitempty" json:"debug,omitempty" short:"d" long:"debug" description:"trace token refreshes"`

	// Store allows injecting a credential store shared with other clients.
	Store  store.Store  `yaml:"-" json:"-"`
	Logger *slog.Logger `yaml:"-" json:"-"`

	cachedRT         *transport.RoundTripper
	cachedHTTPClient *http.Client
}

func (c *ClientOptions) Init() {
	if c.RefreshTimeoutMs == 0 {
		c.RefreshTimeoutMs = int(30 * time.Second / time.Millisecond)
	}
	if c.LeewaySeconds == 0 {
		c.LeewaySeconds = int(validity.DefaultLeeway / time.Second)
	}
}

// NewClient creates an HTTP client whose requests are renewed and replayed on authorization failures.
func NewClient(options ...transport.Option) (*http.Client, error) {
	rt, err := transport.New(options...)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: rt}, nil
}

// HTTPClient returns an HTTP client redeeming the stored refresh token at TokenURL.
// The client is built once and reused.
func (c *ClientOptions) HTTPClient(options ...transport.Option) (*http.Client, error) {
	if c.cachedHTTPClient != nil {
		return c.cachedHTTPClient, nil
	}
	rt, err := c.Transport(options...)
	if err != nil {
		return nil, err
	}
	c.cachedRT = rt
	c.cachedHTTPClient = &http.Client{Transport: rt}
	return c.cachedHTTPClient, nil
}

// Transport builds the refreshing round tripper; options are applied after the derived ones.
func (c *ClientOptions) Transport(options ...transport.Option) (*transport.RoundTripper, error) {
	c.Init()
	ctx := context.Background()
	config, err := c.oauth2Config(ctx)
	if err != nil {
		return nil, err
	}
	authStore, err := c.authStore(ctx)
	if err != nil {
		return nil, err
	}
	var renewOptions []renew.Option
	if c.Logger != nil {
		renewOptions = append(renewOptions, renew.WithLogger(c.Logger))
	}
	transportOpts := []transport.Option{
		transport.WithStore(authStore),
		transport.WithRefreshTokenRequired(true),
		transport.WithRequestRefresh(renew.OAuth2(config, renewOptions...)),
		transport.WithTokenValidator(validity.JWT(authStore, validity.WithLeeway(time.Duration(c.LeewaySeconds)*time.Second))),
		transport.WithRefreshTimeout(time.Duration(c.RefreshTimeoutMs) * time.Millisecond),
		transport.WithStatusCodes(c.StatusCodes...),
		transport.WithDebug(c.Debug),
	}
	if c.LockDir != "" {
		transportOpts = append(transportOpts, transport.WithLocker(lock.NewFile(c.LockDir, lock.WithFileLogger(c.Logger)), c.lockName()))
	}
	if c.Logger != nil {
		transportOpts = append(transportOpts, transport.WithLogger(c.Logger))
	}
	return transport.New(append(transportOpts, options...)...)
}

func (c *ClientOptions) oauth2Config(ctx context.Context) (*oauth2.Config, error) {
	ret := &oauth2.Config{}
	if c.OAuth2ConfigURL != "" {
		configURL := c.OAuth2ConfigURL
		if c.EncryptionKey != "" {
			configURL += "|" + c.EncryptionKey
		}
		oAuthConfig := &authorizer.OAuthConfig{ConfigURL: configURL}
		if err := authorizer.New().EnsureConfig(ctx, oAuthConfig); err != nil {
			return nil, fmt.Errorf("failed to load oauth2 config %q: %w", c.OAuth2ConfigURL, err)
		}
		if oAuthConfig.Config != nil {
			*ret = *oAuthConfig.Config
		}
	}
	inheritString(&c.ClientID, ret.ClientID)
	inheritString(&c.ClientSecret, ret.ClientSecret)
	inheritString(&c.TokenURL, ret.Endpoint.TokenURL)
	ret.ClientID = c.ClientID
	ret.ClientSecret = c.ClientSecret
	ret.Endpoint.TokenURL = c.TokenURL
	if ret.Endpoint.TokenURL == "" {
		return nil, fmt.Errorf("token URL is required")
	}
	return ret, nil
}

// AuthStore exposes the credential store used by the client, once built.
func (c *ClientOptions) AuthStore() store.Store {
	if c.cachedRT == nil {
		return nil
	}
	return c.cachedRT.Store()
}

func (c *ClientOptions) authStore(ctx context.Context) (store.Store, error) {
	ret := c.Store
	if ret == nil {
		if c.StoreURL != "" {
			ret = store.NewFileStore(c.StoreURL)
		} else {
			ret = store.NewMemoryStore()
		}
	}
	if c.RefreshToken == "" {
		return ret, nil
	}
	existing, err := ret.LookupToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}
	if existing == nil || existing.RefreshToken == "" {
		if err = ret.AddToken(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}); err != nil {
			return nil, fmt.Errorf("failed to seed refresh token: %w", err)
		}
	}
	return ret, nil
}

func (c *ClientOptions) lockName() string {
	return "tokenrefresh_" + c.ClientID
}

// Inherit fills unset options from other, typically loaded from a config file.
func (c *ClientOptions) Inherit(other *ClientOptions) {
	if other == nil {
		return
	}
	inheritString(&c.TokenURL, other.TokenURL)
	inheritString(&c.ClientID, other.ClientID)
	inheritString(&c.ClientSecret, other.ClientSecret)
	inheritString(&c.OAuth2ConfigURL, other.OAuth2ConfigURL)
	inheritString(&c.EncryptionKey, other.EncryptionKey)
	inheritString(&c.RefreshToken, other.RefreshToken)
	inheritString(&c.StoreURL, other.StoreURL)
	inheritString(&c.LockDir, other.LockDir)
	if c.RefreshTimeoutMs == 0 {
		c.RefreshTimeoutMs = other.RefreshTimeoutMs
	}
	if c.LeewaySeconds == 0 {
		c.LeewaySeconds = other.LeewaySeconds
	}
	if len(c.StatusCodes) == 0 {
		c.StatusCodes = other.StatusCodes
	}
	c.Debug = c.Debug || other.Debug
}

func inheritString(dest *string, value string) {
	if *dest == "" {
		*dest = value
	}
}
