package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tokenrefresh/client/auth/mock"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
urls:
  - http://localhost/a
  - http://localhost/b
concurrency: 2
tokenURL: http://localhost/token
clientID: from-config
refreshTimeoutMs: 5000
`), 0o600))
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("TOKENREFRESH_CLIENT_SECRET=from-env\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TOKENREFRESH_CLIENT_SECRET") })

	options, err := Load(context.Background(), []string{"-c", configPath, "-e", envPath, "--client-id", "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost/a", "http://localhost/b"}, options.URLs)
	assert.Equal(t, 2, options.Concurrency)
	assert.Equal(t, "http://localhost/token", options.TokenURL)
	assert.Equal(t, "from-flag", options.ClientID)
	assert.Equal(t, "from-env", options.ClientSecret)
	assert.Equal(t, 5000, options.RefreshTimeoutMs)
	assert.Equal(t, 30, options.LeewaySeconds)
}

func TestLoad_RequiresURL(t *testing.T) {
	_, err := Load(context.Background(), []string{"--token-url", "http://localhost/token"})
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()
	seed, err := server.IssueToken()
	require.NoError(t, err)

	args := []string{
		"--token-url", server.Issuer + "/token",
		"--client-id", server.ClientID,
		"--client-secret", server.ClientSecret,
		"--refresh-token", seed.RefreshToken,
		"--store", filepath.Join(t.TempDir(), "token.json"),
		"--lock-dir", t.TempDir(),
	}
	for i := 0; i < 6; i++ {
		args = append(args, "-u", fmt.Sprintf("%s?page=%d", server.ResourceURL(), i))
	}
	options, err := Load(context.Background(), args)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	service, err := New(options, out)
	require.NoError(t, err)
	require.NoError(t, service.Run(context.Background()))
	assert.Equal(t, 1, server.TokenCalls())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 6)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "200 "), line)
	}
}

func TestService_RunReportsFailures(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	options, err := Load(context.Background(), []string{
		"--token-url", server.Issuer + "/token",
		"--client-id", server.ClientID,
		"--client-secret", server.ClientSecret,
		"-u", server.ResourceURL(),
	})
	require.NoError(t, err)
	out := &bytes.Buffer{}
	service, err := New(options, out)
	require.NoError(t, err)

	err = service.Run(context.Background())
	assert.EqualError(t, err, "1 of 1 fetches failed")
	assert.Contains(t, out.String(), "ERR ")
	assert.Contains(t, out.String(), "refresh token")
	assert.Equal(t, 0, server.TokenCalls())
}
