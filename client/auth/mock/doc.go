// Package mock provides an in-process OAuth2 authorization server and protected
// resource that facilitate testing of token refresh without network dependencies.
//
// Access and refresh tokens are RS256 JWTs signed with a generated key. Tests can
// invalidate every issued access token to provoke 401 responses, count calls to
// the token endpoint, and delay token responses to exercise timeouts.
package mock
