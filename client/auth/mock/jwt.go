package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// createJWT creates a signed JWT token for clientID with the given type and expiry
func (m *AuthorizationService) createJWT(clientID, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": m.Issuer,
		"sub": "test_subject",
		"aud": clientID,
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
		"typ": tokenType,
		"gen": m.currentGeneration(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.PrivateKey)
}

func (m *AuthorizationService) issue(clientID string, withRefresh bool) (*oauth2.Token, error) {
	accessToken, err := m.createJWT(clientID, "access_token", m.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	ret := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer", Expiry: time.Now().Add(m.AccessTokenTTL)}
	if !withRefresh {
		return ret, nil
	}
	if ret.RefreshToken, err = m.createJWT(clientID, "refresh_token", m.RefreshTokenTTL); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.refreshTokens[ret.RefreshToken] = true
	m.mu.Unlock()
	return ret, nil
}

// parse verifies signature, expiry and token type.
func (m *AuthorizationService) parse(raw, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return &m.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return nil, fmt.Errorf("unexpected token type: %v", claims["typ"])
	}
	return claims, nil
}

func (m *AuthorizationService) validateAccessToken(raw string) error {
	claims, err := m.parse(raw, "access_token")
	if err != nil {
		return err
	}
	generation, _ := claims["gen"].(float64)
	if int64(generation) != m.currentGeneration() {
		return errors.New("token was invalidated")
	}
	return nil
}

// redeem consumes a refresh token; rotated tokens can be redeemed once.
func (m *AuthorizationService) redeem(raw string) error {
	if _, err := m.parse(raw, "refresh_token"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.refreshTokens[raw] {
		return errors.New("unknown refresh token")
	}
	if m.RotateRefreshToken {
		delete(m.refreshTokens, raw)
	}
	return nil
}
