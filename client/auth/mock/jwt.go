package mock

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// Mint creates a signed JWT for subject with the given type and time to live.
// A negative ttl yields an already expired token.
func (m *Service) Mint(subject, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"iss": m.Issuer,
		"sub": subject,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"jti": m.nextID(),
		"typ": tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.PrivateKey)
}

// IssueTokens mints a fresh access/refresh pair for subject.
func (m *Service) IssueTokens(subject string) (*Tokens, error) {
	access, err := m.Mint(subject, AccessTokenType, m.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.Mint(subject, RefreshTokenType, m.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify validates signature, expiry and type of a token and returns its subject.
func (m *Service) Verify(raw, tokenType string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &m.PrivateKey.PublicKey, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(m.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return "", fmt.Errorf("expected %v token, got %v", tokenType, claims["typ"])
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if m.isRevoked(raw) {
		return "", fmt.Errorf("token revoked")
	}
	return subject, nil
}
