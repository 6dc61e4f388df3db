package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// CookieSigner wraps opaque session tokens in an HS256-signed envelope so
// forged or tampered cookies are rejected before the session store is hit.
// Expiry is enforced by the store, not by the envelope.
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner builds a signer from the session secret.
func NewCookieSigner(secret string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret)}
}

// Sign returns the cookie value carrying sessionToken.
func (s *CookieSigner) Sign(sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", errors.New("empty session token")
	}
	claims := jwt.RegisteredClaims{
		ID:       sessionToken,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a cookie value and returns the session token inside it.
func (s *CookieSigner) Parse(value string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(value, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return "", errors.New("invalid session cookie")
	}
	return claims.ID, nil
}
