// Package session keeps the server-side registry of admin console sessions
// and implements the login/logout lifecycle on top of it.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/shopfront-dev/storefront/internal/domain"
)

const tokenBytes = 32

// ErrSessionNotFound is returned for unknown, expired or deleted tokens.
var ErrSessionNotFound = errors.New("session not found")

// Store is the session registry capability.
type Store interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
	// Replace overwrites a session that still exists. It returns
	// ErrSessionNotFound instead of recreating a deleted one.
	Replace(ctx context.Context, session *domain.Session, ttl time.Duration) error
	// Touch extends the lifetime of an existing session.
	Touch(ctx context.Context, token string, ttl time.Duration) error
	// DeleteByAccount terminates every session bound to accountID.
	DeleteByAccount(ctx context.Context, accountID string) error
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
