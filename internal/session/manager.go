package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/domain"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// AccountReader is the part of the credential store the manager needs.
type AccountReader interface {
	FindByUsername(ctx context.Context, username string) (*domain.AdminAccount, error)
	GetByID(ctx context.Context, id string) (*domain.AdminAccount, error)
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// Options tunes the manager.
type Options struct {
	TTL time.Duration
	// VerifyRolePerRequest re-reads the account on every resolve so that
	// deletions and role changes apply to live sessions immediately.
	VerifyRolePerRequest bool
}

// Manager owns the Anonymous -> Authenticated -> Terminated lifecycle.
type Manager struct {
	store      Store
	accounts   AccountReader
	hasher     PasswordHasher
	signer     *auth.CookieSigner
	ttl        time.Duration
	verifyRole bool
	dummyHash  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager wires the manager. It hashes a throwaway password once so that
// logins for unknown usernames cost the same as real ones.
func NewManager(store Store, accounts AccountReader, hasher PasswordHasher, signer *auth.CookieSigner, opts Options, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	dummy, err := hasher.Hash("storefront-dummy-password")
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:      store,
		accounts:   accounts,
		hasher:     hasher,
		signer:     signer,
		ttl:        ttl,
		verifyRole: opts.VerifyRolePerRequest,
		dummyHash:  dummy,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login verifies credentials and opens a session. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string) (*domain.Session, string, error) {
	if username == "" || password == "" {
		return nil, "", apperrors.NewInvalidCredentials()
	}

	account, err := m.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.hasher.Verify(password, m.dummyHash)
			m.logger.Debug("login rejected", zap.String("username", username))
			return nil, "", apperrors.NewInvalidCredentials()
		}
		return nil, "", apperrors.MapError(err)
	}
	if !m.hasher.Verify(password, account.PasswordHash) {
		m.logger.Debug("login rejected", zap.String("username", username))
		return nil, "", apperrors.NewInvalidCredentials()
	}

	token, err := newToken()
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	session := &domain.Session{
		Token:           token,
		AccountID:       account.ID,
		Username:        account.Username,
		IsAuthenticated: true,
		IsSuperAdmin:    account.IsSuperAdmin,
		CreatedAt:       m.now(),
	}
	if err := m.store.Put(ctx, session, m.ttl); err != nil {
		return nil, "", apperrors.NewStoreUnavailable(err)
	}

	cookie, err := m.signer.Sign(token)
	if err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, "", apperrors.NewInternalError(err)
	}

	m.logger.Info("admin logged in", zap.String("account_id", account.ID), zap.Bool("super_admin", account.IsSuperAdmin))
	return session, cookie, nil
}

// Logout terminates the session behind cookieValue. An invalid or unknown
// cookie is already anonymous and is not an error.
func (m *Manager) Logout(ctx context.Context, cookieValue string) error {
	token, err := m.signer.Parse(cookieValue)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

// Resolve maps a cookie value to its session. Anything that cannot be proven
// authenticated resolves to Anonymous.
func (m *Manager) Resolve(ctx context.Context, cookieValue string) (*domain.Session, domain.SessionState) {
	token, err := m.signer.Parse(cookieValue)
	if err != nil {
		return nil, domain.SessionAnonymous
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil, domain.SessionAnonymous
	}
	if !session.IsAuthenticated {
		return nil, domain.SessionAnonymous
	}

	if m.verifyRole {
		account, err := m.accounts.GetByID(ctx, session.AccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				_ = m.store.Delete(ctx, token)
				return nil, domain.SessionTerminated
			}
			m.logger.Warn("session account lookup failed", zap.Error(err))
			return nil, domain.SessionAnonymous
		}
		if account.IsSuperAdmin != session.IsSuperAdmin || account.Username != session.Username {
			session.IsSuperAdmin = account.IsSuperAdmin
			session.Username = account.Username
			if err := m.store.Replace(ctx, session, m.ttl); err != nil {
				if errors.Is(err, ErrSessionNotFound) {
					return nil, domain.SessionTerminated
				}
				m.logger.Warn("session claim refresh failed", zap.Error(err))
			}
			return session, domain.SessionAuthenticated
		}
	}

	if err := m.store.Touch(ctx, token, m.ttl); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, domain.SessionTerminated
		}
		m.logger.Warn("session touch failed", zap.Error(err))
	}
	session.ExpiresAt = m.now().Add(m.ttl)
	return session, domain.SessionAuthenticated
}

// RevokeAccount terminates every session of accountID.
func (m *Manager) RevokeAccount(ctx context.Context, accountID string) error {
	if err := m.store.DeleteByAccount(ctx, accountID); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	m.logger.Info("sessions revoked", zap.String("account_id", accountID))
	return nil
}
