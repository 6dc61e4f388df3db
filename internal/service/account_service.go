package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/domain"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/repository"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

const maxUsernameLength = 64

// PasswordHasher produces password digests.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// AccountService manages the lifecycle of admin accounts and upholds the
// invariant that at least one super-admin exists.
type AccountService struct {
	accounts   repository.AdminRepository
	hasher     PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	AdminRepo  repository.AdminRepository
	Hasher     PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts:   deps.AdminRepo,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateAccount adds a new admin. Usernames are unique and case-sensitive.
func (s *AccountService) CreateAccount(ctx context.Context, username, password string, isSuperAdmin bool) (*domain.AdminAccount, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByUsername(ctx, username); err == nil {
		return nil, apperrors.NewDuplicateUsername()
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account, err := s.accounts.Insert(ctx, username, hash, isSuperAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("admin account created",
		zap.String("account_id", account.ID),
		zap.Bool("super_admin", account.IsSuperAdmin))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventAccountCreated,
		Subject: account.ID,
		Payload: events.AccountCreatedPayload{
			Username:     account.Username,
			IsSuperAdmin: account.IsSuperAdmin,
		},
	})
	return account, nil
}

// DeleteAccount removes an admin. Removing the only remaining super-admin is
// refused with ErrCannotDeleteLastSuperAdmin and leaves the store untouched.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	var deleted *domain.AdminAccount
	err := s.accounts.RunInTx(ctx, func(ctx context.Context, repo repository.AdminRepository) error {
		target, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if target.IsSuperAdmin {
			count, err := repo.CountSuperAdmins(ctx)
			if err != nil {
				return err
			}
			if count <= 1 {
				return apperrors.NewCannotDeleteLastSuperAdmin()
			}
		}
		if err := repo.Delete(ctx, target.ID); err != nil {
			return err
		}
		deleted = target
		return nil
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("admin account deleted", zap.String("account_id", deleted.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventAccountDeleted,
		Subject: deleted.ID,
		Payload: events.AccountDeletedPayload{
			Username:      deleted.Username,
			WasSuperAdmin: deleted.IsSuperAdmin,
		},
	})
	return nil
}

// ListAccounts returns every admin in creation order.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.AdminAccount, error) {
	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return accounts, nil
}

// EnsureSuperAdmin makes sure at least one super-admin exists. When none does,
// the account named username is promoted, or created with password if it is
// missing. Existing rows are never removed or rewritten otherwise, so calling
// it on every startup is safe. The returned bool reports whether anything
// changed.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context, username, password string) (bool, error) {
	changed := false
	err := s.accounts.RunInTx(ctx, func(ctx context.Context, repo repository.AdminRepository) error {
		count, err := repo.CountSuperAdmins(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		name := strings.TrimSpace(username)
		if name == "" {
			return apperrors.NewValidationError("no super admin exists and no bootstrap username is configured", nil)
		}

		existing, err := repo.FindByUsername(ctx, name)
		switch {
		case err == nil:
			if err := repo.SetSuperAdmin(ctx, existing.ID, true); err != nil {
				return err
			}
			s.logger.Info("promoted existing account to super admin", zap.String("account_id", existing.ID))
		case errors.Is(err, apperrors.ErrNotFound):
			if _, err := validateCredentials(name, password); err != nil {
				return apperrors.NewValidationError("no super admin exists and no bootstrap password is configured", nil)
			}
			hash, err := s.hasher.Hash(password)
			if err != nil {
				return apperrors.NewInternalError(err)
			}
			account, err := repo.Insert(ctx, name, hash, true)
			if err != nil {
				return err
			}
			s.logger.Info("seeded super admin", zap.String("account_id", account.ID))
		default:
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return changed, nil
}

// PromoteToSuperAdmin grants the super-admin role to an existing account.
// It is a maintenance operation and is not exposed over HTTP.
func (s *AccountService) PromoteToSuperAdmin(ctx context.Context, username string) (*domain.AdminAccount, error) {
	account, err := s.accounts.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if account.IsSuperAdmin {
		return account, nil
	}
	if err := s.accounts.SetSuperAdmin(ctx, account.ID, true); err != nil {
		return nil, apperrors.MapError(err)
	}
	account.IsSuperAdmin = true
	s.logger.Info("promoted account to super admin", zap.String("account_id", account.ID))
	return account, nil
}

func validateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	details := map[string]any{}
	if username == "" {
		details["username"] = "required"
	} else if utf8.RuneCountInString(username) > maxUsernameLength {
		details["username"] = "too long"
	}
	if password == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return "", apperrors.NewValidationError("invalid account data", details)
	}
	return username, nil
}
