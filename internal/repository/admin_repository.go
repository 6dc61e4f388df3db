package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopfront-dev/storefront/internal/domain"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// superAdminLockKey identifies the transaction-scoped advisory lock that
// serializes every decision depending on the super-admin count.
const superAdminLockKey int64 = 0x5f41444d494e

// AdminRepository is the credential store for admin accounts.
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.AdminAccount, error)
	GetByID(ctx context.Context, id string) (*domain.AdminAccount, error)
	Insert(ctx context.Context, username, passwordHash string, isSuperAdmin bool) (*domain.AdminAccount, error)
	Delete(ctx context.Context, id string) error
	SetSuperAdmin(ctx context.Context, id string, isSuperAdmin bool) error
	CountSuperAdmins(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]domain.AdminAccount, error)
	// RunInTx runs fn against a repository bound to a single transaction that
	// holds the super-admin lock until commit or rollback.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo AdminRepository) error) error
}

type adminRepository struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewAdminRepository returns a Postgres-backed implementation.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool, q: pool}
}

const adminColumns = `id::text, username, password_hash, is_super_admin, created_at`

func scanAdmin(row pgx.Row) (*domain.AdminAccount, error) {
	var account domain.AdminAccount
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.IsSuperAdmin,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin account", nil)
		}
		return nil, err
	}
	return &account, nil
}

func (r *adminRepository) FindByUsername(ctx context.Context, username string) (*domain.AdminAccount, error) {
	const query = `SELECT ` + adminColumns + ` FROM admin_accounts WHERE username=$1`
	return scanAdmin(r.q.QueryRow(ctx, query, username))
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.AdminAccount, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("admin account", nil)
	}
	const query = `SELECT ` + adminColumns + ` FROM admin_accounts WHERE id=$1`
	return scanAdmin(r.q.QueryRow(ctx, query, id))
}

func (r *adminRepository) Insert(ctx context.Context, username, passwordHash string, isSuperAdmin bool) (*domain.AdminAccount, error) {
	const query = `
        INSERT INTO admin_accounts (username, password_hash, is_super_admin)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at`

	account := &domain.AdminAccount{
		Username:     username,
		PasswordHash: passwordHash,
		IsSuperAdmin: isSuperAdmin,
	}
	if err := r.q.QueryRow(ctx, query, username, passwordHash, isSuperAdmin).Scan(&account.ID, &account.CreatedAt); err != nil {
		if isUniqueViolation(err, "admin_accounts_username_key") {
			return nil, apperrors.NewDuplicateUsername()
		}
		return nil, err
	}
	return account, nil
}

func (r *adminRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("admin account", nil)
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM admin_accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("admin account", nil)
	}
	return nil
}

func (r *adminRepository) SetSuperAdmin(ctx context.Context, id string, isSuperAdmin bool) error {
	if !validID(id) {
		return apperrors.NewNotFound("admin account", nil)
	}
	cmd, err := r.q.Exec(ctx, `UPDATE admin_accounts SET is_super_admin=$1 WHERE id=$2`, isSuperAdmin, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("admin account", nil)
	}
	return nil
}

func (r *adminRepository) CountSuperAdmins(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM admin_accounts WHERE is_super_admin`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *adminRepository) ListAll(ctx context.Context) ([]domain.AdminAccount, error) {
	const query = `SELECT ` + adminColumns + ` FROM admin_accounts ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.AdminAccount, 0)
	for rows.Next() {
		var account domain.AdminAccount
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.PasswordHash,
			&account.IsSuperAdmin,
			&account.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func (r *adminRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo AdminRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, superAdminLockKey); err != nil {
			return err
		}
		return fn(ctx, &adminRepository{pool: r.pool, q: tx, inTx: true})
	})
}
