// Package repotest provides in-memory repositories for tests of the layers
// above the Postgres stores.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront-dev/storefront/internal/domain"
	"github.com/shopfront-dev/storefront/internal/repository"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// AdminRepository is an in-memory repository.AdminRepository. RunInTx
// serializes callers and rolls back on error, like the Postgres version.
type AdminRepository struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	accounts map[string]domain.AdminAccount
	seq      int

	// Err, when set, is returned by every call.
	Err error
}

// NewAdminRepository returns an empty repository.
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{accounts: make(map[string]domain.AdminAccount)}
}

func (r *AdminRepository) FindByUsername(_ context.Context, username string) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, a := range r.accounts {
		if a.Username == username {
			cp := a
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("admin account", nil)
}

func (r *AdminRepository) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.NewNotFound("admin account", nil)
	}
	return &a, nil
}

func (r *AdminRepository) Insert(_ context.Context, username, passwordHash string, isSuperAdmin bool) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, a := range r.accounts {
		if a.Username == username {
			return nil, apperrors.NewDuplicateUsername()
		}
	}
	r.seq++
	account := domain.AdminAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		IsSuperAdmin: isSuperAdmin,
		CreatedAt:    time.Unix(int64(r.seq), 0).UTC(),
	}
	r.accounts[account.ID] = account
	return &account, nil
}

func (r *AdminRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.accounts[id]; !ok {
		return apperrors.NewNotFound("admin account", nil)
	}
	delete(r.accounts, id)
	return nil
}

func (r *AdminRepository) SetSuperAdmin(_ context.Context, id string, isSuperAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.NewNotFound("admin account", nil)
	}
	a.IsSuperAdmin = isSuperAdmin
	r.accounts[id] = a
	return nil
}

func (r *AdminRepository) CountSuperAdmins(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	count := 0
	for _, a := range r.accounts {
		if a.IsSuperAdmin {
			count++
		}
	}
	return count, nil
}

func (r *AdminRepository) ListAll(_ context.Context) ([]domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	result := make([]domain.AdminAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *AdminRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo repository.AdminRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[string]domain.AdminAccount, len(r.accounts))
	for k, v := range r.accounts {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := fn(ctx, txView{r}); err != nil {
		r.mu.Lock()
		r.accounts = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

// Len returns the number of stored accounts.
func (r *AdminRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// txView is the repository handed to RunInTx callbacks; nested RunInTx calls
// join the outer transaction.
type txView struct {
	*AdminRepository
}

func (v txView) RunInTx(ctx context.Context, fn func(ctx context.Context, repo repository.AdminRepository) error) error {
	return fn(ctx, v)
}

// SettingRepository is an in-memory repository.SettingRepository.
type SettingRepository struct {
	mu     sync.Mutex
	values map[string]string
	Err    error
}

// NewSettingRepository returns an empty repository.
func NewSettingRepository() *SettingRepository {
	return &SettingRepository{values: make(map[string]string)}
}

func (r *SettingRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", false, r.Err
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *SettingRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.values[key] = value
	return nil
}

func (r *SettingRepository) SetIfAbsent(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.values[key]; !ok {
		r.values[key] = value
	}
	return nil
}

// ProductRepository is an in-memory repository.ProductRepository.
type ProductRepository struct {
	mu       sync.Mutex
	products []domain.Product
	Err      error
}

// NewProductRepository returns an empty repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func (r *ProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	product.ID = uuid.NewString()
	product.CreatedAt = time.Now().UTC()
	r.products = append(r.products, *product)
	return nil
}

func (r *ProductRepository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]domain.Product{}, r.products...), nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for i, p := range r.products {
		if strings.EqualFold(p.ID, id) {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return &p, nil
		}
	}
	return nil, apperrors.NewNotFound("product", nil)
}

var (
	_ repository.AdminRepository   = (*AdminRepository)(nil)
	_ repository.SettingRepository = (*SettingRepository)(nil)
	_ repository.ProductRepository = (*ProductRepository)(nil)
)
