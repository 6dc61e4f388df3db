package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopfront-dev/storefront/internal/domain"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	List(ctx context.Context) ([]domain.Product, error)
	// Delete removes the product and returns the row as it was.
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository constructs repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (name, description, image_path)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.ImagePath,
	).Scan(&product.ID, &product.CreatedAt)
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
        SELECT id::text, name, description, image_path, created_at
        FROM products ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.ImagePath,
			&product.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, rows.Err()
}

func (r *productRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("product", nil)
	}
	const query = `
        DELETE FROM products WHERE id=$1
        RETURNING id::text, name, description, image_path, created_at`
	var product domain.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.ImagePath,
		&product.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, err
	}
	return &product, nil
}
