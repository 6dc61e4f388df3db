package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingRepository is a string key/value store.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetIfAbsent(ctx context.Context, key, value string) error
}

type settingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository constructs repository.
func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	const query = `
        INSERT INTO settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

func (r *settingRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	const query = `INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}
