package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenbasket/greenbasket/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	GetProfile(ctx context.Context, accountID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, accountID int64, name, phone string) error
	ListDrivers(ctx context.Context) ([]Profile, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile fetches one account's profile.
func (r *Repository) GetProfile(ctx context.Context, accountID int64) (*Profile, error) {
	const query = `
		SELECT id, email, name, COALESCE(phone, ''), role, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND is_active`
	var p Profile
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&p.ID, &p.Email, &p.Name, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, accountID int64, name, phone string) error {
	const query = `
		UPDATE accounts
		SET name = $2, phone = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND is_active`
	tag, err := r.pool.Exec(ctx, query, accountID, name, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListDrivers returns active driver accounts, for order assignment.
func (r *Repository) ListDrivers(ctx context.Context) ([]Profile, error) {
	const query = `
		SELECT id, email, name, COALESCE(phone, ''), role, created_at, updated_at
		FROM accounts
		WHERE role = $1 AND is_active
		ORDER BY name`
	rows, err := r.pool.Query(ctx, query, shared.RoleDriver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, p)
	}
	return drivers, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
