package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
)

func (r *Repo) userSelect() string {
	return fmt.Sprintf(`
		SELECT id, email, password_hash, name, phone, address, role, created_at, updated_at
		FROM %s`, r.qt(r.tables.User))
}

func (r *Repo) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, email, password_hash, name, phone, address, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, r.qt(r.tables.User)),
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Address, u.Role,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user already exists", domain.ErrConflict)
	}
	return err
}

func (r *Repo) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, r.userSelect()+` WHERE email = $1`, email)
}

func (r *Repo) UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, r.userSelect()+` WHERE id = $1`, id)
}

// UpdateProfile changes only the non-nil fields.
func (r *Repo) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error) {
	return r.scanUser(ctx, fmt.Sprintf(`
		UPDATE %s SET
		  name = COALESCE($2, name),
		  phone = COALESCE($3, phone),
		  address = COALESCE($4, address),
		  updated_at = now()
		WHERE id = $1
		RETURNING id, email, password_hash, name, phone, address, role, created_at, updated_at
	`, r.qt(r.tables.User)), id, upd.Name, upd.Phone, upd.Address)
}
