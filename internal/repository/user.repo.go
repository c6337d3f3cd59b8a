package repository

import (
	"context"
	"errors"

	"accounts-service/internal/domain"
	"accounts-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, phone_number, password_hash, is_active, is_staff, is_superuser)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.PhoneNumber, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return xerrors.ErrEmailAlreadyInUse
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, email, phone_number, password_hash, is_active, is_staff, is_superuser, created_at, updated_at
		FROM users WHERE id=$1
	`, userID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT id, email, phone_number, password_hash, is_active, is_staff, is_superuser, created_at, updated_at
		FROM users WHERE email=$1
	`, email))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	u := new(domain.User)
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
}

func (r *UserRepository) UpdateEmail(ctx context.Context, userID, email string) error {
	err := r.exec(ctx, `UPDATE users SET email=$2, updated_at=NOW() WHERE id=$1`, userID, email)
	if err != nil && xerrors.IsUniqueViolation(err) {
		return xerrors.ErrEmailAlreadyInUse
	}
	return err
}

func (r *UserRepository) UpdatePhone(ctx context.Context, userID, phone string) error {
	return r.exec(ctx, `UPDATE users SET phone_number=$2, updated_at=NOW() WHERE id=$1`, userID, phone)
}

func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active=$2, updated_at=NOW() WHERE id=$1`, userID, active)
}

// EmailInUseByOther reports whether another user already owns the address.
func (r *UserRepository) EmailInUseByOther(ctx context.Context, email, excludeUserID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email=$1 AND id<>$2)
	`, email, excludeUserID).Scan(&exists)
	return exists, err
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}
