package repository

import (
	"context"
	"errors"
	"regexp"

	"accounts-service/internal/domain"
	"accounts-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var otpCodeRegex = regexp.MustCompile(`^\d{4}$`)

type OTPRepo struct {
	db *pgxpool.Pool
}

func NewOTPRepo(db *pgxpool.Pool) *OTPRepo {
	return &OTPRepo{db: db}
}

// Create persists a new active OTP. Every store goes through the same guard:
// an advisory lock serializes issuance per user, all other OTPs of the user
// are deactivated in the same transaction, and the code must be exactly four
// decimal digits. The global unique index on code backs collision detection;
// callers retry on xerrors.IsUniqueViolation.
func (r *OTPRepo) Create(ctx context.Context, o *domain.OTP) error {
	if !otpCodeRegex.MatchString(o.Code) {
		return xerrors.ErrInvalidOTPCode
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Without this, two transactions issuing for the same user can each see
	// zero active rows, skip the deactivation, and commit two active OTPs.
	// The lock is released at commit/rollback.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, o.UserID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_otps SET is_active=FALSE, updated_at=NOW()
		WHERE user_id=$1 AND is_active=TRUE
	`, o.UserID)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO user_otps (id, user_id, code, is_active)
		VALUES ($1,$2,$3,TRUE)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.Code).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	o.Active = true

	return tx.Commit(ctx)
}

// GetLatestActive returns the most recently created active OTP for the user,
// or nil when none exists.
func (r *OTPRepo) GetLatestActive(ctx context.Context, userID string) (*domain.OTP, error) {
	o := new(domain.OTP)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, code, is_active, created_at, updated_at
		FROM user_otps
		WHERE user_id=$1 AND is_active=TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&o.ID, &o.UserID, &o.Code, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OTPRepo) Deactivate(ctx context.Context, otpID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_otps SET is_active=FALSE, updated_at=NOW() WHERE id=$1
	`, otpID)
	return err
}

// CodeExists reports whether any OTP row, active or not, already carries the
// code. Issue uses it to pre-screen candidates before hitting the unique index.
func (r *OTPRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_otps WHERE code=$1)
	`, code).Scan(&exists)
	return exists, err
}
