package repository

import (
	"context"
	"errors"

	"accounts-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, auth_token, ip_address, user_agent, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, s.ID, s.UserID, s.AuthToken, s.IPAddress, s.UserAgent, s.IsActive, s.ExpiresAt).Scan(&s.CreatedAt)
}

// GetActiveByToken returns the live session behind a token, nil when the
// token was logged out or the session expired.
func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	s := new(domain.Session)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, auth_token, ip_address, user_agent, is_active, created_at, expires_at
		FROM sessions
		WHERE auth_token=$1 AND is_active=TRUE AND expires_at > NOW()
	`, token).Scan(&s.ID, &s.UserID, &s.AuthToken, &s.IPAddress, &s.UserAgent,
		&s.IsActive, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions SET is_active=FALSE WHERE auth_token=$1
	`, token)
	return err
}
