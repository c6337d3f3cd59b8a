package repository

import (
	"context"

	"accounts-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	db *pgxpool.Pool
}

func NewAuditRepo(db *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) CreateVisit(ctx context.Context, v *domain.VisitRecord) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO user_visits (id, user_id, url, referer, user_agent)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, v.ID, v.UserID, v.URL, v.Referer, v.UserAgent).Scan(&v.Timestamp)
}

func (r *AuditRepo) CreateLoginAttempt(ctx context.Context, a *domain.LoginAttempt) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO login_attempts (id, user_id, ip_address, user_agent, successful, location)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, a.ID, a.UserID, a.IPAddress, a.UserAgent, a.Successful, a.Location).Scan(&a.Timestamp)
}

func (r *AuditRepo) ListVisits(ctx context.Context, userID string, limit int) ([]*domain.VisitRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, url, referer, user_agent, created_at
		FROM user_visits
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*domain.VisitRecord
	for rows.Next() {
		v := new(domain.VisitRecord)
		if err := rows.Scan(&v.ID, &v.UserID, &v.URL, &v.Referer, &v.UserAgent, &v.Timestamp); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *AuditRepo) ListLoginAttempts(ctx context.Context, userID string, limit int) ([]*domain.LoginAttempt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, ip_address, user_agent, successful, location, created_at
		FROM login_attempts
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*domain.LoginAttempt
	for rows.Next() {
		a := new(domain.LoginAttempt)
		if err := rows.Scan(&a.ID, &a.UserID, &a.IPAddress, &a.UserAgent, &a.Successful, &a.Location, &a.Timestamp); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
