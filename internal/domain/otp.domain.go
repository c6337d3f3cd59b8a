package domain

import "time"

// OTP is a short-lived 4-digit verification code bound to a user. Codes are
// globally unique across all rows and at most one row per user is active.
// Rows are deactivated, never deleted.
type OTP struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"otp_code"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpiresAt is the moment the code stops validating: one hour past the last
// update, enforced lazily at validation time.
func (o *OTP) ExpiresAt(ttl time.Duration) time.Time {
	return o.UpdatedAt.Add(ttl)
}
