package domain

import "time"

// Session tracks an issued login token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AuthToken string    `json:"auth_token"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
