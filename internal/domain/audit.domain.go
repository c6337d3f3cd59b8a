package domain

import "time"

// VisitRecord is one append-only page-visit entry. Records are immutable
// after creation and always listed newest first.
type VisitRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Referer   *string   `json:"referer,omitempty"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

// LoginAttempt is one append-only login-trail entry.
type LoginAttempt struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Successful bool      `json:"successful"`
	Location   *string   `json:"location,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
