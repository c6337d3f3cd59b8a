package domain

import "time"

// User is the persisted identity. Email is the unique login identifier;
// accounts start inactive and are activated through OTP verification.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileSnapshot is what mutation endpoints return to the caller.
type ProfileSnapshot struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (u *User) Profile() ProfileSnapshot {
	return ProfileSnapshot{Email: u.Email, PhoneNumber: u.PhoneNumber}
}
