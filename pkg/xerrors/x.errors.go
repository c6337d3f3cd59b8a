package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Registration / Login
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrEmailRequired      = errors.New("email required")
	ErrPasswordRequired   = errors.New("password required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailAlreadyInUse  = errors.New("Email is already in use.")
	ErrInvalidEmailFormat = errors.New("Enter a valid email address.")
	ErrInvalidPhoneFormat = errors.New("Enter a valid phone number.")
)

// Password rules
var (
	ErrIncorrectPassword = errors.New("Incorrect password")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong   = errors.New("password must not exceed 100 characters")
	ErrPasswordUppercase = errors.New("password must include at least one uppercase letter")
	ErrPasswordLowercase = errors.New("password must include at least one lowercase letter")
	ErrPasswordDigit     = errors.New("password must include at least one digit")
)

// OTP
var (
	ErrInvalidOTPCode     = errors.New("invalid OTP code")
	ErrOTPCodeExhausted   = errors.New("could not allocate a unique OTP code")
	ErrTooManyOTPRequests = errors.New("too many OTP requests")
)

// ValidationError carries the offending field alongside the message so the
// HTTP layer can build its structured error payload.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// ParsePGErrorCode extracts the SQLSTATE from a pgx error chain.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}
