package utils

import (
	"regexp"
	"strings"

	"accounts-service/pkg/xerrors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims surrounding whitespace and lowercases the domain
// part of the address. The local part is left untouched.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func ValidatePhone(phone string) bool {
	e164Regex := regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	return e164Regex.MatchString(phone)
}

var (
	upperRegex = regexp.MustCompile(`[A-Z]`)
	lowerRegex = regexp.MustCompile(`[a-z]`)
	digitRegex = regexp.MustCompile(`[0-9]`)
)

func ValidatePassword(password string) (bool, error) {
	if len(password) < 8 {
		return false, xerrors.ErrPasswordTooShort
	}
	if len(password) > 100 {
		return false, xerrors.ErrPasswordTooLong
	}
	if !upperRegex.MatchString(password) {
		return false, xerrors.ErrPasswordUppercase
	}
	if !lowerRegex.MatchString(password) {
		return false, xerrors.ErrPasswordLowercase
	}
	if !digitRegex.MatchString(password) {
		return false, xerrors.ErrPasswordDigit
	}
	return true, nil
}
