// Package inputval validates user-supplied field values at the API boundary.
// Validators return error strings suitable for the response envelope's
// errors list.
package inputval

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 8
	MaxPasswordLen = 128
	MaxNameLen     = 120
	MaxTitleLen    = 200
	MaxBodyLen     = 5000
)

// IsValidEmail reports whether s is a plausible email address. It uses
// RFC 5322 parsing, rejects display-name forms, and additionally rejects
// leading, trailing, and consecutive dots that mail.ParseAddress tolerates
// in practice but real mail systems do not.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidUsername reports whether s is a lowercase alphanumeric username
// (hyphens and underscores allowed inside) of acceptable length.
func IsValidUsername(s string) bool {
	if len(s) < MinUsernameLen || len(s) > MaxUsernameLen {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
			if i == 0 || i == len(s)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// PasswordErrors returns the list of problems with a candidate password,
// empty when the password is acceptable.
func PasswordErrors(s string) []string {
	var errs []string
	if len(s) < MinPasswordLen {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if len(s) > MaxPasswordLen {
		errs = append(errs, fmt.Sprintf("password must be at most %d characters", MaxPasswordLen))
	}
	return errs
}

// Registration checks the full register payload. The returned slice is empty
// when everything is valid.
func Registration(email, username, password string) []string {
	var errs []string
	if !IsValidEmail(email) {
		errs = append(errs, "email is invalid")
	}
	if !IsValidUsername(username) {
		errs = append(errs, fmt.Sprintf("username must be %d-%d characters, lowercase letters, digits, - or _", MinUsernameLen, MaxUsernameLen))
	}
	errs = append(errs, PasswordErrors(password)...)
	return errs
}

// RequiredString checks a generic required text field against a length cap.
func RequiredString(field, value string, maxLen int) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{field + " is required"}
	}
	if len(value) > maxLen {
		return []string{fmt.Sprintf("%s must be at most %d characters", field, maxLen)}
	}
	return nil
}
