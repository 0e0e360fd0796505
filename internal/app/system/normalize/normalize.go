// Package normalize canonicalizes user-supplied identifier strings before
// they are validated, stored, or used in lookups.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username lowercases and trims a username. Usernames are case-insensitive
// on lookup, so the canonical stored form is lowercase.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims a task status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
