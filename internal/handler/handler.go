// Package handler implements the HTTP surface. Handlers receive their
// store and blob backend at construction; nothing reaches for globals.
package handler

import (
	"regexp"
	"strings"
)

// MinPasswordLength applies to signup and employee creation.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
