package services

import (
	"regexp"
	"strings"
)

// local@label.tld with no whitespace and a single @. Deliberately loose.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ClassifyEmail normalizes text and returns it when it is shaped like an
// email address, ErrInvalidEmail otherwise.
func ClassifyEmail(text string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(text))
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
