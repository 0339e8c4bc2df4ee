package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>`)
)

// ValidateUsername enforces the signup username format: 3-30 characters,
// letters, digits and underscore only.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return ValidationError("Username must be between 3 and 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError("Username may only contain letters, numbers and underscores")
	}
	return nil
}

// ValidatePassword enforces the signup password policy. All violated rules
// are reported at once so the client can show the full list.
func ValidatePassword(password string) error {
	var violations []string

	if len(password) < 8 {
		violations = append(violations, "at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, "an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "a digit")
	}
	if !hasSpecial {
		violations = append(violations, "a special character")
	}

	if len(violations) > 0 {
		return ValidationError("Password must contain %s", strings.Join(violations, ", "))
	}
	return nil
}

// Sanitize strips HTML tags and escapes the remainder. Applied to all free
// text before storage so stored values are safe to render as-is.
func Sanitize(input string) string {
	stripped := htmlTagRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(html.EscapeString(stripped))
}
