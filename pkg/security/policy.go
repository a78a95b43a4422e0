package security

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinPasswordLength is the minimum number of characters in a password.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72
)

// PolicyError lists every password rule the candidate failed.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password does not meet policy: " + strings.Join(e.Violations, ", ")
}

// ValidatePasswordPolicy checks length and character-class requirements:
// at least one uppercase letter, one lowercase letter, one digit and one symbol.
func ValidatePasswordPolicy(password string) error {
	var violations []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, "must be at least 8 characters")
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, "must be at most 72 bytes")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case unicode.IsSpace(r):
		default:
			hasSymbol = true
		}
	}

	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "must contain a symbol")
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}
