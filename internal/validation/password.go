package validation

import (
	"strings"
	"unicode"
)

const MinPasswordLength = 8

// PasswordError lists the requirements a password failed.
type PasswordError struct {
	Missing []string
}

func (e *PasswordError) Error() string {
	return "password must have " + strings.Join(e.Missing, ", ")
}

// ValidatePassword requires at least MinPasswordLength characters with an upper
// case letter, a lower case letter and a digit.
func ValidatePassword(pw string) error {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var missing []string
	if len([]rune(pw)) < MinPasswordLength {
		missing = append(missing, "at least 8 characters")
	}
	if !upper {
		missing = append(missing, "an upper case letter")
	}
	if !lower {
		missing = append(missing, "a lower case letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if len(missing) > 0 {
		return &PasswordError{Missing: missing}
	}
	return nil
}
