package validation

import (
	"errors"
	"strings"
)

// CountryCode is the Mauritanian dialing prefix every stored phone carries.
const CountryCode = "222"

var ErrInvalidPhone = errors.New("phone must be a Mauritanian number: 8 digits starting with 2, 3 or 4")

// NormalizePhone returns raw in the canonical form +222XXXXXXXX. Separators are
// ignored and an existing 00222 or +222 prefix is accepted.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) > 8 {
		digits = strings.TrimPrefix(digits, "00")
		if len(digits) > 8 {
			if !strings.HasPrefix(digits, CountryCode) {
				return "", ErrInvalidPhone
			}
			digits = digits[len(CountryCode):]
		}
	}
	if len(digits) != 8 {
		return "", ErrInvalidPhone
	}
	switch digits[0] {
	case '2', '3', '4':
	default:
		return "", ErrInvalidPhone
	}
	return "+" + CountryCode + digits, nil
}

// ValidPhone reports whether raw normalizes to a valid number.
func ValidPhone(raw string) bool {
	_, err := NormalizePhone(raw)
	return err == nil
}
