package present

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// MaskPhone hides the middle of a phone number, eg. +254712345678 -> +2547***5678.
func MaskPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "Not provided"
	}
	digits := nonDigits.ReplaceAllString(phone, "")
	n := len(digits)
	switch {
	case n == 12 && strings.HasPrefix(digits, "254"):
		return "+254" + digits[3:4] + "***" + digits[n-4:]
	case n == 10 && strings.HasPrefix(digits, "0"):
		return "0" + digits[1:2] + "***" + digits[n-4:]
	case n == 9:
		return digits[:1] + "***" + digits[n-4:]
	case n >= 10:
		return digits[:4] + "***" + digits[n-4:]
	case n > 2:
		return "***" + digits[n-2:]
	}
	return "***"
}
