package util

import "strings"

// Kenyan numbers are the primary audience: 254 plus nine digits.

// SanitizePhoneNumber strips formatting and normalizes the number to
// international +254 form.
func SanitizePhoneNumber(phoneNumber string) string {
	var digits strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case strings.HasPrefix(d, "254"):
		return "+" + d
	case strings.HasPrefix(d, "0") && len(d) == 10:
		return "+254" + d[1:]
	case len(d) == 9:
		return "+254" + d
	default:
		return "+" + d
	}
}

// ValidatePhoneNumber reports whether the number normalizes to a valid
// Kenyan number (254 followed by nine digits).
func ValidatePhoneNumber(phoneNumber string) bool {
	sanitized := strings.TrimPrefix(SanitizePhoneNumber(phoneNumber), "+")
	return len(sanitized) == 12 && strings.HasPrefix(sanitized, "254")
}

const (
	minBusinessInputLength = 3
	maxBusinessInputLength = 1000
)

var suspiciousPatterns = []string{
	"<script", "javascript:", "data:", "vbscript:",
	"onload=", "onerror=", "onclick=", "onmouseover=",
}

// ValidateBusinessInput trims and checks a free-text business query.
// Returns the sanitized text and whether it is acceptable.
func ValidateBusinessInput(userInput string) (string, bool) {
	sanitized := strings.TrimSpace(userInput)

	if len(sanitized) < minBusinessInputLength || len(sanitized) > maxBusinessInputLength {
		return sanitized, false
	}

	lowered := strings.ToLower(sanitized)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lowered, pattern) {
			return sanitized, false
		}
	}

	return sanitized, true
}
