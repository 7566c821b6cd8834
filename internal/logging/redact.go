package logging

import "strings"

// MaskSecret renders a credential safe for display and logs: the first and
// last two characters survive, everything between is masked. Short values
// are fully masked.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
