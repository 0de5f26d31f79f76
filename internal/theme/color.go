package theme

import "strings"

// NormalizeColor validates a 6-digit RGB hex string (an optional leading '#'
// is accepted) and returns it upper-cased without the '#'.
func NormalizeColor(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return "", false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return "", false
		}
	}
	return strings.ToUpper(s), true
}
