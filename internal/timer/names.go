package timer

import (
	"strings"

	"github.com/google/uuid"
)

// SanitizeName lowercases the input and reduces it to letters, digits
// and hyphens. Spaces and underscores become hyphens; anything else is
// dropped; runs of hyphens collapse and the ends are trimmed.
func SanitizeName(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// RandomName returns a short generated identifier for a timer created
// without a name. Callers retry on collision.
func RandomName() string {
	return uuid.NewString()[:4]
}
