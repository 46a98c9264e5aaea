// Package slugify derives URL-safe community usernames from display names.
package slugify

import (
	"strings"
	"unicode"
)

// Slug lowercases the name, collapses whitespace runs into single hyphens,
// and drops everything that is not a letter, digit, hyphen, or underscore.
func Slug(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.TrimSpace(strings.ToLower(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
