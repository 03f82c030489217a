package domain

import (
	"strings"
	"unicode/utf8"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for the full name entered at signup.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidSocialHandle reports whether h looks like a social media handle: an "@"
// followed by at least two characters.
func ValidSocialHandle(h string) bool {
	return strings.HasPrefix(h, "@") && utf8.RuneCountInString(h) > 2
}
