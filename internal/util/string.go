package util

import (
	"strings"
	"unicode"
)

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slugify converts a name to a URL-safe slug: lowercase ASCII letters and
// digits separated by single hyphens.
func Slugify(name string) string {
	name = Normalize(name)

	var builder strings.Builder
	pendingHyphen := false
	for _, r := range name {
		switch {
		case r == '\'' || r == '’' || r == '.':
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingHyphen = false
			builder.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return builder.String()
}

// FirstLetter returns the upper-cased first letter or digit of s, or "" when
// s has none.
func FirstLetter(s string) string {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}
