// Package input turns operator-supplied text into the ordered URL list a
// batch is built from.
package input

import (
	"strings"

	"github.com/kapu/gamegen-go/pkg/errors"
)

const emptyListMessage = "Please enter at least one URL."

// SplitLines splits raw multi-line text on newlines.
func SplitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// NormalizeURLs trims every entry, drops empty ones and removes duplicates.
// The first occurrence wins and relative order is kept, so the result is a
// fixed point: NormalizeURLs(NormalizeURLs(x)) equals NormalizeURLs(x).
func NormalizeURLs(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}

// ParseURLList normalizes raw text and fails with a validation error when
// nothing usable is left.
func ParseURLList(raw string) ([]string, error) {
	return RequireURLs(SplitLines(raw))
}

// RequireURLs normalizes an already split list and rejects an empty result.
func RequireURLs(lines []string) ([]string, error) {
	urls := NormalizeURLs(lines)
	if len(urls) == 0 {
		return nil, errors.NewValidationError(emptyListMessage, "urls", len(lines))
	}
	return urls, nil
}
