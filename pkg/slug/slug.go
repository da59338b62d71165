// Package slug derives URL-safe company slugs from display names.
package slug

import (
	"strconv"
	"strings"
)

// Make lowercases the name and collapses every run of non-alphanumeric
// characters into a single hyphen, trimming hyphens at both ends.
func Make(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Unique returns base, or base with an incrementing numeric suffix,
// whichever taken first reports false. The exists callback is the
// store's slug-collision check.
func Unique(base string, exists func(string) bool) string {
	if !exists(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !exists(candidate) {
			return candidate
		}
	}
}
