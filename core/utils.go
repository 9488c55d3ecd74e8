package core

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[\s_-]+`)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Slugify converts `s` into a URL-safe slug: lowercased, special characters stripped,
// whitespace runs collapsed into single hyphens.
func Slugify(s string) string {
	s = slugInvalidChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	return strings.Trim(slugSeparators.ReplaceAllString(s, "-"), "-")
}
