package menu

import "strings"

// AllURLs is the match pattern that matches every URL.
const AllURLs = "<all_urls>"

// NormalizePatterns turns a newline separated pattern list into a slice.
//
// An empty string yields the single wildcard pattern. Otherwise leading
// and trailing line breaks are trimmed and the remainder is split on runs
// of CR/LF, so blank lines never produce empty patterns.
func NormalizePatterns(s string) []string {
	if s == "" {
		return []string{AllURLs}
	}

	trimmed := strings.Trim(s, "\r\n")
	if trimmed == "" {
		return []string{""}
	}

	return strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
}
