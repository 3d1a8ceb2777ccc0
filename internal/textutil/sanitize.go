package textutil

import "strings"

// SanitizeFileName makes name safe as a single path segment. Path
// separators, colons, and asterisks become dashes; quotes, wildcards, pipes,
// angle brackets, and control characters are dropped.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case r < ' ':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}

// CacheKey turns a video id or channel display name into a directory name
// that cannot escape its parent. Empty and dot-only inputs map to "unknown".
func CacheKey(value string) string {
	key := SanitizeFileName(value)
	if strings.Trim(key, ".") == "" {
		return "unknown"
	}
	return key
}
