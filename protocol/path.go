package protocol

import "strings"

// SplitPath splits a URL path on '/' and drops empty segments, so "/a//b/"
// yields ["a", "b"]. Both "/" and "" yield no segments.
func SplitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/'
	})
}

// IsRoot reports whether path addresses the root route.
func IsRoot(path string) bool {
	return path == "/" || path == ""
}
