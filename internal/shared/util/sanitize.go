package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned when an upload name cannot be made safe.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces an uploaded file name to a single safe path
// segment. Traversal sequences are rejected outright; separators become
// underscores and control characters are dropped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
