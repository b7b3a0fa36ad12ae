package rfc2047

import (
	"mime"
)

// NeedsEncoding returns whether s contains characters that require an encoded
// word in a message header: non-ASCII characters or control characters.
func NeedsEncoding(s string) bool {
	for _, c := range s {
		if c >= 0x80 || c < ' ' && c != '\t' {
			return true
		}
	}
	return false
}

// Encode returns s as q-encoded word(s) with the given charset if encoding is
// needed, otherwise s itself.
func Encode(charset, s string) string {
	if !NeedsEncoding(s) {
		return s
	}
	return mime.QEncoding.Encode(charset, s)
}
