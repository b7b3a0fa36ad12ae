package rfc5322

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/letterd/headers/hdrvar"
	"github.com/letterd/headers/rfc2047"
)

var ErrBadUnstructured = errors.New("invalid unstructured header")

// Unstructured parses the content of an unstructured header like Subject:
// folding whitespace is unfolded and RFC 2047 encoded words are decoded.
// Uses DefaultParser.
func Unstructured(s string) (string, error) {
	return DefaultParser.Unstructured(s)
}

// Unstructured parses the content of an unstructured header.
func (pr Parser) Unstructured(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\r' && strings.HasPrefix(s[i:], "\r\n ") || c == '\r' && strings.HasPrefix(s[i:], "\r\n\t"):
			i++ // Unfold, dropping the crlf and keeping the whitespace.
		case c == '\n' && i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\t'):
			// Messages in the wild also fold with bare lf.
		case c == '\r' || c == '\n':
			return "", fmt.Errorf("%w: bare newline", ErrBadUnstructured)
		case c == 0 || c < ' ' && c != '\t' && hdrvar.Pedantic:
			return "", fmt.Errorf("%w: control character %q", ErrBadUnstructured, c)
		case c >= 0x80 && pr.UTF8 != AllowUTF8:
			return "", fmt.Errorf("%w: non-ascii character, use an encoded word", ErrBadUnstructured)
		default:
			b.WriteByte(c)
		}
	}
	r := b.String()
	if pr.UTF8 == AllowUTF8 && !utf8.ValidString(r) {
		return "", fmt.Errorf("%w: input is not valid utf-8", ErrBadUnstructured)
	}
	r, err := rfc2047.DecodeHeader(r)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadUnstructured, err)
	}
	return r, nil
}
