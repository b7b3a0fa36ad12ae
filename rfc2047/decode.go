// Package rfc2047 implements encoded words as used in message headers to
// represent non-ASCII text, e.g. "=?utf-8?q?caf=C3=A9?=".
package rfc2047

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrBadEncodedWord = errors.New("bad encoded word")

// Decode decodes a single encoded word of the form
// "=?charset?encoding?encoded-text?=". Encodings "q" and "b" are recognized,
// case-insensitively. An RFC 2231 language suffix in the charset ("*lang") is
// accepted and ignored. Unknown charsets are an error.
func Decode(word string) (string, error) {
	if !strings.HasPrefix(word, "=?") || !strings.HasSuffix(word, "?=") || len(word) < len("=????=") {
		return "", fmt.Errorf("%w: missing =? ?= markers", ErrBadEncodedWord)
	}
	t := strings.Split(word[2:len(word)-2], "?")
	if len(t) != 3 {
		return "", fmt.Errorf("%w: expected charset?encoding?text", ErrBadEncodedWord)
	}
	charset, enc, text := t[0], t[1], t[2]
	charset, _, _ = strings.Cut(charset, "*")
	if charset == "" {
		return "", fmt.Errorf("%w: empty charset", ErrBadEncodedWord)
	}

	var buf []byte
	switch strings.ToLower(enc) {
	case "q":
		b, err := decodeQ(text)
		if err != nil {
			return "", err
		}
		buf = b
	case "b":
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return "", fmt.Errorf("%w: decoding base64: %v", ErrBadEncodedWord, err)
		}
		buf = b
	default:
		return "", fmt.Errorf("%w: unknown encoding %q", ErrBadEncodedWord, enc)
	}

	e, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}
	if e == nil {
		return string(buf), nil
	}
	s, err := e.NewDecoder().String(string(buf))
	if err != nil {
		return "", fmt.Errorf("%w: converting from %q: %v", ErrBadEncodedWord, charset, err)
	}
	return s, nil
}

func decodeQ(s string) ([]byte, error) {
	var buf []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
			buf = append(buf, ' ')
		case c == '=':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("%w: truncated q-encoded byte", ErrBadEncodedWord)
			}
			x1 := hexval(s[i+1])
			x2 := hexval(s[i+2])
			if x1 < 0 || x2 < 0 {
				return nil, fmt.Errorf("%w: bad q-encoded hex %q", ErrBadEncodedWord, s[i:i+3])
			}
			buf = append(buf, byte(x1<<4|x2))
			i += 2
		case c <= ' ' || c >= 0x7f:
			return nil, fmt.Errorf("%w: invalid q-encoded character %q", ErrBadEncodedWord, c)
		default:
			buf = append(buf, c)
		}
	}
	return buf, nil
}

func hexval(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	}
	return -1
}

// IsEncodedWord returns whether s has the encoded-word form. It does not
// verify the encoded text.
func IsEncodedWord(s string) bool {
	return len(s) >= len("=????=") && strings.HasPrefix(s, "=?") && strings.HasSuffix(s, "?=") && strings.Count(s[2:len(s)-2], "?") == 2
}

// DecodeHeader decodes all encoded words in a header value, leaving
// unencoded text as is. Whitespace between two adjacent encoded words is
// dropped. Invalid encoded words are left in their raw form. The result must
// be valid UTF-8, otherwise an error is returned.
func DecodeHeader(s string) (string, error) {
	var b strings.Builder
	var sep string // Whitespace run before the current word.
	prevEncoded := false

	for s != "" {
		n := 0
		for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
			n++
		}
		if n > 0 {
			sep, s = s[:n], s[n:]
			continue
		}
		i := strings.IndexAny(s, " \t")
		var word string
		if i < 0 {
			word, s = s, ""
		} else {
			word, s = s[:i], s[i:]
		}
		encoded := false
		if IsEncodedWord(word) {
			if t, err := Decode(word); err == nil {
				word, encoded = t, true
			}
		}
		if !encoded || !prevEncoded {
			b.WriteString(sep)
		}
		b.WriteString(word)
		sep = ""
		prevEncoded = encoded
	}
	b.WriteString(sep)

	r := b.String()
	if !utf8.ValidString(r) {
		return "", fmt.Errorf("%w: decoded header is not valid utf-8", ErrBadEncodedWord)
	}
	return r, nil
}
