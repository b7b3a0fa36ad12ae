package rfc2047

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding returns the text encoding for a charset name, nil for
// charsets that need no conversion, or an error for unknown charsets.
func lookupEncoding(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "", "us-ascii", "utf-8":
		return nil, nil
	}
	enc, _ := ianaindex.MIME.Encoding(charset)
	if enc == nil {
		enc, _ = ianaindex.IANA.Encoding(charset)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: unknown charset %q", ErrBadEncodedWord, charset)
	}
	return enc, nil
}

// DecodeReader returns a reader that reads from r, decoding as charset. If
// charset is empty, us-ascii, utf-8 or unknown, the original reader is
// returned and no decoding takes place.
func DecodeReader(charset string, r io.Reader) io.Reader {
	enc, err := lookupEncoding(charset)
	if err != nil || enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}
