package rfc2047

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	good := func(word, exp string) {
		t.Helper()
		s, err := Decode(word)
		if err != nil {
			t.Fatalf("unexpected error decoding %q: %v", word, err)
		}
		if s != exp {
			t.Fatalf("decoding %q: got %q, expected %q", word, s, exp)
		}
	}
	bad := func(word string) {
		t.Helper()
		_, err := Decode(word)
		if err == nil {
			t.Fatalf("did not see expected error for %q", word)
		}
		if !errors.Is(err, ErrBadEncodedWord) {
			t.Fatalf("expected ErrBadEncodedWord, got %v", err)
		}
	}

	good("=?utf-8?q?caf=C3=A9?=", "café")
	good("=?UTF-8?Q?caf=C3=A9?=", "café")
	good("=?utf-8?q?a_b?=", "a b")
	good("=?utf-8?b?Y2Fmw6k=?=", "café")
	good("=?iso-8859-1?q?caf=E9?=", "café")
	good("=?iso-8859-2?Q?Krist=FDna?=", "Kristýna")
	good("=?us-ascii?q?plain?=", "plain")
	good("=?utf-8*en?q?hello?=", "hello") // RFC 2231 language suffix.

	bad("=?utf-8?q?caf=C3=A9")        // Missing ?=.
	bad("=?utf-8?q?=ZZ?=")            // Bad hex.
	bad("=?utf-8?q?=A?=")             // Truncated hex.
	bad("=?utf-8?b?!!!?=")            // Bad base64.
	bad("=?utf-8?x?abc?=")            // Unknown encoding.
	bad("=?bogus-charset?q?abc?=")    // Unknown charset.
	bad("=??q?abc?=")                 // Empty charset.
	bad("=?utf-8?q?a?b?=")            // Too many ?'s.
	bad("=?utf-8?q?sp ace?=")         // Space not allowed in encoded text.
}

func TestDecodeHeader(t *testing.T) {
	check := func(input, exp string) {
		t.Helper()
		s, err := DecodeHeader(input)
		if err != nil {
			t.Fatalf("unexpected error decoding header %q: %v", input, err)
		}
		if s != exp {
			t.Fatalf("decoding header %q: got %q, expected %q", input, s, exp)
		}
	}

	check("plain subject", "plain subject")
	check("=?utf-8?q?caf=C3=A9?=", "café")
	check("hello =?utf-8?q?caf=C3=A9?= bye", "hello café bye")
	// Whitespace between adjacent encoded words is dropped.
	check("=?utf-8?q?one?= =?utf-8?q?two?=", "onetwo")
	check("=?utf-8?q?one?= \t =?utf-8?q?two?=", "onetwo")
	check("=?utf-8?q?one?= and =?utf-8?q?two?=", "one and two")
	// Invalid encoded words are left as is.
	check("=?utf-8?q?bad=ZZ?=", "=?utf-8?q?bad=ZZ?=")
	check("  leading and trailing  ", "  leading and trailing  ")
}

func TestDecodeReader(t *testing.T) {
	check := func(charset, input, output string) {
		t.Helper()
		buf, err := io.ReadAll(DecodeReader(charset, strings.NewReader(input)))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if string(buf) != output {
			t.Fatalf("decoding %q with charset %q, got %q, expected %q", input, charset, buf, output)
		}
	}

	check("", "☺", "☺")         // No decoding.
	check("us-ascii", "☺", "☺") // No decoding.
	check("utf-8", "☺", "☺")
	check("iso-8859-1", string([]byte{0xa9}), "©")
	check("iso-8859-5", string([]byte{0xd0}), "а")
}

func TestEncode(t *testing.T) {
	if s := Encode("utf-8", "plain"); s != "plain" {
		t.Fatalf("encoding ascii, got %q", s)
	}
	s := Encode("utf-8", "café")
	d, err := Decode(s)
	if err != nil {
		t.Fatalf("decoding %q: %v", s, err)
	}
	if d != "café" {
		t.Fatalf("roundtrip café, got %q", d)
	}
}
