package rfc5322

import (
	"testing"
)

func TestUnstructured(t *testing.T) {
	check := func(s, exp string) {
		t.Helper()
		r, err := Unstructured(s)
		tcheck(t, err, "parsing unstructured header")
		tcompare(t, r, exp)
	}
	bad := func(s string) {
		t.Helper()
		_, err := Unstructured(s)
		if err == nil {
			t.Fatalf("did not see expected error for %q", s)
		}
	}

	check("", "")
	check("hello world", "hello world")
	check("hello\r\n world", "hello world")
	check("hello\n\tworld", "hello\tworld")
	check("=?utf-8?q?caf=C3=A9?= latte", "café latte")
	check("=?utf-8?q?hoi?= =?utf-8?q?hoi?=", "hoihoi")
	check("=?utf-8?b?aG9p?=", "hoi")
	check("=?iso-8859-1?q?=E9?=", "é")
	check("café", "café")
	// Invalid encoded words stay as is.
	check("=?bogus-charset?q?x?=", "=?bogus-charset?q?x?=")
	check("=?utf-8?q?=ZZ?=", "=?utf-8?q?=ZZ?=")

	bad("hello\nworld")   // Bare newline.
	bad("hello\r\nworld") // Folding without whitespace.
	bad("a\x00b")         // NUL.
	bad("caf\xc3")        // Invalid utf-8.

	ascii := Parser{UTF8: ASCIIOnly}
	if _, err := ascii.Unstructured("café"); err == nil {
		t.Fatalf("did not see expected error for raw non-ascii with ASCIIOnly")
	}
	r, err := ascii.Unstructured("=?utf-8?q?caf=C3=A9?=")
	tcheck(t, err, "parsing encoded word under ascii policy")
	tcompare(t, r, "café")
}
