package rfc5322

import (
	"errors"
	"testing"
)

func TestMessageID(t *testing.T) {
	check := func(s, exp string) {
		t.Helper()
		id, err := MessageID(s)
		tcheck(t, err, "parsing message-id header")
		tcompare(t, id, exp)
	}
	bad := func(s string) {
		t.Helper()
		_, err := MessageID(s)
		if err == nil {
			t.Fatalf("did not see expected error for %q", s)
		}
		if !errors.Is(err, ErrBadMessageID) {
			t.Fatalf("expected ErrBadMessageID, got %v", err)
		}
	}

	check("<mid@example.com>", "mid@example.com")
	check(" <mid@example.com>", "mid@example.com")
	check("<a.b.c@d.example>", "a.b.c@d.example")
	check("<abc@[10.0.0.1]>", "abc@[10.0.0.1]")
	check(`<"foo bar"@example.com>`, `"foo bar"@example.com`)
	// Junk after the id, seen in the wild, allowed after whitespace.
	check("<mid@example.com> (added by postmaster@other.example)", "mid@example.com")

	bad("")
	bad("mid@example.com")   // Missing <>.
	bad("<mid@example.com")  // Missing >.
	bad("<mid@example.com>x")
	bad("<mid@>")
	bad("<@example.com>")
	bad("<mid example@x.example>")
}

func TestMessageIDCanonical(t *testing.T) {
	check := func(s, exp string, expRaw bool) {
		t.Helper()
		id, raw, err := MessageIDCanonical(s)
		tcheck(t, err, "canonical message-id")
		tcompare(t, id, exp)
		tcompare(t, raw, expRaw)
	}
	bad := func(s string) {
		t.Helper()
		_, _, err := MessageIDCanonical(s)
		if err == nil {
			t.Fatalf("did not see expected error for %q", s)
		}
	}

	check("<MID@Example.Com>", "mid@example.com", false)
	check(" <mid@example.com> ", "mid@example.com", false)
	check(`<"Quoted"@Example.Com>`, "quoted@example.com", false)
	// Not localpart @ domain, common enough, returned raw.
	check("<unique-string>", "unique-string", true)
	check("<a@b@c.example>", "a@b@c.example", true)
	check("<mid@[10.0.0.1]>", "mid@[10.0.0.1]", true)

	bad("mid@example.com")
	bad("<mid@example.com")
	bad("<>")
}
