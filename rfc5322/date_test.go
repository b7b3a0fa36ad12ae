package rfc5322

import (
	"errors"
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	check := func(s string, exp time.Time) {
		t.Helper()
		tm, err := Date(s)
		tcheck(t, err, "parsing date header")
		if !tm.Equal(exp) {
			t.Fatalf("got %v, expected %v, for %q", tm, exp, s)
		}
		gname, goff := tm.Zone()
		ename, eoff := exp.Zone()
		if gname != ename || goff != eoff {
			t.Fatalf("got zone %q %d, expected %q %d, for %q", gname, goff, ename, eoff, s)
		}
	}
	bad := func(s string) {
		t.Helper()
		_, err := Date(s)
		if err == nil {
			t.Fatalf("did not see expected error for %q", s)
		}
		if !errors.Is(err, ErrBadDate) {
			t.Fatalf("expected ErrBadDate, got %v", err)
		}
	}

	tz := func(name string, seconds int) *time.Location {
		return time.FixedZone(name, seconds)
	}

	check("Fri, 21 Nov 1997 09:55:06 -0600", time.Date(1997, 11, 21, 9, 55, 6, 0, tz("-0600", -6*3600)))
	check("21 Nov 1997 09:55:06 -0600", time.Date(1997, 11, 21, 9, 55, 6, 0, tz("-0600", -6*3600)))
	check("Thu, 13 Feb 1969 23:32:54 -0330", time.Date(1969, 2, 13, 23, 32, 54, 0, tz("-0330", -3*3600-30*60)))
	check("1 Apr 2024 12:30 +0530", time.Date(2024, 4, 1, 12, 30, 0, 0, tz("+0530", 5*3600+30*60)))
	check("Mon, 24 Nov 1997 14:22:01 -0800 (comment)", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("-0800", -8*3600)))

	// Folding whitespace between tokens.
	check("Thu,\r\n 13\r\n Feb\r\n 1969\r\n 23:32\r\n -0330", time.Date(1969, 2, 13, 23, 32, 0, 0, tz("-0330", -3*3600-30*60)))

	// Obsolete years.
	check("21 Nov 97 09:55:06 GMT", time.Date(1997, 11, 21, 9, 55, 6, 0, tz("GMT", 0)))
	check("21 Nov 03 09:55:06 GMT", time.Date(2003, 11, 21, 9, 55, 6, 0, tz("GMT", 0)))

	// Obsolete alphabetic zones.
	check("24 Nov 1997 14:22:01 PDT", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("PDT", -7*3600)))
	check("24 Nov 1997 14:22:01 ut", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("UT", 0)))
	// Unknown alphabetic zones carry no offset.
	check("24 Nov 1997 14:22:01 CEST", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("-0000", 0)))
	// Missing zone, seen in the wild.
	check("24 Nov 1997 14:22:01", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("-0000", 0)))

	// Full month names, seen in the wild.
	check("24 November 1997 14:22:01 +0000", time.Date(1997, 11, 24, 14, 22, 1, 0, tz("+0000", 0)))

	bad("")
	bad("Wrongday, 21 Nov 1997 09:55:06 -0600")
	bad("21 Foo 1997 09:55:06 -0600")
	bad("32 Nov 1997 09:55:06 -0600") // Day out of range.
	bad("21 Nov 1997 24:55:06 -0600") // Hour out of range.
	bad("21 Nov 1997 09:55:06 -0660") // Zone minutes out of range.
	bad("21 Nov 1997 9:55:06 -0600")  // One-digit hour.
	bad("21 Nov 1997 09:55:06 -0600 x")
}
