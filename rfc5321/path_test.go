package rfc5321

import (
	"errors"
	"net"
	"testing"
)

func TestParsePath(t *testing.T) {
	good := func(s, exp string) {
		t.Helper()
		p, err := ParsePath(s)
		if err != nil {
			t.Fatalf("unexpected error for path %q: %v", s, err)
		}
		if p.XString(true) != exp {
			t.Fatalf("path %q: got %q, expected %q", s, p.XString(true), exp)
		}
	}

	bad := func(s string) {
		t.Helper()
		_, err := ParsePath(s)
		if err == nil {
			t.Fatalf("did not see expected error for path %q", s)
		}
		if !errors.Is(err, ErrBadAddress) {
			t.Fatalf("expected ErrBadAddress, got %v", err)
		}
	}

	good("<>", "")
	good("<user@example.com>", "user@example.com")
	good("<@relay.example:user@example.com>", "user@example.com")        // Source route discarded.
	good("<@a.example,@b.example:user@example.com>", "user@example.com") // Multi-hop source route.
	good(`<"u ser"@example.com>`, `"u ser"@example.com`)
	good("<user@[10.0.0.1]>", "user@[10.0.0.1]")
	good("<user@[IPv6:2001:db8::1]>", "user@[IPv6:2001:db8::1]")
	bad("user@example.com") // Missing brackets.
	bad("<user@example.com")
	bad("<user>")
	bad("<user@>")
	bad("<user@[10.0.0.999]>")
	bad("<user@[IPv6:10.0.0.1]>") // Tagged ipv6 that is ipv4.
	bad("<user@example.com> rest")
}

func TestParsePathIPLiteral(t *testing.T) {
	p, err := ParsePath("<user@[10.0.0.1]>")
	if err != nil {
		t.Fatalf("parse path: %v", err)
	}
	if !p.IPDomain.IsIP() || !p.IPDomain.IP.Equal(net.ParseIP("10.0.0.1")) {
		t.Fatalf("expected ip 10.0.0.1, got %v", p.IPDomain)
	}
}
