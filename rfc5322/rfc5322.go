// Package rfc5322 parses email message headers: structured address headers
// like From, Reply-To and Sender, date and message-id headers, and
// unstructured headers like Subject, with RFC 2047 encoded words decoded and
// optional UTF-8 per RFC 6532.
package rfc5322

import (
	"strings"

	"github.com/letterd/headers/dns"
	"github.com/letterd/headers/rfc2047"
	"github.com/letterd/headers/rfc5321"
)

// UTF8Policy controls whether raw non-ASCII UTF-8 is accepted in header
// bodies.
type UTF8Policy int

const (
	// ASCIIOnly rejects raw non-ASCII characters, as plain RFC 5322 requires.
	// Non-ASCII text must use encoded words.
	ASCIIOnly UTF8Policy = iota

	// AllowUTF8 accepts non-ASCII UTF-8 in atoms, quoted strings and
	// unstructured text, per RFC 6532.
	AllowUTF8
)

// Parser parses header field bodies. The zero value is the strictest parser:
// ASCII-only and no encoded words in quoted strings.
type Parser struct {
	UTF8 UTF8Policy

	// DecodeQuotedStrings also decodes RFC 2047 encoded words appearing inside
	// quoted strings. Not allowed by the RFC, but widely generated.
	DecodeQuotedStrings bool
}

// DefaultParser is used by the package-level parsing functions: UTF-8 is
// accepted and encoded words in quoted strings are decoded.
var DefaultParser = Parser{UTF8: AllowUTF8, DecodeQuotedStrings: true}

// Address is a single Mailbox or a Group, as used in address headers like
// From, Reply-To and Cc. Use a type switch to get at the concrete type.
type Address interface {
	// Pack returns the address in a form usable in a message header. If utf8
	// is false, non-ASCII display names are turned into encoded words and
	// domains into their ASCII form.
	Pack(utf8 bool) string

	// Only Mailbox and Group implement Address.
	isAddress()
}

// Mailbox is a single mailbox with an optional display name.
type Mailbox struct {
	Name      string // Display name, decoded. Empty if absent.
	Localpart rfc5321.Localpart
	Domain    dns.IPDomain // Usually a domain name, an IP for address literals like "[10.0.0.1]".
}

func (Mailbox) isAddress() {}

// Path returns the mailbox address as an SMTP path.
func (m Mailbox) Path() rfc5321.Path {
	return rfc5321.Path{Localpart: m.Localpart, IPDomain: m.Domain}
}

// AddrSpec returns the addr-spec of the mailbox, e.g. "user@example.com",
// with proper quoting of the localpart.
func (m Mailbox) AddrSpec(utf8 bool) string {
	return m.Localpart.String() + "@" + m.Domain.XString(utf8)
}

// Pack returns the mailbox as it appears in an address header, with display
// name if present.
func (m Mailbox) Pack(utf8 bool) string {
	if m.Name == "" {
		return m.AddrSpec(utf8)
	}
	return packDisplayName(m.Name, utf8) + " <" + m.AddrSpec(utf8) + ">"
}

// String returns the mailbox with non-ASCII characters.
func (m Mailbox) String() string {
	return m.Pack(true)
}

// Group is a named group of zero or more mailboxes. RFC 5322 allows empty
// groups, e.g. "undisclosed-recipients:;".
type Group struct {
	Name      string
	Mailboxes []Mailbox
}

func (Group) isAddress() {}

// Pack returns the group as it appears in an address header.
func (g Group) Pack(utf8 bool) string {
	s := packDisplayName(g.Name, utf8) + ":"
	for i, m := range g.Mailboxes {
		if i > 0 {
			s += ","
		}
		s += " " + m.Pack(utf8)
	}
	return s + ";"
}

// String returns the group with non-ASCII characters.
func (g Group) String() string {
	return g.Pack(true)
}

// packDisplayName returns a display name as a phrase: as is if it consists of
// atom characters, as encoded word if it has non-ASCII characters and utf8 is
// false, otherwise as quoted string.
func packDisplayName(s string, utf8 bool) string {
	if !utf8 && rfc2047.NeedsEncoding(s) {
		return rfc2047.Encode("utf-8", s)
	}
	atomsafe := s != "" && !strings.HasPrefix(s, " ") && !strings.HasSuffix(s, " ")
	for _, c := range s {
		if isalphadigit(c) || isatext(c) || c == ' ' || c > 0x7f {
			continue
		}
		atomsafe = false
		break
	}
	if atomsafe {
		return s
	}
	r := `"`
	for _, c := range s {
		if c == '"' || c == '\\' {
			r += "\\" + string(c)
		} else {
			r += string(c)
		}
	}
	return r + `"`
}

func isalpha(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isdigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isalphadigit(c rune) bool {
	return isalpha(c) || isdigit(c)
}

// atext special characters, atom characters besides alphanumerics.
func isatext(c rune) bool {
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '/', '=', '?', '^', '_', '`', '{', '|', '}', '~':
		return true
	}
	return false
}
