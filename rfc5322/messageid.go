package rfc5322

import (
	"errors"
	"fmt"
	"strings"

	"github.com/letterd/headers/hdrvar"
	"github.com/letterd/headers/rfc5321"
)

var ErrBadMessageID = errors.New("invalid message-id header")

// MessageID parses the content of a Message-ID header, returning the id
// without the surrounding angle brackets. Uses DefaultParser.
func MessageID(s string) (string, error) {
	return DefaultParser.MessageID(s)
}

// MessageID parses the content of a Message-ID header.
func (pr Parser) MessageID(s string) (id string, rerr error) {
	defer recoverParse(&rerr, ErrBadMessageID)
	p := pr.newParser(s)

	p.cfws()
	p.xtake("<")
	var left string
	if p.hasPrefix(`"`) {
		// Obsolete id-left as quoted string.
		left = rfc5321.Localpart(p.xquotedString()).String()
	} else {
		left = p.xdotAtomText()
	}
	p.xtake("@")
	var right string
	if p.take("[") {
		// no-fold-literal.
		right = "[" + p.takefn1("id literal", func(c rune, i int) bool {
			return c != ']' && c != '\\' && c != '\r' && c != '\n'
		}) + "]"
		p.xtake("]")
	} else {
		right = p.xdotAtomText()
	}
	p.xtake(">")
	// Seen in practice: Message-ID: <valid@valid.example> (added by postmaster@some.example)
	// Not valid, but we allow it after whitespace. Comments are consumed as cfws.
	rem := p.s[p.o:]
	p.cfws()
	if !p.empty() && (hdrvar.Pedantic || !(strings.HasPrefix(rem, " ") || strings.HasPrefix(rem, "\t"))) {
		p.xerrorf("leftover data after message-id")
	}
	return left + "@" + right, nil
}

// xdotAtomText parses atoms joined by dots, without whitespace or comments.
func (p *parser) xdotAtomText() string {
	s := p.xatom()
	for p.take(".") {
		s += "." + p.xatom()
	}
	return s
}

// MessageIDCanonical parses the Message-ID, returning a canonical value that
// is lower-cased, without <>, and no unneeded quoting. For matching in
// threading, with References/In-Reply-To. If the message-id is invalid (e.g.
// no <>), an error is returned. If the message-id could not be parsed as
// address (localpart "@" domain), the raw value and the bool return parameter
// true is returned. It is quite common that message-id's don't adhere to the
// localpart @ domain syntax.
func MessageIDCanonical(s string) (string, bool, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return "", false, fmt.Errorf("%w: missing <", ErrBadMessageID)
	}
	s = s[1:]
	s, rem, have := strings.Cut(s, ">")
	if !have || (rem != "" && (hdrvar.Pedantic || !strings.HasPrefix(rem, " "))) {
		return "", false, fmt.Errorf("%w: missing >", ErrBadMessageID)
	}
	// We canonicalize the Message-ID: lower-case, no unneeded quoting.
	s = strings.ToLower(s)
	if s == "" {
		return "", false, fmt.Errorf("%w: empty message-id", ErrBadMessageID)
	}
	addr, err := rfc5321.ParseAddress(s)
	if err != nil {
		// Common reasons for not being an address:
		// 1. underscore in hostname.
		// 2. ip literal instead of domain.
		// 3. two @'s, perhaps intended as time-separator
		// 4. no @'s, so no domain/host
		return s, true, nil
	}
	// We preserve the unicode-ness of domain.
	t := strings.Split(s, "@")
	s = addr.Localpart.String() + "@" + t[len(t)-1]
	return s, false, nil
}
