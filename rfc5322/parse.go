package rfc5322

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/letterd/headers/dns"
	"github.com/letterd/headers/hdrvar"
	"github.com/letterd/headers/rfc2047"
	"github.com/letterd/headers/rfc5321"
)

var ErrBadAddress = errors.New("invalid address header")

// From parses the content of a From header: one or more addresses. Groups are
// accepted, as RFC 6854 allows. Uses DefaultParser.
func From(s string) ([]Address, error) {
	return DefaultParser.From(s)
}

// ReplyTo parses the content of a Reply-To header: an address list. Uses
// DefaultParser.
func ReplyTo(s string) ([]Address, error) {
	return DefaultParser.ReplyTo(s)
}

// Sender parses the content of a Sender header: a single address. Uses
// DefaultParser.
func Sender(s string) (Address, error) {
	return DefaultParser.Sender(s)
}

// AddressList parses the content of an address-list header like To, Cc and
// Bcc. Uses DefaultParser.
func AddressList(s string) ([]Address, error) {
	return DefaultParser.AddressList(s)
}

// MailboxList parses the content of a mailbox-list header: one or more
// mailboxes, no groups. Uses DefaultParser.
func MailboxList(s string) ([]Mailbox, error) {
	return DefaultParser.MailboxList(s)
}

// From parses the content of a From header.
func (pr Parser) From(s string) (l []Address, rerr error) {
	defer recoverParse(&rerr, ErrBadAddress)
	p := pr.newParser(s)
	l = p.xaddressList()
	p.xend()
	return l, nil
}

// ReplyTo parses the content of a Reply-To header.
func (pr Parser) ReplyTo(s string) (l []Address, rerr error) {
	defer recoverParse(&rerr, ErrBadAddress)
	p := pr.newParser(s)
	l = p.xaddressList()
	p.xend()
	return l, nil
}

// AddressList parses the content of an address-list header.
func (pr Parser) AddressList(s string) (l []Address, rerr error) {
	defer recoverParse(&rerr, ErrBadAddress)
	p := pr.newParser(s)
	l = p.xaddressList()
	p.xend()
	return l, nil
}

// Sender parses the content of a Sender header: a single mailbox, or a group
// per RFC 6854.
func (pr Parser) Sender(s string) (a Address, rerr error) {
	defer recoverParse(&rerr, ErrBadAddress)
	p := pr.newParser(s)
	a = p.xaddress()
	p.xend()
	return a, nil
}

// MailboxList parses the content of a mailbox-list header, e.g. From without
// the RFC 6854 group extension. Groups are an error.
func (pr Parser) MailboxList(s string) (l []Mailbox, rerr error) {
	defer recoverParse(&rerr, ErrBadAddress)
	p := pr.newParser(s)
	for {
		p.cfws()
		if p.empty() {
			break
		}
		if p.take(",") {
			// Obsolete syntax allows null list entries.
			continue
		}
		l = append(l, p.xmailbox())
		p.cfws()
		if p.take(",") {
			continue
		}
		break
	}
	if l == nil {
		p.xerrorf("empty mailbox list")
	}
	p.xend()
	return l, nil
}

// recoverParse turns a panic from parser.xerrorf into an error wrapping
// sentinel. Other panics, including runtime errors, pass through.
func recoverParse(rerr *error, sentinel error) {
	x := recover()
	if x == nil {
		return
	}
	if _, ok := x.(runtime.Error); ok {
		panic(x)
	}
	err, ok := x.(error)
	if !ok {
		panic(x)
	}
	*rerr = fmt.Errorf("%w: %s", sentinel, err)
}

type parser struct {
	s        string
	o        int
	utf8     bool // Accept raw non-ASCII.
	decodeQS bool // Decode encoded words inside quoted strings.
}

func (pr Parser) newParser(s string) *parser {
	p := &parser{s: s, utf8: pr.UTF8 == AllowUTF8, decodeQS: pr.DecodeQuotedStrings}
	if p.utf8 && !utf8.ValidString(s) {
		p.xerrorf("input is not valid utf-8")
	}
	return p
}

func (p *parser) xerrorf(format string, args ...any) {
	panic(fmt.Errorf(format, args...))
}

func (p *parser) empty() bool {
	return p.o == len(p.s)
}

// xend requires all input to have been consumed, modulo trailing whitespace
// and comments.
func (p *parser) xend() {
	p.cfws()
	if !p.empty() {
		p.xerrorf("leftover data %q", p.remainder())
	}
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.s[p.o:], s)
}

func (p *parser) take(s string) bool {
	if p.hasPrefix(s) {
		p.o += len(s)
		return true
	}
	return false
}

func (p *parser) xtake(s string) {
	if !p.take(s) {
		p.xerrorf("expected %q", s)
	}
}

func (p *parser) xtaken(n int) string {
	r := p.s[p.o : p.o+n]
	p.o += n
	return r
}

func (p *parser) remainder() string {
	r := p.s[p.o:]
	p.o = len(p.s)
	return r
}

func (p *parser) peekchar() rune {
	for _, c := range p.s[p.o:] {
		return c
	}
	return -1
}

func (p *parser) xchar() rune {
	// We are careful to track invalid utf-8 properly.
	if p.empty() {
		p.xerrorf("need another character")
	}
	var r rune
	var o int
	for i, c := range p.s[p.o:] {
		if i > 0 {
			o = i
			break
		}
		r = c
	}
	if o == 0 {
		p.o = len(p.s)
	} else {
		p.o += o
	}
	return r
}

func (p *parser) takefn1(what string, fn func(c rune, i int) bool) string {
	if p.empty() {
		p.xerrorf("need at least one char for %s", what)
	}
	for i, c := range p.s[p.o:] {
		if !fn(c, i) {
			if i == 0 {
				p.xerrorf("expected at least one char for %s, got char %c", what, c)
			}
			return p.xtaken(i)
		}
	}
	return p.remainder()
}

// tryParse runs fn, returning whether it completed without parse error. On
// failure the parse position is restored.
func (p *parser) tryParse(fn func()) (ok bool) {
	o := p.o
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		if _, isrun := x.(runtime.Error); isrun {
			panic(x)
		}
		if _, iserr := x.(error); !iserr {
			panic(x)
		}
		p.o = o
		ok = false
	}()
	fn()
	return true
}

// fws consumes folding whitespace: space, tab, and line breaks followed by
// space or tab. Returns whether anything was consumed.
func (p *parser) fws() bool {
	consumed := false
	for !p.empty() {
		c := p.s[p.o]
		if c == ' ' || c == '\t' {
			p.o++
			consumed = true
			continue
		}
		if strings.HasPrefix(p.s[p.o:], "\r\n ") || strings.HasPrefix(p.s[p.o:], "\r\n\t") {
			p.o += 2
			consumed = true
			continue
		}
		if strings.HasPrefix(p.s[p.o:], "\n ") || strings.HasPrefix(p.s[p.o:], "\n\t") {
			// Messages in the wild also fold with bare lf.
			p.o++
			consumed = true
			continue
		}
		break
	}
	return consumed
}

// cfws consumes folding whitespace and comments. Comments nest and their
// contents are dropped. Returns whether anything was consumed.
func (p *parser) cfws() bool {
	consumed := false
	for {
		if p.fws() {
			consumed = true
			continue
		}
		if p.hasPrefix("(") {
			p.xcomment()
			consumed = true
			continue
		}
		break
	}
	return consumed
}

func (p *parser) xcomment() {
	p.xtake("(")
	for {
		p.fws()
		if p.empty() {
			p.xerrorf("missing ) for comment")
		}
		if p.hasPrefix("(") {
			p.xcomment()
			continue
		}
		if p.take(")") {
			return
		}
		if p.take(`\`) {
			c := p.xchar()
			if !isquotedpair(c, p.utf8) {
				p.xerrorf("bad escaped char %c in comment", c)
			}
			continue
		}
		c := p.xchar()
		if c == '\r' || c == '\n' {
			p.xerrorf("bare newline in comment")
		}
		if c < ' ' && c != '\t' || c == 0x7f {
			p.xerrorf("control character in comment")
		}
		p.xcheckASCII(c)
	}
}

func (p *parser) xcheckASCII(c rune) {
	if c > 0x7f && !p.utf8 {
		p.xerrorf("non-ascii character %q not allowed, use an encoded word", c)
	}
}

func isquotedpair(c rune, utf8ok bool) bool {
	return c == '\t' || c >= ' ' && c < 0x7f || c > 0x7f && utf8ok
}

// xaddressList parses one or more addresses, comma-separated. Null entries,
// obsolete syntax, are tolerated.
func (p *parser) xaddressList() []Address {
	var l []Address
	for {
		p.cfws()
		if p.empty() {
			break
		}
		if p.take(",") {
			continue
		}
		l = append(l, p.xaddress())
		p.cfws()
		if p.take(",") {
			continue
		}
		break
	}
	if l == nil {
		p.xerrorf("empty address list")
	}
	return l
}

// xaddress parses a mailbox or a group.
func (p *parser) xaddress() Address {
	p.cfws()
	var mb Mailbox
	if p.tryParse(func() { mb = p.xbareMailbox() }) {
		return mb
	}
	var name string
	if p.peekchar() != '<' {
		name = p.xphrase()
		p.cfws()
		if p.take(":") {
			return p.xgroup(name)
		}
	}
	mb = p.xangleAddr()
	mb.Name = name
	return mb
}

// xmailbox parses a mailbox, as in a mailbox-list. A group is a parse error.
func (p *parser) xmailbox() Mailbox {
	p.cfws()
	var mb Mailbox
	if p.tryParse(func() { mb = p.xbareMailbox() }) {
		return mb
	}
	var name string
	if p.peekchar() != '<' {
		name = p.xphrase()
		p.cfws()
	}
	mb = p.xangleAddr()
	mb.Name = name
	return mb
}

// xbareMailbox parses an addr-spec without display name or angle brackets,
// e.g. "user@example.com" directly in a From header. It must be followed by a
// list delimiter or end of input.
func (p *parser) xbareMailbox() Mailbox {
	lp, dom := p.xaddrSpec()
	p.cfws()
	if !p.empty() {
		c := p.peekchar()
		if c != ',' && c != ';' {
			p.xerrorf("leftover data after bare addr-spec")
		}
	}
	return Mailbox{Localpart: lp, Domain: dom}
}

// xangleAddr parses "<" addr-spec ">". An obsolete route ("@a,@b:") is parsed
// and discarded.
func (p *parser) xangleAddr() Mailbox {
	p.cfws()
	p.xtake("<")
	p.cfws()
	if p.peekchar() == '@' {
		// obs-route.
		for p.take("@") {
			p.xdomainName()
			p.cfws()
			if !p.take(",") {
				break
			}
			p.cfws()
		}
		p.xtake(":")
		p.cfws()
	}
	lp, dom := p.xaddrSpec()
	p.cfws()
	p.xtake(">")
	return Mailbox{Localpart: lp, Domain: dom}
}

// xgroup parses the remainder of a group after the display name and colon:
// an optional mailbox-list, then ";". Empty groups are valid.
func (p *parser) xgroup(name string) Group {
	g := Group{Name: name}
	for {
		p.cfws()
		if p.take(";") {
			break
		}
		if p.empty() {
			p.xerrorf("missing ; for group")
		}
		if p.take(",") {
			// Null entries, obsolete syntax.
			continue
		}
		g.Mailboxes = append(g.Mailboxes, p.xmailbox())
		p.cfws()
		if p.take(",") {
			continue
		}
		p.xtake(";")
		break
	}
	return g
}

// xaddrSpec parses localpart "@" domain.
func (p *parser) xaddrSpec() (rfc5321.Localpart, dns.IPDomain) {
	p.cfws()
	var s string
	if p.hasPrefix(`"`) {
		s = p.xquotedString()
	} else {
		s = p.xatom()
		for p.take(".") {
			s += "." + p.xatom()
		}
	}
	// In the wild, some services use large localparts for generated (bounce) addresses.
	if hdrvar.Pedantic && len(s) > 64 || len(s) > 128 {
		p.xerrorf("localpart longer than 64 octets")
	}
	p.cfws()
	p.xtake("@")
	p.cfws()
	return rfc5321.Localpart(s), p.xdomain()
}

// xdomain parses a domain name or an address literal like "[10.0.0.1]" or
// "[IPv6:...]".
func (p *parser) xdomain() dns.IPDomain {
	if p.take("[") {
		lit := p.takefn1("address literal", func(c rune, i int) bool {
			return c != ']' && c != '\r' && c != '\n'
		})
		p.xtake("]")
		addr := lit
		if len(addr) >= 5 && strings.EqualFold(addr[:5], "IPv6:") {
			addr = addr[5:]
		} else if strings.Contains(addr, ":") && hdrvar.Pedantic {
			// Senders that forget the IPv6 tag are relatively common, forgive them.
			p.xerrorf("ipv6 address literal must use syntax [IPv6:...], got %q", lit)
		}
		ip := net.ParseIP(addr)
		if ip == nil {
			p.xerrorf("invalid ip in address literal %q", lit)
		}
		return dns.IPDomain{IP: ip}
	}
	return dns.IPDomain{Domain: p.xdomainName()}
}

func (p *parser) xdomainName() dns.Domain {
	s := p.xsubdomain()
	for p.take(".") {
		s += "." + p.xsubdomain()
	}
	if len(s) > 255 {
		p.xerrorf("domain longer than 255 octets")
	}
	d, err := dns.ParseDomain(s)
	if err != nil {
		p.xerrorf("parsing domain name %q: %s", s, err)
	}
	return d
}

func (p *parser) xsubdomain() string {
	return p.takefn1("subdomain", func(c rune, i int) bool {
		if c > 0x7f {
			p.xcheckASCII(c)
			return true
		}
		return isalphadigit(c) || c == '-' || c == '_'
	})
}

// xatom parses an atom: atext characters, non-ASCII subject to the UTF-8
// policy.
func (p *parser) xatom() string {
	return p.takefn1("atom", func(c rune, i int) bool {
		if c > 0x7f {
			p.xcheckASCII(c)
			return true
		}
		return isalphadigit(c) || isatext(c)
	})
}

// xquotedString parses a quoted string, returning its decoded value without
// the surrounding double quotes and without escaping backslashes. Folding
// whitespace inside the string is unfolded.
func (p *parser) xquotedString() string {
	p.xtake(`"`)
	var s string
	var esc bool
	for {
		if esc {
			c := p.xchar()
			if !isquotedpair(c, p.utf8) {
				p.xerrorf("invalid quoted string, bad escaped char %c", c)
			}
			p.xcheckASCII(c)
			s += string(c)
			esc = false
			continue
		}
		// Unfold, dropping the line break and keeping the whitespace.
		if p.take("\r\n") || p.take("\n") {
			if c := p.peekchar(); c != ' ' && c != '\t' {
				p.xerrorf("bare newline in quoted string")
			}
			continue
		}
		c := p.xchar()
		if c == '\\' {
			esc = true
			continue
		}
		if c == '"' {
			return s
		}
		if c == '\t' || c >= ' ' && c < 0x7f && c != '\\' && c != '"' || c > 0x7f {
			p.xcheckASCII(c)
			s += string(c)
			continue
		}
		p.xerrorf("invalid character %q in quoted string", c)
	}
}

// xphrase parses a display name: words (atoms and quoted strings) separated
// by whitespace. Encoded words are decoded, adjacent encoded words are joined
// without space. Dots are allowed loosely, as in the obsolete phrase syntax,
// e.g. "John Q. Public" without quotes.
func (p *parser) xphrase() string {
	var name string
	prevEncoded := false
	seen := false
	for {
		sep := p.cfws()
		if p.empty() {
			break
		}
		c := p.peekchar()
		var word string
		encoded := false
		switch {
		case c == '"':
			word = p.xquotedString()
			if p.decodeQS && strings.Contains(word, "=?") {
				if s, err := rfc2047.DecodeHeader(word); err == nil {
					word = s
				}
			}
		case c == '.':
			p.xtaken(1)
			word = "."
			sep = false // A dot attaches to the previous word.
		case c > 0x7f || isalphadigit(c) || isatext(c):
			word = p.xatom()
			if rfc2047.IsEncodedWord(word) {
				if s, err := rfc2047.Decode(word); err == nil {
					word = s
					encoded = true
				}
			}
		default:
			if !seen {
				p.xerrorf("missing word in phrase, got char %c", c)
			}
			return name
		}
		// Original whitespace separates words, except between two encoded words.
		if seen && sep && !(prevEncoded && encoded) {
			name += " "
		}
		name += word
		prevEncoded = encoded
		seen = true
	}
	if !seen {
		p.xerrorf("missing phrase")
	}
	return name
}
