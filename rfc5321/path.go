package rfc5321

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/letterd/headers/dns"
	"github.com/letterd/headers/hdrvar"
)

// Path is an SMTP forward/reverse path, as used in MAIL FROM and RCPT TO
// commands. The domain can be an address literal, e.g. "[10.0.0.1]".
type Path struct {
	Localpart Localpart
	IPDomain  dns.IPDomain
}

// IsZero returns if this is an empty Path.
func (p Path) IsZero() bool {
	return p.Localpart == "" && p.IPDomain.IsZero()
}

// String returns a string representation with ASCII-only domain name.
func (p Path) String() string {
	return p.XString(false)
}

// XString is like String, but returns unicode UTF-8 domain names if utf8 is
// true.
func (p Path) XString(utf8 bool) string {
	if p.IsZero() {
		return ""
	}
	return p.Localpart.String() + "@" + p.IPDomain.XString(utf8)
}

// LogString returns both the ASCII-only and optional UTF-8 representation.
func (p Path) LogString() string {
	if p.IsZero() {
		return ""
	}
	s := p.XString(true)
	lp := p.Localpart.String()
	qlp := strconv.QuoteToASCII(lp)
	escaped := qlp != `"`+lp+`"`
	if p.IPDomain.Domain.Unicode != "" || escaped {
		if escaped {
			lp = qlp
		}
		s += "/" + lp + "@" + p.IPDomain.XString(false)
	}
	return s
}

// ParsePath parses a path as used in MAIL FROM and RCPT TO commands, with
// surrounding angle brackets. A source route ("@a,@b:") is parsed and
// discarded. An empty path "<>", as used for the null reverse-path, returns a
// zero Path. Address literals are accepted as domain.
func ParsePath(s string) (path Path, err error) {
	p := &parser{s, 0}

	defer func() {
		x := recover()
		if x == nil {
			return
		}
		e, ok := x.(error)
		if !ok {
			panic(x)
		}
		err = fmt.Errorf("%w: %s", ErrBadAddress, e)
	}()

	o := p.o
	p.xtake("<")
	if p.take(">") {
		if !p.empty() {
			p.xerrorf("remaining after path: %q", p.remainder())
		}
		return Path{}, nil
	}
	r := p.xbarePath()
	p.xtake(">")
	if p.o-o > 256 {
		p.xerrorf("path longer than 256 octets")
	}
	if !p.empty() {
		p.xerrorf("remaining after path: %q", p.remainder())
	}
	return r, nil
}

func (p *parser) xbarePath() Path {
	// We parse but ignore any source routing.
	if p.take("@") {
		p.xdomain()
		for p.take(",") {
			p.xtake("@")
			p.xdomain()
		}
		p.xtake(":")
	}
	localpart := p.xlocalpart()
	p.xtake("@")
	return Path{Localpart: localpart, IPDomain: p.xipdomain()}
}

func (p *parser) xdomain() dns.Domain {
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
		return isalphadigit(c) || i > 0 && c == '-' || c > 0x7f
	})
}

func (p *parser) xldhstr() string {
	return p.takefn1("ldh-str", func(c rune, i int) bool {
		return isalphadigit(c) || i == 0 && c == '-'
	})
}

// Parse address-literal or domain.
func (p *parser) xipdomain() dns.IPDomain {
	if p.take("[") {
		c := p.peekchar()
		var ipv6 bool
		if !isdigit(c) {
			addrlit := p.xldhstr()
			p.xtake(":")
			if !strings.EqualFold(addrlit, "IPv6") {
				p.xerrorf("unrecognized address literal %q", addrlit)
			}
			ipv6 = true
		}
		ipaddr := p.takefn1("address literal", func(c rune, i int) bool {
			return c != ']'
		})
		p.xtake("]")
		ip := net.ParseIP(ipaddr)
		if ip == nil {
			p.xerrorf("invalid ip in address: %q", ipaddr)
		}
		isv4 := ip.To4() != nil
		if ipv6 && isv4 {
			p.xerrorf("ip address is not ipv6")
		} else if !ipv6 && !isv4 {
			if hdrvar.Pedantic || ip.To16() == nil {
				p.xerrorf("ip address is ipv6, must use syntax [IPv6:...]")
			}
			// Senders that forget the IPv6 tag are relatively common, forgive them.
		}
		return dns.IPDomain{IP: ip}
	}
	return dns.IPDomain{Domain: p.xdomain()}
}
