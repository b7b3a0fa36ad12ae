package dns

import (
	"net"
)

// IPDomain is an ip address, a domain, or empty. Address literals in email
// addresses (e.g. "user@[10.0.0.1]") parse into the IP form.
type IPDomain struct {
	IP     net.IP
	Domain Domain
}

// IsZero returns if both IP and Domain are zero.
func (d IPDomain) IsZero() bool {
	return d.IP == nil && d.Domain == Domain{}
}

// IsIP returns whether this is an IP address.
func (d IPDomain) IsIP() bool {
	return len(d.IP) > 0
}

// String returns a string representation of either the IP or domain (with
// UTF-8).
func (d IPDomain) String() string {
	return d.XString(true)
}

// LogString returns a string with both ASCII-only and optional UTF-8
// representation.
func (d IPDomain) LogString() string {
	if len(d.IP) > 0 {
		return d.addressLiteral()
	}
	return d.Domain.LogString()
}

// XString is like String, but only returns UTF-8 domains if utf8 is true. IPs
// are returned as address literal, the syntax used in email addresses.
func (d IPDomain) XString(utf8 bool) string {
	if d.IsIP() {
		return d.addressLiteral()
	}
	return d.Domain.XName(utf8)
}

func (d IPDomain) addressLiteral() string {
	if d.IP.To4() == nil {
		return "[IPv6:" + d.IP.String() + "]"
	}
	return "[" + d.IP.String() + "]"
}
