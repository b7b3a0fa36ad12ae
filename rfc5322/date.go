package rfc5322

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrBadDate = errors.New("invalid date header")

var dayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Obsolete alphabetic zones. Other alphabetic zones, including the military
// single letters, carry no usable offset and parse as -0000.
var obsZones = map[string]int{
	"UT":  0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// Date parses the content of a Date header, e.g.
// "Fri, 21 Nov 1997 09:55:06 -0600", including obsolete forms like two-digit
// years and alphabetic time zones. Uses DefaultParser.
func Date(s string) (time.Time, error) {
	return DefaultParser.Date(s)
}

// Date parses the content of a Date header.
func (pr Parser) Date(s string) (tm time.Time, rerr error) {
	defer recoverParse(&rerr, ErrBadDate)
	p := pr.newParser(s)

	p.cfws()
	// Optional day of week.
	if isalpha(p.peekchar()) {
		name := p.xalpha()
		p.cfws()
		p.xtake(",")
		if !isDayName(name) {
			p.xerrorf("unknown day of week %q", name)
		}
		p.cfws()
	}

	day := p.xdateNumber("day", 1, 2)
	p.cfws()
	month := p.xmonth()
	p.cfws()
	year := p.xyear()
	p.cfws()

	hour := p.xdateNumber("hour", 2, 2)
	p.cfws()
	p.xtake(":")
	p.cfws()
	min := p.xdateNumber("minute", 2, 2)
	p.cfws()
	sec := 0
	if p.take(":") {
		p.cfws()
		sec = p.xdateNumber("second", 2, 2)
		p.cfws()
	}
	if day < 1 || day > 31 || hour > 23 || min > 59 || sec > 60 {
		p.xerrorf("time out of range")
	}

	loc := p.xzone()
	p.xend()

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc), nil
}

func (p *parser) xalpha() string {
	return p.takefn1("name", func(c rune, i int) bool {
		return isalpha(c)
	})
}

func (p *parser) xdateNumber(what string, min, max int) int {
	s := p.takefn1(what, func(c rune, i int) bool {
		return isdigit(c) && i < max
	})
	if len(s) < min {
		p.xerrorf("expected at least %d digits for %s", min, what)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.xerrorf("bad number %q for %s: %s", s, what, err)
	}
	return v
}

func (p *parser) xmonth() int {
	name := p.xalpha()
	for i, m := range monthNames {
		// Some senders write the full month name.
		if strings.EqualFold(name, m) || len(name) > 3 && strings.EqualFold(name[:3], m) {
			return i + 1
		}
	}
	p.xerrorf("unknown month %q", name)
	return 0
}

func (p *parser) xyear() int {
	s := p.takefn1("year", func(c rune, i int) bool {
		return isdigit(c)
	})
	v, err := strconv.Atoi(s)
	if err != nil {
		p.xerrorf("bad year %q: %s", s, err)
	}
	// Obsolete two and three digit years.
	switch {
	case len(s) == 2 && v < 50:
		v += 2000
	case len(s) == 2:
		v += 1900
	case len(s) == 3:
		v += 1900
	case len(s) < 2:
		p.xerrorf("expected at least two digits for year")
	}
	return v
}

func (p *parser) xzone() *time.Location {
	if p.empty() || p.hasPrefix("(") {
		// Missing zone, common enough in the wild. Unknown offset.
		return time.FixedZone("-0000", 0)
	}
	var sign int
	if p.take("+") {
		sign = 1
	} else if p.take("-") {
		sign = -1
	}
	if sign != 0 {
		hh := p.xdateNumber("zone hours", 2, 2)
		mm := p.xdateNumber("zone minutes", 2, 2)
		if mm > 59 {
			p.xerrorf("zone minutes out of range")
		}
		offset := sign * (hh*3600 + mm*60)
		name := "+"
		if sign < 0 {
			name = "-"
		}
		name += twodigit(hh) + twodigit(mm)
		return time.FixedZone(name, offset)
	}
	name := p.xalpha()
	if offset, ok := obsZones[strings.ToUpper(name)]; ok {
		return time.FixedZone(strings.ToUpper(name), offset)
	}
	return time.FixedZone("-0000", 0)
}

func twodigit(v int) string {
	return string([]byte{'0' + byte(v/10), '0' + byte(v%10)})
}

func isDayName(s string) bool {
	for _, d := range dayNames {
		if strings.EqualFold(s, d) {
			return true
		}
	}
	return false
}
