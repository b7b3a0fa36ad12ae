package rfc5321

import (
	"errors"
	"fmt"
)

var ErrBadParams = errors.New("invalid esmtp parameters")

// Param is an ESMTP parameter, a keyword with optional value, as used on MAIL
// FROM and RCPT TO commands, e.g. "SIZE=123" or "BODY=8BITMIME". Value is
// empty for a keyword without "=".
type Param struct {
	Key   string
	Value string
}

// String returns the parameter in the form used on an SMTP command.
func (p Param) String() string {
	if p.Value == "" {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// ParseParams parses a list of ESMTP parameters, separated by one or more
// spaces or tabs. An empty string parses into a nil list.
func ParseParams(s string) (params []Param, err error) {
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
		err = fmt.Errorf("%w: %s", ErrBadParams, e)
	}()

	if p.empty() {
		return nil, nil
	}
	params = append(params, p.xparam())
	for !p.empty() {
		p.takefn1("whitespace", func(c rune, i int) bool { return c == ' ' || c == '\t' })
		params = append(params, p.xparam())
	}
	return params, nil
}

func (p *parser) xparam() Param {
	key := p.xparamKeyword()
	var value string
	if p.take("=") {
		value = p.xparamValue()
	}
	return Param{key, value}
}

func (p *parser) xparamKeyword() string {
	return p.takefn1("parameter keyword", func(c rune, i int) bool {
		return isalphadigit(c) || i > 0 && c == '-'
	})
}

func (p *parser) xparamValue() string {
	// Printable ASCII, except "=" and space.
	return p.takefn1("parameter value", func(c rune, i int) bool {
		return c >= 33 && c <= 60 || c >= 62 && c <= 126
	})
}
