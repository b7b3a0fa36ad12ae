package rfc5322

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReadHeaders(t *testing.T) {
	check := func(msg, exp string) {
		t.Helper()
		h, err := ReadHeaders(bufio.NewReader(strings.NewReader(msg)))
		tcheck(t, err, "reading headers")
		tcompare(t, string(h), exp)
	}

	check("Subject: test\r\n\r\nbody\r\n", "Subject: test\r\n")
	check("Subject: test\nFrom: a@b.example\n\nbody\n", "Subject: test\nFrom: a@b.example\n")
	check("Subject: folded\r\n over lines\r\n\r\n", "Subject: folded\r\n over lines\r\n")
	check("\r\nbody only\r\n", "")

	_, err := ReadHeaders(bufio.NewReader(strings.NewReader("Subject: test\r\nno separator")))
	if !errors.Is(err, ErrHeaderSeparator) {
		t.Fatalf("expected ErrHeaderSeparator, got %v", err)
	}
}

func TestParseHeaderFields(t *testing.T) {
	header := []byte("Subject: hi\r\nFrom: a@b.example\r\nX-Mailer: test\r\nTo: c@d.example,\r\n e@f.example\r\n")

	fields := [][]byte{[]byte("subject"), []byte("to")}
	h, err := ParseHeaderFields(header, nil, fields)
	tcheck(t, err, "parsing header fields")
	tcompare(t, h.Get("Subject"), "hi")
	tcompare(t, h.Get("To"), "c@d.example, e@f.example")
	tcompare(t, h.Get("From"), "")

	// No requested fields present.
	h, err = ParseHeaderFields(header, nil, [][]byte{[]byte("cc")})
	tcheck(t, err, "parsing header fields")
	if h != nil {
		t.Fatalf("expected nil header, got %v", h)
	}
}

func TestParseEnvelope(t *testing.T) {
	header := []byte(strings.Join([]string{
		"From: Krist <k@example.com>\r\n",
		"To: mjl@mox.example, friends: a@b.example;\r\n",
		"Reply-To: <k@example.com>\r\n",
		"Subject: =?utf-8?q?hi_=E2=98=BA?=\r\n",
		"Date: Fri, 21 Nov 1997 09:55:06 -0600\r\n",
		"Message-ID: <mid@example.com>\r\n",
		"In-Reply-To: <prev@example.com>\r\n",
	}, ""))

	env, err := ParseEnvelope(nil, header)
	tcheck(t, err, "parsing envelope")

	tcompare(t, env.From, []Address{mb("Krist", "k", xdomain(t, "example.com"))})
	tcompare(t, env.To, []Address{
		mb("", "mjl", xdomain(t, "mox.example")),
		Group{"friends", []Mailbox{mb("", "a", xdomain(t, "b.example"))}},
	})
	tcompare(t, env.ReplyTo, []Address{mb("", "k", xdomain(t, "example.com"))})
	tcompare(t, env.Subject, "hi ☺")
	tcompare(t, env.MessageID, "<mid@example.com>")
	tcompare(t, env.InReplyTo, "<prev@example.com>")
	if exp := time.Date(1997, 11, 21, 9, 55, 6, 0, time.FixedZone("-0600", -6*3600)); !env.Date.Equal(exp) {
		t.Fatalf("got date %v, expected %v", env.Date, exp)
	}

	// A broken address header is logged and skipped, not an error.
	header = []byte("From: not an address\r\nSubject: still here\r\n")
	env, err = ParseEnvelope(nil, header)
	tcheck(t, err, "parsing envelope with broken from")
	if env.From != nil {
		t.Fatalf("expected no from addresses, got %v", env.From)
	}
	tcompare(t, env.Subject, "still here")
}
