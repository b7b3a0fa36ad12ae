package rfc5322

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"net/textproto"
	"time"

	"github.com/letterd/headers/mlog"
)

var ErrHeaderSeparator = errors.New("no header separator found")

// ReadHeaders returns the header section of a message, including the line
// endings of the header lines but without the blank separator line. Both crlf
// and bare lf line endings are accepted, the latter common in mbox files.
// Returns ErrHeaderSeparator if no header separator is found.
func ReadHeaders(msg *bufio.Reader) ([]byte, error) {
	buf := []byte{}
	for {
		line, err := msg.ReadBytes('\n')
		if err != io.EOF && err != nil {
			return nil, err
		}
		if string(line) == "\r\n" || string(line) == "\n" {
			return buf, nil
		}
		buf = append(buf, line...)
		if err == io.EOF {
			return nil, ErrHeaderSeparator
		}
	}
}

// ParseHeaderFields parses only the header fields in "fields" from the
// complete header section "header", while using "scratch" as temporary space,
// preventing lots of unneeded allocations when only a few headers are needed.
func ParseHeaderFields(header []byte, scratch []byte, fields [][]byte) (textproto.MIMEHeader, error) {
	// Gather the raw lines for the fields, with continuations, without the other
	// headers. Put them in a byte slice and only parse those headers. For now, use
	// mail.ReadMessage without letting it do allocations for all headers.
	scratch = scratch[:0]
	var keepcontinuation bool
	for len(header) > 0 {
		if header[0] == ' ' || header[0] == '\t' {
			// Continuation.
			i := bytes.IndexByte(header, '\n')
			if i < 0 {
				i = len(header)
			} else {
				i++
			}
			if keepcontinuation {
				scratch = append(scratch, header[:i]...)
			}
			header = header[i:]
			continue
		}
		i := bytes.IndexByte(header, ':')
		if i < 0 || i > 0 && (header[i-1] == ' ' || header[i-1] == '\t') {
			i = bytes.IndexByte(header, '\n')
			if i < 0 {
				break
			}
			header = header[i+1:]
			keepcontinuation = false
			continue
		}
		k := header[:i]
		keepcontinuation = false
		for _, f := range fields {
			if bytes.EqualFold(k, f) {
				keepcontinuation = true
				break
			}
		}
		i = bytes.IndexByte(header, '\n')
		if i < 0 {
			i = len(header)
		} else {
			i++
		}
		if keepcontinuation {
			scratch = append(scratch, header[:i]...)
		}
		header = header[i:]
	}

	if len(scratch) == 0 {
		return nil, nil
	}

	scratch = append(scratch, "\r\n"...)

	msg, err := mail.ReadMessage(bytes.NewReader(scratch))
	if err != nil {
		return nil, fmt.Errorf("reading message header")
	}
	return textproto.MIMEHeader(msg.Header), nil
}

// Envelope holds the parsed basic/common message headers.
type Envelope struct {
	Date      time.Time
	Subject   string // Decoded.
	From      []Address
	Sender    []Address
	ReplyTo   []Address
	To        []Address
	CC        []Address
	BCC       []Address
	InReplyTo string // From In-Reply-To header, includes <>.
	MessageID string // From Message-Id header, includes <>.
}

var envelopeFields = [][]byte{
	[]byte("date"),
	[]byte("subject"),
	[]byte("from"),
	[]byte("sender"),
	[]byte("reply-to"),
	[]byte("to"),
	[]byte("cc"),
	[]byte("bcc"),
	[]byte("in-reply-to"),
	[]byte("message-id"),
}

// ParseEnvelope parses the common structured headers from a raw header
// section. Individual headers that do not parse are logged at debug level and
// left zero, a message with a broken To header usually still has use. Uses
// DefaultParser.
func ParseEnvelope(elog *slog.Logger, header []byte) (*Envelope, error) {
	return DefaultParser.ParseEnvelope(elog, header)
}

// ParseEnvelope parses the common structured headers from a raw header
// section.
func (pr Parser) ParseEnvelope(elog *slog.Logger, header []byte) (*Envelope, error) {
	log := mlog.New("rfc5322", elog)

	h, err := ParseHeaderFields(header, nil, envelopeFields)
	if err != nil {
		return nil, fmt.Errorf("parsing header fields: %w", err)
	}

	addrs := func(k string) []Address {
		v := h.Get(k)
		if v == "" {
			return nil
		}
		l, err := pr.AddressList(v)
		if err != nil {
			log.Debugx("parsing address header (continuing)", err, slog.String("header", k), slog.String("value", v))
			return nil
		}
		return l
	}

	env := &Envelope{
		Subject:   h.Get("Subject"),
		From:      addrs("From"),
		Sender:    addrs("Sender"),
		ReplyTo:   addrs("Reply-To"),
		To:        addrs("To"),
		CC:        addrs("Cc"),
		BCC:       addrs("Bcc"),
		InReplyTo: h.Get("In-Reply-To"),
		MessageID: h.Get("Message-Id"),
	}
	if v := h.Get("Date"); v != "" {
		tm, err := pr.Date(v)
		if err != nil {
			log.Debugx("parsing date header (continuing)", err, slog.String("value", v))
		} else {
			env.Date = tm
		}
	}
	if s, err := pr.Unstructured(env.Subject); err == nil {
		env.Subject = s
	} else {
		log.Debugx("decoding subject header (continuing)", err)
	}
	return env, nil
}
