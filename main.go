package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/mjl-/sconf"

	"github.com/letterd/headers/hdrvar"
	"github.com/letterd/headers/mlog"
	"github.com/letterd/headers/rfc5322"
)

var commands = []struct {
	cmd string
	fn  func(c *cmd)
}{
	{"address", cmdAddress},
	{"unstructured", cmdUnstructured},
	{"date", cmdDate},
	{"messageid", cmdMessageID},
	{"envelope", cmdEnvelope},
	{"mboxscan", cmdMboxscan},
	{"config describe", cmdConfigDescribe},
	{"version", cmdVersion},
	{"help", cmdHelp},

	// Not listed.
	{"helpall", cmdHelpall},
}

var cmds []cmd

func init() {
	for _, xc := range commands {
		c := cmd{words: strings.Split(xc.cmd, " "), fn: xc.fn}
		cmds = append(cmds, c)
	}
}

type cmd struct {
	words []string
	fn    func(c *cmd)

	// Set before calling command.
	flag     *flag.FlagSet
	flagArgs []string
	_gather  bool // Set when using Parse to gather usage for a command.

	// Set by invoked command or Parse.
	unlisted bool   // If set, command is not listed until at least some words are matched from command.
	params   string // Arguments to command. Multiple lines possible.
	help     string // Additional explanation. First line is synopsis, the rest is only printed for an explicit help/usage for that command.
	args     []string

	log mlog.Log
}

func (c *cmd) Parse() []string {
	// To gather params and usage information, we just run the command but cause this
	// panic after the command has registered its flags and set its params and help
	// information. This is then caught and that info printed.
	if c._gather {
		panic("gather")
	}

	c.flag.Usage = c.Usage
	c.flag.Parse(c.flagArgs)
	c.args = c.flag.Args()
	return c.args
}

func (c *cmd) gather() {
	c.flag = flag.NewFlagSet("headers "+strings.Join(c.words, " "), flag.ExitOnError)
	c._gather = true
	defer func() {
		x := recover()
		// panic generated by Parse.
		if x != "gather" {
			panic(x)
		}
	}()
	c.fn(c)
}

func (c *cmd) makeUsage() string {
	var r strings.Builder
	cs := "headers " + strings.Join(c.words, " ")
	for i, line := range strings.Split(strings.TrimSpace(c.params), "\n") {
		s := ""
		if i == 0 {
			s = "usage:"
		}
		if line != "" {
			line = " " + line
		}
		fmt.Fprintf(&r, "%6s %s%s\n", s, cs, line)
	}
	c.flag.SetOutput(&r)
	c.flag.PrintDefaults()
	return r.String()
}

func (c *cmd) printUsage() {
	fmt.Fprint(os.Stderr, c.makeUsage())
	if c.help != "" {
		fmt.Fprint(os.Stderr, "\n"+c.help+"\n")
	}
}

func (c *cmd) Usage() {
	c.printUsage()
	os.Exit(2)
}

func cmdHelp(c *cmd) {
	c.params = "[command ...]"
	c.help = `Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}

	prefix := func(l, pre []string) bool {
		if len(pre) > len(l) {
			return false
		}
		return slices.Equal(pre, l[:len(pre)])
	}

	var partial []cmd
	for _, c := range cmds {
		if slices.Equal(c.words, args) {
			c.gather()
			fmt.Print(c.makeUsage())
			if c.help != "" {
				fmt.Print("\n" + c.help + "\n")
			}
			return
		} else if prefix(c.words, args) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 0 {
		fmt.Fprintf(os.Stderr, "%s: unknown command\n", strings.Join(args, " "))
		os.Exit(2)
	}
	for _, c := range partial {
		c.gather()
		line := "headers " + strings.Join(c.words, " ")
		fmt.Printf("%s\n", line)
		if c.help != "" {
			fmt.Printf("\t%s\n", strings.Split(c.help, "\n")[0])
		}
	}
}

func cmdHelpall(c *cmd) {
	c.unlisted = true
	c.help = `Print all detailed usage and help information for all listed commands.

Used to generate documentation.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	n := 0
	for _, c := range cmds {
		c.gather()
		if c.unlisted {
			continue
		}
		if n > 0 {
			fmt.Fprintf(os.Stderr, "\n")
		}
		n++

		fmt.Fprintf(os.Stderr, "# headers %s\n\n", strings.Join(c.words, " "))
		if c.help != "" {
			fmt.Fprintln(os.Stderr, c.help+"\n")
		}
		s := c.makeUsage()
		s = "\t" + strings.ReplaceAll(s, "\n", "\n\t")
		fmt.Fprintln(os.Stderr, s)
	}
}

func usage(l []cmd, unlisted bool) {
	var lines []string
	if !unlisted {
		lines = append(lines, "headers [-config headers.conf] [-loglevel level] [-pedantic] ...")
	}
	for _, c := range l {
		c.gather()
		if c.unlisted && !unlisted {
			continue
		}
		for _, line := range strings.Split(c.params, "\n") {
			x := append([]string{"headers"}, c.words...)
			if line != "" {
				x = append(x, line)
			}
			lines = append(lines, strings.Join(x, " "))
		}
	}
	for i, line := range lines {
		pre := "       "
		if i == 0 {
			pre = "usage: "
		}
		fmt.Fprintln(os.Stderr, pre+line)
	}
	os.Exit(2)
}

// Config is the optional config file, settings can be overridden with
// command-line flags.
type Config struct {
	LogLevel            string `sconf:"optional" sconf-doc:"Log level: debug, info, warn, error. Default info."`
	Pedantic            bool   `sconf:"optional" sconf-doc:"Refuse protocol violations instead of working around them."`
	AllowUTF8           bool   `sconf:"optional" sconf-doc:"Accept raw non-ASCII UTF-8 in header bodies. If false, non-ASCII must use encoded words."`
	DecodeQuotedStrings bool   `sconf:"optional" sconf-doc:"Also decode encoded words inside quoted strings, invalid but widely generated."`
}

var config = Config{AllowUTF8: true, DecodeQuotedStrings: true}

var configPath string
var loglevel string
var pedantic bool

func mustLoadConfig() {
	if configPath != "" {
		err := sconf.ParseFile(configPath, &config)
		xcheckf(err, "parsing config file")
	}
	if loglevel != "" {
		config.LogLevel = loglevel
	}
	if config.LogLevel != "" {
		level, err := mlog.ParseLevel(config.LogLevel)
		xcheckf(err, "parsing log level")
		slog.SetLogLoggerLevel(level)
	}
	if pedantic {
		config.Pedantic = true
	}
	hdrvar.Pedantic = config.Pedantic
}

// parser returns the header parser as configured.
func parser() rfc5322.Parser {
	p := rfc5322.Parser{DecodeQuotedStrings: config.DecodeQuotedStrings}
	if config.AllowUTF8 {
		p.UTF8 = rfc5322.AllowUTF8
	}
	return p
}

func main() {
	log.SetFlags(0)

	flag.StringVar(&configPath, "config", envString("HEADERSCONF", ""), "optional configuration file, defaults to $HEADERSCONF")
	flag.StringVar(&loglevel, "loglevel", "", "if non-empty, this log level is set early in startup")
	flag.BoolVar(&pedantic, "pedantic", false, "protocol violations result in errors instead of accepting/working around them")

	flag.Usage = func() { usage(cmds, false) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage(cmds, false)
	}

	var partial []cmd
next:
	for _, c := range cmds {
		for i, w := range c.words {
			if i >= len(args) || w != args[i] {
				if i > 0 {
					partial = append(partial, c)
				}
				continue next
			}
		}
		c.flag = flag.NewFlagSet("headers "+strings.Join(c.words, " "), flag.ExitOnError)
		c.flagArgs = args[len(c.words):]
		c.log = mlog.New(strings.Join(c.words, ""), nil)
		c.fn(&c)
		return
	}
	if len(partial) > 0 {
		usage(partial, true)
	}
	usage(cmds, false)
}

func envString(k, def string) string {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	return s
}

func xcheckf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Fatalf("%s: %s", msg, err)
}

// xarg returns the single argument, or stdin if no argument was given.
func xarg(c *cmd, args []string) string {
	if len(args) > 1 {
		c.Usage()
	}
	if len(args) == 1 {
		return args[0]
	}
	buf, err := io.ReadAll(os.Stdin)
	xcheckf(err, "reading stdin")
	return strings.TrimRight(string(buf), "\r\n")
}

func xprintJSON(v any) {
	buf, err := json.MarshalIndent(v, "", "\t")
	xcheckf(err, "marshal json")
	fmt.Printf("%s\n", buf)
}

// addressJSON makes the mailbox/group distinction visible in json output.
type addressJSON struct {
	Mailbox *rfc5322.Mailbox `json:",omitempty"`
	Group   *rfc5322.Group   `json:",omitempty"`
	Packed  string
}

func addressesJSON(l []rfc5322.Address) []addressJSON {
	r := make([]addressJSON, 0, len(l))
	for _, a := range l {
		aj := addressJSON{Packed: a.Pack(true)}
		switch v := a.(type) {
		case rfc5322.Mailbox:
			aj.Mailbox = &v
		case rfc5322.Group:
			aj.Group = &v
		}
		r = append(r, aj)
	}
	return r
}

func cmdAddress(c *cmd) {
	c.params = "[-single] [-mailboxes] [value]"
	c.help = `Parse an address header body like From, To or Reply-To, printing the result as JSON.

The value is taken from the argument, or from stdin if absent. Groups are
accepted. With -single, exactly one address is required, as in a Sender
header. With -mailboxes, groups are not allowed, as in a mailbox-list.
`
	var single, mailboxes bool
	c.flag.BoolVar(&single, "single", false, "parse a single address, as in a Sender header")
	c.flag.BoolVar(&mailboxes, "mailboxes", false, "parse a mailbox-list, rejecting groups")
	args := c.Parse()
	mustLoadConfig()
	s := xarg(c, args)

	p := parser()
	switch {
	case single && mailboxes:
		c.Usage()
	case single:
		a, err := p.Sender(s)
		xcheckf(err, "parsing address")
		xprintJSON(addressesJSON([]rfc5322.Address{a}))
	case mailboxes:
		l, err := p.MailboxList(s)
		xcheckf(err, "parsing mailbox list")
		xprintJSON(l)
	default:
		l, err := p.AddressList(s)
		xcheckf(err, "parsing address list")
		xprintJSON(addressesJSON(l))
	}
}

func cmdUnstructured(c *cmd) {
	c.params = "[value]"
	c.help = `Decode an unstructured header body like Subject.

Folding whitespace is unfolded and RFC 2047 encoded words are decoded.
`
	args := c.Parse()
	mustLoadConfig()
	s := xarg(c, args)

	r, err := parser().Unstructured(s)
	xcheckf(err, "parsing unstructured header")
	fmt.Println(r)
}

func cmdDate(c *cmd) {
	c.params = "[value]"
	c.help = `Parse a Date header body, printing the time in RFC 3339 form.`
	args := c.Parse()
	mustLoadConfig()
	s := xarg(c, args)

	tm, err := parser().Date(s)
	xcheckf(err, "parsing date header")
	fmt.Println(tm.Format(time.RFC3339))
}

func cmdMessageID(c *cmd) {
	c.params = "[-canonical] [value]"
	c.help = `Parse a Message-ID header body, printing the id without angle brackets.

With -canonical, a canonicalized form for matching with References and
In-Reply-To is printed, lower-cased and without unneeded quoting.
`
	var canonical bool
	c.flag.BoolVar(&canonical, "canonical", false, "canonicalize for threading comparisons")
	args := c.Parse()
	mustLoadConfig()
	s := xarg(c, args)

	if canonical {
		id, raw, err := rfc5322.MessageIDCanonical(s)
		xcheckf(err, "canonicalizing message-id header")
		if raw {
			c.log.Debugx("message-id is not localpart@domain, using raw value", nil)
		}
		fmt.Println(id)
		return
	}
	id, err := parser().MessageID(s)
	xcheckf(err, "parsing message-id header")
	fmt.Println(id)
}

func cmdEnvelope(c *cmd) {
	c.params = "< message"
	c.help = `Read a message from stdin and print its parsed envelope as JSON.

Individual broken headers are logged at debug level and left zero in the
output, like a message store would handle them.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	mustLoadConfig()

	hdr, err := rfc5322.ReadHeaders(bufio.NewReader(os.Stdin))
	xcheckf(err, "reading header section")
	env, err := parser().ParseEnvelope(c.log.Logger, hdr)
	xcheckf(err, "parsing envelope")
	xprintJSON(makeEnvelopeJSON(env))
}

// envelopeJSON is Envelope with the address headers made type-explicit.
type envelopeJSON struct {
	Date      time.Time
	Subject   string
	From      []addressJSON
	Sender    []addressJSON
	ReplyTo   []addressJSON
	To        []addressJSON
	CC        []addressJSON
	BCC       []addressJSON
	InReplyTo string
	MessageID string
}

func makeEnvelopeJSON(env *rfc5322.Envelope) envelopeJSON {
	return envelopeJSON{
		Date:      env.Date,
		Subject:   env.Subject,
		From:      addressesJSON(env.From),
		Sender:    addressesJSON(env.Sender),
		ReplyTo:   addressesJSON(env.ReplyTo),
		To:        addressesJSON(env.To),
		CC:        addressesJSON(env.CC),
		BCC:       addressesJSON(env.BCC),
		InReplyTo: env.InReplyTo,
		MessageID: env.MessageID,
	}
}

func cmdMboxscan(c *cmd) {
	c.params = "mboxfile"
	c.help = `Parse the envelope of each message in an mbox file.

Prints one line per message with date, first From address and subject, and a
summary with the number of messages that failed to parse. Useful to see how a
real-world mailbox holds up against the parser, e.g. with -pedantic.
`
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}
	mustLoadConfig()

	f, err := os.Open(args[0])
	xcheckf(err, "open mbox file")
	defer f.Close()

	p := parser()
	mr := mbox.NewReader(f)
	var n, failed int
	for {
		r, err := mr.NextMessage()
		if err == io.EOF {
			break
		}
		xcheckf(err, "next message in mbox")
		n++
		hdr, err := rfc5322.ReadHeaders(bufio.NewReader(r))
		if err != nil {
			failed++
			c.log.Errorx("reading header section", err, slog.Int("message", n))
			continue
		}
		env, err := p.ParseEnvelope(c.log.Logger, hdr)
		if err != nil {
			failed++
			c.log.Errorx("parsing envelope", err, slog.Int("message", n))
			continue
		}
		var from string
		if len(env.From) > 0 {
			from = env.From[0].Pack(true)
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", n, env.Date.Format(time.RFC3339), from, env.Subject)
	}
	fmt.Printf("%d messages, %d envelopes failed\n", n, failed)
}

func cmdConfigDescribe(c *cmd) {
	c.params = ">headers.conf"
	c.help = `Print an annotated example config file.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	err := sconf.Describe(os.Stdout, config)
	xcheckf(err, "describing config")
}

func cmdVersion(c *cmd) {
	c.help = `Prints this version of the tool.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	fmt.Println(hdrvar.Version)
}
