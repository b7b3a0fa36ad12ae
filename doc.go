/*
Command headers parses email message headers: address headers like From and
Reply-To, Date, Message-ID and unstructured headers like Subject, with RFC
2047 encoded words decoded and optional UTF-8 per RFC 6532.

	usage: headers [-config headers.conf] [-loglevel level] [-pedantic] ...
	       headers address [-single] [-mailboxes] [value]
	       headers unstructured [value]
	       headers date [value]
	       headers messageid [-canonical] [value]
	       headers envelope < message
	       headers mboxscan mboxfile
	       headers config describe
	       headers version
	       headers help [command ...]

Most of the functionality is in the importable packages rfc5322, rfc2047 and
rfc5321.
*/
package main
