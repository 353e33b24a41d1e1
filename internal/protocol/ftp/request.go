package ftp

import "strings"

// Request is one parsed control-connection command line.
type Request struct {
	// Line is the raw line as received, without the trailing CRLF.
	Line string

	// Verb is the command token, uppercased.
	Verb string

	// Argument is everything after the verb, or "" when absent.
	Argument string
}

// ParseRequest splits a control line into verb and argument. The verb is
// uppercased; the argument keeps its original spelling because path and
// username arguments are case-significant.
func ParseRequest(line string) *Request {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimLeft(line, " ")

	verb := trimmed
	argument := ""
	if i := strings.IndexByte(trimmed, ' '); i >= 0 {
		verb = trimmed[:i]
		argument = strings.TrimLeft(trimmed[i+1:], " ")
	}

	return &Request{
		Line:     line,
		Verb:     strings.ToUpper(verb),
		Argument: argument,
	}
}

// HasArgument reports whether the request carried a non-empty argument.
func (r *Request) HasArgument() bool {
	return r.Argument != ""
}
