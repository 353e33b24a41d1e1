package ftp

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Reply codes used by the engine. The values form the externally observable
// contract of every handler and must not drift.
const (
	CodeCommandOkay          = 200
	CodeCommandNotImplSuper  = 202
	CodeSystemStatus         = 211
	CodeFileStatus           = 213
	CodeServiceReady         = 220
	CodeClosingControl       = 221
	CodeUserLoggedIn         = 230
	CodeFileActionOkay       = 250
	CodePathCreated          = 257
	CodeNeedPassword         = 331
	CodeServiceNotAvailable  = 421
	CodeSyntaxError          = 500
	CodeSyntaxErrorArguments = 501
	CodeCommandNotImpl       = 502
	CodeBadSequence          = 503
	CodeNotLoggedIn          = 530
	CodeFileUnavailable      = 550
)

// ReplySink receives exactly one terminal reply per request. The code is a
// three-digit protocol reply code, the message key selects a text template,
// and the payload is substituted into the template (or appended when the
// template has no placeholder).
type ReplySink interface {
	Send(code int, messageKey string, payload string) error
}

// messages maps "<code>.<key>" to a reply template. "{}" marks the payload
// substitution point. Keys missing here fall back to the per-code default.
var messages = map[string]string{
	"200.NOOP":     "NOOP command successful.",
	"200.OPTS":     "{}",
	"200.SITE":     "{}",
	"202.PASS":     "Already logged-in.",
	"211.SITE":     "{}",
	"213.MDTM":     "{}",
	"213.SIZE":     "{}",
	"220.REIN":     "Service ready for new user.",
	"220.WELCOME":  "Service ready for new user.",
	"221.QUIT":     "Goodbye.",
	"230.PASS":     "User logged in, proceed.",
	"230.USER":     "Already logged-in.",
	"250.CDUP":     "Directory changed to {}.",
	"250.CWD":      "Directory changed to {}.",
	"250.MLST":     "Listing {}",
	"257.PWD":      "\"{}\" is current directory.",
	"331.USER":     "User name okay, need password for {}.",
	"421.PASS":     "Maximum login limit has been reached.",
	"421.USER":     "Maximum login limit has been reached.",
	"500.EXEC":     "Command failed.",
	"501.MDTM":     "Syntax error in parameters or arguments: {}",
	"501.MLST":     "Syntax error in parameters or arguments: {}",
	"501.PASS":     "Syntax error in parameters or arguments.",
	"501.SITE":     "Syntax error in parameters or arguments: {}",
	"501.OPTS":     "Syntax error in parameters or arguments: {}",
	"503.PASS":     "Login with USER first.",
	"503.SITE":     "Bad sequence of commands: {}",
	"530.PASS":     "Authentication failed for user {}.",
	"530.USER":     "Not logged in.",
	"530.SITE":     "Access denied.",
	"550.CDUP":     "No such directory: {}",
	"550.CWD":      "No such directory: {}",
	"550.MDTM":     "{}: no such file or directory.",
	"550.SIZE":     "{}: no such file or directory.",
	"550.PWD":      "Cannot determine current directory.",
}

// defaultMessages provides reply text when no specific template is
// registered for the code/key pair.
var defaultMessages = map[int]string{
	CodeCommandOkay:          "Command okay.",
	CodeCommandNotImplSuper:  "Command not implemented, superfluous at this site.",
	CodeSystemStatus:         "{}",
	CodeFileStatus:           "{}",
	CodeServiceReady:         "Service ready.",
	CodeClosingControl:       "Service closing control connection.",
	CodeUserLoggedIn:         "User logged in, proceed.",
	CodeFileActionOkay:       "Requested file action okay, completed.",
	CodePathCreated:          "\"{}\" created.",
	CodeNeedPassword:         "User name okay, need password.",
	CodeServiceNotAvailable:  "Service not available.",
	CodeSyntaxError:          "Syntax error, command unrecognized.",
	CodeSyntaxErrorArguments: "Syntax error in parameters or arguments.",
	CodeCommandNotImpl:       "Command not implemented.",
	CodeBadSequence:          "Bad sequence of commands.",
	CodeNotLoggedIn:          "Not logged in.",
	CodeFileUnavailable:      "Requested action not taken.",
}

// renderMessage resolves the template for a code/key pair and substitutes
// the payload.
func renderMessage(code int, messageKey, payload string) string {
	tmpl, ok := messages[fmt.Sprintf("%d.%s", code, messageKey)]
	if !ok {
		tmpl, ok = defaultMessages[code]
		if !ok {
			tmpl = "{}"
		}
	}

	if strings.Contains(tmpl, "{}") {
		return strings.ReplaceAll(tmpl, "{}", payload)
	}
	return tmpl
}

// Writer is a ReplySink over an io.Writer, normally the control connection.
// It renders templates and handles multi-line replies with the dash
// continuation format.
type Writer struct {
	w io.Writer
}

var _ ReplySink = (*Writer)(nil)

// NewWriter creates a reply writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send implements ReplySink.
func (rw *Writer) Send(code int, messageKey string, payload string) error {
	text := renderMessage(code, messageKey, payload)

	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if i < len(lines)-1 {
			fmt.Fprintf(&b, "%d-%s\r\n", code, line)
		} else {
			fmt.Fprintf(&b, "%d %s\r\n", code, line)
		}
	}

	if _, err := io.WriteString(rw.w, b.String()); err != nil {
		return fmt.Errorf("failed to write reply %d: %w", code, err)
	}
	return nil
}

// FormatFTPTimestamp renders a modification time the way MDTM and MLST
// expect it: UTC, yyyyMMddHHmmss.SSS.
func FormatFTPTimestamp(t time.Time) string {
	return t.UTC().Format("20060102150405.000")
}
