// Package wire implements the line-oriented framing used on the bridge
// socket.  There are no length prefixes or message ids: every message
// is UTF-8 text terminated by a configurable delimiter, exactly as a
// plain interactive terminal session would carry it.
package wire

import (
	"strings"
	"unicode/utf8"
)

// Supported delimiters.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Codec encodes and frames text for one session.  Both endpoints must
// be configured with the same EOL.
type Codec struct {
	EOL string
}

// NewCodec returns a Codec for eol, falling back to CRLF (telnet
// convention) when eol is empty.
func NewCodec(eol string) Codec {
	if eol == "" {
		eol = CRLF
	}
	return Codec{EOL: eol}
}

// Encode converts text to wire bytes.
func (c Codec) Encode(text string) []byte {
	return []byte(text)
}

// Decode converts wire bytes to text.  Invalid UTF-8 sequences are
// replaced rather than rejected so a partial multi-byte read never
// aborts a session.
func (c Codec) Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// Frame terminates line with the session delimiter.  Any delimiter
// already present is replaced, so Frame is idempotent.
func (c Codec) Frame(line string) string {
	return TrimEOL(line) + c.EOL
}

// TrimEOL removes any trailing CR and LF bytes.
func TrimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// SplitLines splits s into lines on LF or CRLF.  A trailing delimiter
// does not produce an empty final element.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, CRLF, LF)
	lines := strings.Split(s, LF)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Visible makes CR and LF printable for trace logs.
func Visible(s string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(s)
}
