package wire

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Class is the display category of one line of debugger output.
type Class int

const (
	Plain Class = iota
	CurrentLine
	ExceptionLine
	StackLocation
	ErrorLine
	Prompt
)

func (c Class) String() string {
	switch c {
	case Plain:
		return "plain"
	case CurrentLine:
		return "current-line"
	case ExceptionLine:
		return "exception-line"
	case StackLocation:
		return "stack-location"
	case ErrorLine:
		return "error"
	case Prompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Markers are the substring/prefix patterns used to classify lines.
type Markers struct {
	CurrentLine   string   // substring, e.g. "->"
	ExceptionLine string   // substring, e.g. ">>"
	StackLocation string   // line prefix, e.g. "> "
	Errors        []string // substrings, e.g. "***", "Error:"
}

// Classify returns the class of line.  Precedence is fixed:
// error, stack-location, current-line, exception-line, plain.
func (m Markers) Classify(line string) Class {
	for _, e := range m.Errors {
		if e != "" && strings.Contains(line, e) {
			return ErrorLine
		}
	}
	switch {
	case m.StackLocation != "" && strings.HasPrefix(line, m.StackLocation):
		return StackLocation
	case m.CurrentLine != "" && strings.Contains(line, m.CurrentLine):
		return CurrentLine
	case m.ExceptionLine != "" && strings.Contains(line, m.ExceptionLine):
		return ExceptionLine
	}
	return Plain
}

// Palette holds one SGR parameter string (e.g. "93") per class.  An
// empty entry leaves that class uncolored.
type Palette struct {
	CurrentLine   string
	ExceptionLine string
	StackLocation string
	Prompt        string
	Error         string
}

func (p Palette) code(c Class) string {
	switch c {
	case CurrentLine:
		return p.CurrentLine
	case ExceptionLine:
		return p.ExceptionLine
	case StackLocation:
		return p.StackLocation
	case ErrorLine:
		return p.Error
	case Prompt:
		return p.Prompt
	}
	return ""
}

const reset = "\x1b[0m"

// Colorizer wraps text in ANSI escape sequences.
type Colorizer struct {
	Enabled bool
	Palette Palette
}

// Paint wraps s in the color for class c.  Disabled colorizers and
// classes without a color return s unchanged.
func (z Colorizer) Paint(c Class, s string) string {
	if !z.Enabled {
		return s
	}
	code := z.Palette.code(c)
	if code == "" {
		return s
	}
	return "\x1b[" + code + "m" + s + reset
}

// Strip removes all ANSI escape sequences, for consumers that are not
// terminals.
func Strip(s string) string {
	return ansi.Strip(s)
}
