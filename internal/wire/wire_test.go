package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCodec_Default(t *testing.T) {
	assert.Equal(t, CRLF, NewCodec("").EOL)
	assert.Equal(t, LF, NewCodec(LF).EOL)
}

func TestCodec_Frame(t *testing.T) {
	tests := []struct {
		eol  string
		in   string
		want string
	}{
		{CRLF, "c", "c\r\n"},
		{CRLF, "c\n", "c\r\n"},
		{CRLF, "c\r\n", "c\r\n"},
		{LF, "where", "where\n"},
		{LF, "where\r\n", "where\n"},
		{LF, "", "\n"},
	}
	for _, tt := range tests {
		t.Run(Visible(tt.eol+tt.in), func(t *testing.T) {
			c := NewCodec(tt.eol)
			assert.Equal(t, tt.want, c.Frame(tt.in))
			assert.Equal(t, tt.want, c.Frame(c.Frame(tt.in)), "Frame should be idempotent")
		})
	}
}

func TestCodec_Decode(t *testing.T) {
	c := NewCodec(CRLF)
	assert.Equal(t, "héllo", c.Decode(c.Encode("héllo")))

	// A multi-byte rune cut in half is replaced, not rejected.
	b := []byte("h\xc3")
	assert.Equal(t, "h�", c.Decode(b))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single no eol", "abc", []string{"abc"}},
		{"single lf", "abc\n", []string{"abc"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"mixed", "a\nb\r\nc", []string{"a", "b", "c"}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.in))
		})
	}
}

func TestVisible(t *testing.T) {
	assert.Equal(t, `c\r\n`, Visible("c\r\n"))
}

var pdbMarkers = Markers{
	CurrentLine:   "->",
	ExceptionLine: ">>",
	StackLocation: "> ",
	Errors:        []string{"***", "Error:"},
}

func TestMarkers_Classify(t *testing.T) {
	tests := []struct {
		line string
		want Class
	}{
		{"> foo.py(3)bar()", StackLocation},
		{"-> return x", CurrentLine},
		{"  3  ->     return x", CurrentLine},
		{"  5  >>     x = 1 / 0", ExceptionLine},
		{"*** NameError: name 'y' is not defined", ErrorLine},
		{"ZeroDivisionError: division by zero", ErrorLine},
		{"  4         y = 2", Plain},
		{"", Plain},
		// Overlaps resolve by the fixed precedence.
		{"> foo.py(9)boom() ValueError: bad", ErrorLine},
		{"> foo.py(5)bar()->3", StackLocation},
		{"  7  ->  >>  z", CurrentLine},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, pdbMarkers.Classify(tt.line))
		})
	}
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "stack-location", StackLocation.String())
	assert.Equal(t, "unknown", Class(42).String())
}

func TestColorizer_Paint(t *testing.T) {
	z := Colorizer{
		Enabled: true,
		Palette: Palette{CurrentLine: "93", StackLocation: "96", Prompt: "94"},
	}

	assert.Equal(t, "\x1b[93m-> return x\x1b[0m", z.Paint(CurrentLine, "-> return x"))
	assert.Equal(t, "plain", z.Paint(Plain, "plain"))
	assert.Equal(t, "no color set", z.Paint(ErrorLine, "no color set"))

	z.Enabled = false
	assert.Equal(t, "-> return x", z.Paint(CurrentLine, "-> return x"))
}

func TestStrip_RoundTrip(t *testing.T) {
	z := Colorizer{
		Enabled: true,
		Palette: Palette{CurrentLine: "93", ExceptionLine: "92", StackLocation: "96", Prompt: "94", Error: "91"},
	}
	lines := []string{"> foo.py(3)bar()", "-> return x", "*** oops", "plain"}

	var painted []string
	for _, l := range lines {
		painted = append(painted, z.Paint(pdbMarkers.Classify(l), l))
	}
	joined := strings.Join(painted, CRLF)

	assert.NotEqual(t, strings.Join(lines, CRLF), joined)
	assert.Equal(t, strings.Join(lines, CRLF), Strip(joined))
}
