package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the settings file, and environment variables.

const (
	// DefaultHost is the loopback address the bridge binds and the
	// client dials.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the bridge TCP port.
	DefaultPort = 59120

	// DefaultClientConnectTimeout bounds how long the bridge waits for
	// a client to connect.  0 waits forever.
	DefaultClientConnectTimeout = 0 * time.Second

	// DefaultServerResponseTime is the round-trip budget the server has
	// to answer a command, and the client's connect timeout.
	DefaultServerResponseTime = 500 * time.Millisecond

	// DefaultPollInterval is the client loop's idle sleep.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultEOL is the wire delimiter name ("crlf" or "lf").
	DefaultEOL = "crlf"

	// DefaultIndicator prefixes bridge-generated status lines.
	DefaultIndicator = "!"

	// DefaultPromptMarker is the debugger's ready-for-input token.
	DefaultPromptMarker = "(Pdb)"

	// DefaultExitCommand ends the client without contacting the server.
	DefaultExitCommand = "x"

	// DefaultHelpCommand prints local help without network traffic.
	DefaultHelpCommand = "hh"

	// DefaultBindRetries is how many times the bridge tries to bind a
	// port that is still in use.
	DefaultBindRetries = 5
)

// Default SGR color parameters per line class.
const (
	DefaultColorCurrentLine   = "93" // bright yellow
	DefaultColorExceptionLine = "92" // bright green
	DefaultColorStackLocation = "96" // bright cyan
	DefaultColorPrompt        = "94" // bright blue
	DefaultColorError         = "91" // bright red
)

// Default line markers for pdb output.
const (
	DefaultMarkerCurrentLine   = "->"
	DefaultMarkerExceptionLine = ">>"
	DefaultMarkerStackLocation = "> "
)

// DefaultErrorMarkers are the substrings that mark an error line.
func DefaultErrorMarkers() []string { return []string{"***", "Error:"} }
