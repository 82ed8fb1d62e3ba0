// Package config defines the session configuration shared by the
// bridge (serve mode) and the operator client, and loads it from
// defaults, a settings file, the environment and CLI flags.
package config

import (
	"fmt"
	"time"

	"pdbbridge/internal/errors"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// Mode selects which endpoint a process runs.
type Mode string

const (
	ModeClient Mode = "client"
	ModeServe  Mode = "serve"
)

// Config holds every tuneable for a session.  It is loaded once at
// startup and never modified afterwards.
type Config struct {
	Mode Mode `mapstructure:"-"`

	// ── Connection ───────────────────────────────────────────────────
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	ClientConnectTimeout time.Duration `mapstructure:"client_connect_timeout"` // 0 = wait forever
	ServerResponseTime   time.Duration `mapstructure:"server_response_time"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	EOL                  string        `mapstructure:"eol"` // "crlf" or "lf"

	// ── Display ──────────────────────────────────────────────────────
	UseColor  bool        `mapstructure:"use_color"`
	Colors    ColorConfig `mapstructure:"colors"`
	Indicator string      `mapstructure:"indicator"`

	// ── Protocol markers ─────────────────────────────────────────────
	PromptMarker string       `mapstructure:"prompt_marker"`
	Markers      MarkerConfig `mapstructure:"markers"`

	// ── Client-local commands ────────────────────────────────────────
	ExitCommand string `mapstructure:"exit_command"`
	HelpCommand string `mapstructure:"help_command"`

	// ── Serve mode ───────────────────────────────────────────────────
	KeepOpen    bool     `mapstructure:"keep_open"`
	BindRetries int      `mapstructure:"bind_retries"`
	Debugger    []string `mapstructure:"debugger"` // argv of the debugger process

	// ── Output ───────────────────────────────────────────────────────
	Verbose int    `mapstructure:"verbose"`
	LogFile string `mapstructure:"log_file"`
}

// ColorConfig holds one SGR parameter string per line class.
type ColorConfig struct {
	CurrentLine   string `mapstructure:"current_line"`
	ExceptionLine string `mapstructure:"exception_line"`
	StackLocation string `mapstructure:"stack_location"`
	Prompt        string `mapstructure:"prompt"`
	Error         string `mapstructure:"error"`
}

// MarkerConfig holds the line classification patterns.
type MarkerConfig struct {
	CurrentLine   string   `mapstructure:"current_line"`
	ExceptionLine string   `mapstructure:"exception_line"`
	StackLocation string   `mapstructure:"stack_location"`
	Errors        []string `mapstructure:"errors"`
}

// Default returns a Config populated with every default.
func Default() *Config {
	return &Config{
		Mode:                 ModeClient,
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		ClientConnectTimeout: DefaultClientConnectTimeout,
		ServerResponseTime:   DefaultServerResponseTime,
		PollInterval:         DefaultPollInterval,
		EOL:                  DefaultEOL,
		UseColor:             true,
		Colors: ColorConfig{
			CurrentLine:   DefaultColorCurrentLine,
			ExceptionLine: DefaultColorExceptionLine,
			StackLocation: DefaultColorStackLocation,
			Prompt:        DefaultColorPrompt,
			Error:         DefaultColorError,
		},
		Indicator:    DefaultIndicator,
		PromptMarker: DefaultPromptMarker,
		Markers: MarkerConfig{
			CurrentLine:   DefaultMarkerCurrentLine,
			ExceptionLine: DefaultMarkerExceptionLine,
			StackLocation: DefaultMarkerStackLocation,
			Errors:        DefaultErrorMarkers(),
		},
		ExitCommand: DefaultExitCommand,
		HelpCommand: DefaultHelpCommand,
		BindRetries: DefaultBindRetries,
		Verbose:     1,
	}
}

// ── Derived values ───────────────────────────────────────────────────

// Addr returns "host:port".
func (c *Config) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// Delimiter returns the wire bytes for EOL.
func (c *Config) Delimiter() string {
	if c.EOL == "lf" {
		return wire.LF
	}
	return wire.CRLF
}

// Codec returns the wire codec for this session.
func (c *Config) Codec() wire.Codec { return wire.NewCodec(c.Delimiter()) }

// Colorizer returns the line colorizer for this session.
func (c *Config) Colorizer() wire.Colorizer {
	return wire.Colorizer{
		Enabled: c.UseColor,
		Palette: wire.Palette{
			CurrentLine:   c.Colors.CurrentLine,
			ExceptionLine: c.Colors.ExceptionLine,
			StackLocation: c.Colors.StackLocation,
			Prompt:        c.Colors.Prompt,
			Error:         c.Colors.Error,
		},
	}
}

// LineMarkers returns the classifier patterns.
func (c *Config) LineMarkers() wire.Markers {
	return wire.Markers{
		CurrentLine:   c.Markers.CurrentLine,
		ExceptionLine: c.Markers.ExceptionLine,
		StackLocation: c.Markers.StackLocation,
		Errors:        append([]string(nil), c.Markers.Errors...),
	}
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Mode != ModeClient && c.Mode != ModeServe {
		return &errors.ConfigError{Field: "mode", Value: c.Mode, Message: "unknown mode",
			Hint: "use \"serve\" or \"client\""}
	}
	if c.Host == "" {
		return &errors.ConfigError{Field: "host", Message: "required",
			Hint: fmt.Sprintf("use %s for a local debug target", DefaultHost)}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ConfigError{Field: "port", Value: c.Port, Message: "out of range 0-65535"}
	}
	if c.Port == 0 && c.Mode == ModeClient {
		return &errors.ConfigError{Field: "port", Value: c.Port, Message: "client needs the bridge's port",
			Hint: "pass --port or set PDBBRIDGE_PORT"}
	}
	if c.ClientConnectTimeout < 0 {
		return &errors.ConfigError{Field: "client_connect_timeout", Value: c.ClientConnectTimeout,
			Message: "must not be negative", Hint: "0 waits forever"}
	}
	if c.ServerResponseTime <= 0 {
		return &errors.ConfigError{Field: "server_response_time", Value: c.ServerResponseTime,
			Message: "must be positive", Hint: "e.g. 500ms"}
	}
	if c.PollInterval <= 0 {
		return &errors.ConfigError{Field: "poll_interval", Value: c.PollInterval,
			Message: "must be positive", Hint: "e.g. 50ms"}
	}
	if c.EOL != "crlf" && c.EOL != "lf" {
		return &errors.ConfigError{Field: "eol", Value: c.EOL, Message: "unknown delimiter",
			Hint: "use \"crlf\" or \"lf\"; both endpoints must agree"}
	}
	if c.Indicator == "" {
		return &errors.ConfigError{Field: "indicator", Message: "must not be empty"}
	}
	if c.PromptMarker == "" {
		return &errors.ConfigError{Field: "prompt_marker", Message: "must not be empty",
			Hint: "pdb uses " + DefaultPromptMarker}
	}
	if c.ExitCommand == "" || c.ExitCommand == c.HelpCommand {
		return &errors.ConfigError{Field: "exit_command", Value: c.ExitCommand,
			Message: "must be non-empty and differ from help_command"}
	}
	if c.BindRetries < 0 {
		return &errors.ConfigError{Field: "bind_retries", Value: c.BindRetries, Message: "must not be negative"}
	}
	if c.Mode == ModeServe && len(c.Debugger) == 0 {
		return &errors.ConfigError{Field: "debugger", Message: "required in serve mode",
			Hint: "pdbbridge serve -- python3 -m pdb script.py"}
	}
	return nil
}
