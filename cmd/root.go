// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"pdbbridge/config"
	"pdbbridge/internal/core"
	"pdbbridge/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X pdbbridge/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected pdbbridge mode.
func Execute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pdbbridge", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.String("host", config.DefaultHost, "Bridge host")
	fs.IntP("port", "p", config.DefaultPort, "Bridge TCP port")
	fs.Duration("connect-timeout", config.DefaultClientConnectTimeout, "Serve: how long to wait for a client (0 = forever)")
	fs.Duration("response-time", config.DefaultServerResponseTime, "Round-trip budget before a reply is overdue")
	fs.Duration("poll-interval", config.DefaultPollInterval, "Client idle sleep between polls")
	fs.String("eol", config.DefaultEOL, "Line delimiter: crlf or lf (both ends must agree)")

	// ── display ──────────────────────────────────────────────────
	fs.Bool("color", true, "Colorize debugger output")
	fs.String("indicator", config.DefaultIndicator, "Prefix for bridge notices")
	fs.String("prompt", config.DefaultPromptMarker, "Debugger prompt marker")

	// ── serve ────────────────────────────────────────────────────
	fs.BoolP("keep-open", "k", false, "Serve: re-arm after each session")
	fs.Int("bind-retries", config.DefaultBindRetries, "Serve: retries while the port is still in use")

	// ── output ───────────────────────────────────────────────────
	verbose := fs.CountP("verbose", "v", "Increase verbosity (repeatable)")
	quiet := fs.BoolP("quiet", "q", false, "Only log errors")
	fs.String("log-file", "", "Write logs to a file instead of stderr")

	configPath := fs.String("config", "", "Settings file (json, yaml or toml)")
	dryRun := fs.Bool("dry-run", false, "Validate configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("pdbbridge %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	mode, debugger, err := parsePositional(fs.Args(), fs.ArgsLenAtDash())
	if err != nil {
		return err
	}

	// ── load + validate ──────────────────────────────────────────
	cfg, err := config.Load(config.Options{
		Mode:     mode,
		File:     *configPath,
		Flags:    fs,
		Debugger: debugger,
	})
	if err != nil {
		return err
	}

	if *dryRun {
		printConfig(cfg)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	level := cfg.Verbose + *verbose
	if *quiet {
		level = int(util.LogQuiet)
	}
	logger := util.NewLogger(level)
	defer logger.Sync() //nolint:errcheck
	if cfg.LogFile != "" {
		if err := logger.OpenFile(cfg.LogFile); err != nil {
			return err
		}
	}

	m, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return m.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional splits "[serve|client] [-- debugger argv...]".
func parsePositional(rest []string, dash int) (config.Mode, []string, error) {
	before, after := rest, []string(nil)
	if dash >= 0 {
		before, after = rest[:dash], rest[dash:]
	}

	mode := config.ModeClient
	switch len(before) {
	case 0:
	case 1:
		mode = config.Mode(before[0])
	default:
		if config.Mode(before[0]) != config.ModeServe || dash >= 0 {
			return "", nil, fmt.Errorf("unexpected arguments %q (use --help for usage)", before[1:])
		}
		// serve script.py: no flags for the debugger, so no "--" needed.
		mode, after = config.ModeServe, before[1:]
	}

	switch mode {
	case config.ModeClient:
		if len(after) > 0 {
			return "", nil, fmt.Errorf("client mode takes no debugger command")
		}
	case config.ModeServe:
	default:
		return "", nil, fmt.Errorf("unknown mode %q (want serve or client)", mode)
	}
	return mode, after, nil
}

func printConfig(cfg *config.Config) {
	fmt.Printf("mode:           %s\n", cfg.Mode)
	fmt.Printf("address:        %s\n", cfg.Addr())
	fmt.Printf("eol:            %s\n", cfg.EOL)
	fmt.Printf("response time:  %s\n", cfg.ServerResponseTime)
	fmt.Printf("poll interval:  %s\n", cfg.PollInterval)
	fmt.Printf("color:          %t\n", cfg.UseColor)
	if cfg.Mode == config.ModeServe {
		fmt.Printf("debugger:       %s\n", strings.Join(cfg.Debugger, " "))
		fmt.Printf("keep open:      %t\n", cfg.KeepOpen)
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `pdbbridge – remote line-debugger bridge v%s

Serves a debugger's terminal over TCP and attaches to it from anywhere.

Usage:
  pdbbridge serve [options] -- <debugger> [args...]   Run a debugger behind the bridge
  pdbbridge [client] [options]                        Attach to a bridge

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  PDBBRIDGE_<KEY>   overrides settings-file keys, e.g. PDBBRIDGE_PORT=6000

Examples:
  pdbbridge serve -- python3 -m pdb app.py      Debug app.py on 127.0.0.1:%d
  pdbbridge -p 6000                             Attach, retrying until the bridge is up
  pdbbridge serve -k --eol lf -- python3 -m pdb app.py
`, config.DefaultPort)
}
