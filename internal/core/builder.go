package core

import (
	"fmt"
	"io"
	"os"

	"pdbbridge/config"
	"pdbbridge/internal/engine"
	"pdbbridge/internal/metrics"
	"pdbbridge/server"
	"pdbbridge/util"
)

// Build constructs the Mode for cfg.Mode.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	switch cfg.Mode {
	case config.ModeServe:
		return buildServe(cfg, logger)
	case config.ModeClient, "":
		return buildClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func buildServe(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if len(cfg.Debugger) == 0 {
		return nil, fmt.Errorf("serve mode needs a debugger command")
	}
	m := metrics.New()
	argv := cfg.Debugger
	return &ServeMode{
		Host:     server.NewHost(cfg, logger, m),
		KeepOpen: cfg.KeepOpen,
		NewEngine: func() engine.Engine {
			return engine.NewProcess(argv, logger)
		},
		Logger: logger,
	}, nil
}

func buildClient(cfg *config.Config, logger *util.Logger) Mode {
	return &ClientMode{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}
}

func stdinOr(r io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return os.Stdin
}

func stdoutOr(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}
