package core

import (
	"context"
	"io"

	"pdbbridge/client"
	"pdbbridge/config"
	"pdbbridge/internal/metrics"
	"pdbbridge/util"
)

// ClientMode runs the operator loop against the bridge.
type ClientMode struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run blocks until the operator exits, input ends or ctx is done.
func (m *ClientMode) Run(ctx context.Context) error {
	loop := client.NewLoop(m.Config, m.Logger, m.Metrics, stdinOr(m.Stdin), stdoutOr(m.Stdout))
	return loop.Run(ctx)
}
