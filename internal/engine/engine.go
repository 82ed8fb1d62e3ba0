// Package engine defines what the bridge drives over an established
// connection: a line-oriented debugger that reads commands from and
// writes output to a Terminal.  The bridge never subclasses a
// debugger; it hands the engine a Terminal and waits for Run to end.
package engine

import "context"

// Terminal is the engine's view of the operator.
type Terminal interface {
	// ReadLine blocks until the operator sends a line and returns it
	// including its delimiter.  An empty string means the connection
	// is gone and no more input will arrive.
	ReadLine() string

	// Write delivers a fragment of debugger output.  Fragments need
	// not be whole lines.
	Write(s string) error
}

// Engine is a debugger the bridge can run against a Terminal.
type Engine interface {
	// Run blocks for the whole interactive exchange.  It returns nil
	// when the debugger ends normally, was told to quit, or lost its
	// Terminal.
	Run(ctx context.Context, term Terminal) error

	// Quit asks a running engine to shut down.  It is safe to call
	// more than once and after Run has returned.
	Quit() error
}

// Factory creates a fresh Engine for each debug session.
type Factory func() Engine
