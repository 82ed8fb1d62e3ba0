// Package core is the orchestration layer.  It composes the bridge,
// the client loop and the debugger engine into complete operational
// modes and provides a builder that selects the right mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	wire / transport  →  session  →  server / client  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of pdbbridge (serve or
// client).  Each mode owns its full lifecycle from connection
// establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
