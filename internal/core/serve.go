package core

import (
	"context"

	"pdbbridge/internal/engine"
	"pdbbridge/server"
	"pdbbridge/util"
)

// ServeMode runs debug sessions through a Host.  With KeepOpen it
// re-arms after every session, each time with a fresh engine, until
// ctx is cancelled.
type ServeMode struct {
	Host      *server.Host
	NewEngine engine.Factory
	KeepOpen  bool
	Logger    *util.Logger
}

// Run serves one session, or many with KeepOpen.
func (m *ServeMode) Run(ctx context.Context) error {
	for {
		err := m.Host.Breakpoint(ctx, m.NewEngine())
		if ctx.Err() != nil {
			return nil
		}
		if !m.KeepOpen {
			return err
		}
		if err != nil {
			m.Logger.Warn("session ended with error: %v", err)
		}
		m.Logger.Verbose("re-arming bridge")
	}
}
