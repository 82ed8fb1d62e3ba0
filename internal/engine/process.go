package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pdbbridge/internal/errors"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// waitDelay bounds how long Wait lingers on output pipes held open
// by grandchildren after the debugger itself has exited.
const waitDelay = 2 * time.Second

// Process drives an external debugger (for example
// "python3 -m pdb script.py") through its stdio.  stdout and stderr
// are merged into Terminal.Write; Terminal.ReadLine feeds stdin.
type Process struct {
	Argv   []string // program and arguments
	Dir    string   // working directory; empty inherits ours
	Env    []string // extra KEY=VALUE entries on top of os.Environ
	Logger *util.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	quit    atomic.Bool
	started bool
}

// NewProcess returns a Process for argv.
func NewProcess(argv []string, logger *util.Logger) *Process {
	return &Process{Argv: append([]string(nil), argv...), Logger: logger}
}

// Run starts the debugger and relays its I/O until it exits, the
// Terminal goes away, Quit is called or ctx is cancelled.  A Process
// runs at most once.
func (p *Process) Run(ctx context.Context, term Terminal) error {
	if len(p.Argv) == 0 {
		return fmt.Errorf("engine: no debugger command")
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("engine: already started")
	}
	p.started = true
	p.mu.Unlock()
	if p.quit.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Dir = p.Dir
	cmd.Env = append(append(os.Environ(), "PYTHONUNBUFFERED=1"), p.Env...)
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine: stdin: %w", err)
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	p.mu.Lock()
	if p.quit.Load() {
		p.mu.Unlock()
		return nil
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("engine: start %s: %w", p.Argv[0], err)
	}
	p.cmd = cmd
	p.mu.Unlock()

	p.Logger.Debug("engine: started %s (pid %d)", cmd.String(), cmd.Process.Pid)

	// The input side blocks on the socket and cannot be interrupted
	// except by closing the connection, so it is not part of the
	// group; the bridge closes the connection once Run returns.
	var lost atomic.Bool
	go func() {
		defer stdin.Close()
		for {
			line := term.ReadLine()
			if line == "" {
				lost.Store(true)
				cancel()
				return
			}
			if _, err := io.WriteString(stdin, wire.TrimEOL(line)+wire.LF); err != nil {
				return
			}
		}
	}()

	g := &errgroup.Group{}
	g.Go(func() error {
		buf := util.GetBuf()
		defer util.PutBuf(buf)
		for {
			n, rerr := pr.Read(*buf)
			if n > 0 {
				if werr := term.Write(string((*buf)[:n])); werr != nil {
					pr.CloseWithError(werr)
					cancel()
					return werr
				}
			}
			if rerr != nil {
				return nil
			}
		}
	})
	g.Go(func() error {
		werr := cmd.Wait()
		pw.Close()
		return werr
	})
	err = g.Wait()

	switch {
	case p.quit.Load():
		return nil
	case lost.Load():
		return errors.ErrConnectionLost
	case err != nil:
		return fmt.Errorf("engine: %s: %w", p.Argv[0], err)
	}
	return nil
}

// Quit kills a running debugger.  Calling it before Run makes Run
// return immediately.
func (p *Process) Quit() error {
	p.quit.Store(true)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("engine: kill: %w", err)
	}
	return nil
}
