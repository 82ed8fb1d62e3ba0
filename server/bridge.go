// Package server exposes a debugger's terminal over a TCP socket.
//
// A Bridge owns one listen-accept-debug-close lifetime.  A Host owns
// the process-wide "at most one active session" rule and is what the
// entry point (or a test) holds.
package server

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdbbridge/config"
	"pdbbridge/internal/engine"
	"pdbbridge/internal/errors"
	"pdbbridge/internal/metrics"
	"pdbbridge/internal/retry"
	"pdbbridge/internal/session"
	"pdbbridge/internal/transport"
	"pdbbridge/util"
)

// State is the lifecycle state of a Bridge.  It only moves forward.
type State int32

const (
	Listening State = iota
	Accepted
	Debugging
	Quitting
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Listening:
		return "LISTENING"
	case Accepted:
		return "ACCEPTED"
	case Debugging:
		return "DEBUGGING"
	case Quitting:
		return "QUITTING"
	case Failed:
		return "ERROR"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Bridge serves one debug session.
type Bridge struct {
	ID string

	cfg     *config.Config
	logger  *util.Logger
	metrics *metrics.Collector

	state atomic.Int32
	ready chan struct{} // closed once the listener is bound
	once  sync.Once

	mu      sync.Mutex
	addr    net.Addr
	adapter *Adapter
}

// NewBridge returns a Bridge in the LISTENING state; nothing is bound
// until Run.
func NewBridge(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Bridge {
	id := uuid.NewString()
	return &Bridge{
		ID:      id,
		cfg:     cfg,
		logger:  logger.With(zap.String("session", id)),
		metrics: m,
		ready:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State { return State(b.state.Load()) }

func (b *Bridge) setState(s State) {
	b.state.Store(int32(s))
	b.logger.Verbose("state %s", s)
}

// Ready is closed once the bridge is listening, or has given up.
func (b *Bridge) Ready() <-chan struct{} { return b.ready }

func (b *Bridge) markReady() { b.once.Do(func() { close(b.ready) }) }

// Addr returns the bound listen address, or nil before binding.
func (b *Bridge) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// Adapter returns the terminal adapter of an accepted session.
func (b *Bridge) Adapter() *Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapter
}

// Run listens, accepts one client, runs eng against it and tears
// everything down.  An accept timeout or cancellation before a client
// connects is a normal outcome and returns nil.  A failed debug
// session is reported to the client and returned.
func (b *Bridge) Run(ctx context.Context, eng engine.Engine) error {
	defer b.setState(Closed)
	defer b.markReady()

	ln, err := b.listen(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.addr = ln.Addr()
	b.mu.Unlock()
	b.markReady()
	b.logger.Info("waiting for a client on %s", ln.Addr())

	conn, err := b.accept(ctx, ln)
	switch {
	case errors.Is(err, errors.ErrAcceptTimeout):
		b.logger.Info("no client connected within %s", b.cfg.ClientConnectTimeout)
		return nil
	case ctx.Err() != nil:
		if conn != nil {
			conn.Close()
		}
		b.logger.Verbose("stopped listening: %v", ctx.Err())
		return nil
	case err != nil:
		return err
	}

	sess := session.New(conn, b.cfg.Codec(), b.logger)
	b.metrics.ConnectionOpened()
	defer b.metrics.ConnectionClosed()
	defer sess.Close()
	stop := context.AfterFunc(ctx, func() { sess.Close() })
	defer stop()

	a := NewAdapter(sess, b.cfg, b.logger, b.metrics)
	b.mu.Lock()
	b.adapter = a
	b.mu.Unlock()
	b.setState(Accepted)
	b.logger.Info("client connected from %s", sess.Addr())

	b.setState(Debugging)
	runErr := b.debug(ctx, eng, a)
	return b.finish(ctx, eng, a, sess, runErr)
}

// listen binds the configured address, retrying while the port is
// still held by a previous session.
func (b *Bridge) listen(ctx context.Context) (*net.TCPListener, error) {
	addr := b.cfg.Addr()
	bo := retry.BindBackoff(b.cfg.BindRetries + 1)
	bo.OnRetry = func(attempt int, wait time.Duration, err error) {
		b.logger.Warn("bind %s (attempt %d): %v, retrying in %s", addr, attempt, err, wait.Truncate(time.Millisecond))
	}

	var ln *net.TCPListener
	err := bo.Do(ctx, func(int) error {
		b.metrics.ConnectAttempt()
		l, err := transport.Listen(ctx, addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				return err
			}
			return retry.Permanent(err)
		}
		ln = l
		return nil
	})
	if err != nil {
		b.metrics.RecordError(err.Error())
		return nil, errors.Wrap("listen", addr, err)
	}
	return ln, nil
}

// accept waits for one client and always releases the listener.
func (b *Bridge) accept(ctx context.Context, ln *net.TCPListener) (net.Conn, error) {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	if t := b.cfg.ClientConnectTimeout; t > 0 {
		if err := ln.SetDeadline(time.Now().Add(t)); err != nil {
			return nil, errors.Wrap("accept", ln.Addr().String(), err)
		}
	}
	conn, err := ln.Accept()
	if err != nil {
		if errors.IsTimeout(err) {
			return nil, errors.ErrAcceptTimeout
		}
		return nil, errors.Wrap("accept", ln.Addr().String(), err)
	}
	return conn, nil
}

// debug runs the engine, turning a panic into a session error.
func (b *Bridge) debug(ctx context.Context, eng engine.Engine, a *Adapter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("debugger panic: %v\n%s", r, debug.Stack())
		}
	}()
	return eng.Run(ctx, a)
}

// finish classifies how the session ended, tells the client, closes
// the connection and shuts the engine down.
func (b *Bridge) finish(ctx context.Context, eng engine.Engine, a *Adapter, sess *session.Session, runErr error) error {
	var result error
	switch {
	case runErr == nil:
		b.setState(Quitting)
		a.Flush()                         //nolint:errcheck
		a.Announce("debug session ended") //nolint:errcheck
	case ctx.Err() != nil:
		b.setState(Quitting)
		b.logger.Info("session interrupted")
	case errors.IsDisconnect(runErr):
		b.setState(Quitting)
		b.logger.Info("client disconnected")
	default:
		b.setState(Failed)
		b.metrics.RecordError(runErr.Error())
		b.logger.Error("debug session failed after %q: %v", a.LastCommand(), runErr)
		msg, _, _ := strings.Cut(runErr.Error(), "\n")
		a.Announce("error: %s", msg) //nolint:errcheck
		b.setState(Quitting)
		result = runErr
	}

	sess.Close()
	if err := eng.Quit(); err != nil {
		b.logger.Debug("debugger quit: %v", err)
	}
	b.logger.Debug("metrics: %s", b.metrics.JSON())
	return result
}

// ── Host ─────────────────────────────────────────────────────────────

// Host enforces that at most one debug session is active.
type Host struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector

	mu     sync.Mutex
	active *Bridge
}

// NewHost returns a Host with no active session.
func NewHost(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Host {
	return &Host{Config: cfg, Logger: logger, Metrics: m}
}

// Breakpoint opens a debug session and blocks until it ends.  While
// one is active a second call fails with ErrSessionActive without
// binding anything, and the connected operator is told about it.
func (h *Host) Breakpoint(ctx context.Context, eng engine.Engine) error {
	h.mu.Lock()
	if active := h.active; active != nil {
		h.mu.Unlock()
		if a := active.Adapter(); a != nil && active.State() == Debugging {
			a.Notify("breakpoint ignored, a debug session is already active") //nolint:errcheck
		}
		return errors.ErrSessionActive
	}
	b := NewBridge(h.Config, h.Logger, h.Metrics)
	h.active = b
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.active = nil
		h.mu.Unlock()
	}()
	return b.Run(ctx, eng)
}

// Active returns the running session, or nil.
func (h *Host) Active() *Bridge {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}
