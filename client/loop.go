package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"pdbbridge/config"
	"pdbbridge/internal/errors"
	"pdbbridge/internal/metrics"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// Loop is the operator's control loop.  It owns the connection, the
// command queue and the watchdog; only the input goroutine touches the
// queue besides it.
type Loop struct {
	Conn     *Conn
	Queue    *CommandQueue
	Watchdog *Watchdog

	// Strip removes ANSI colors from bridge output before display.
	Strip bool

	cfg     *config.Config
	logger  *util.Logger
	metrics *metrics.Collector
	in      io.Reader
	out     io.Writer

	nextAttempt time.Time
}

// NewLoop builds a Loop reading operator lines from in and displaying
// to out.  Colors are stripped when out is not a terminal.
func NewLoop(cfg *config.Config, logger *util.Logger, m *metrics.Collector, in io.Reader, out io.Writer) *Loop {
	logger = logger.With(zap.String("addr", cfg.Addr()))
	return &Loop{
		Conn:     NewConn(cfg, logger, m),
		Queue:    &CommandQueue{},
		Watchdog: NewWatchdog(cfg.ServerResponseTime),
		Strip:    !isTerminal(out),
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		in:       in,
		out:      out,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run drives the loop until the exit command, end of input with no
// reply outstanding, or ctx cancellation.  It returns an error only
// for a fatal failure.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.Conn.Close()
		l.logger.Debug("metrics: %s", l.metrics.JSON())
	}()

	l.status("pdbbridge client started on %s", l.Conn.Addr())
	l.status("run your code to debug")
	if l.in != nil {
		StartInput(l.in, l.Queue, l.logger)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		done, tight, err := l.step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if tight {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// step runs one iteration: connect, watchdog, commands, responses.
// tight means a connect attempt just timed out and the next attempt
// should follow without sleeping.
func (l *Loop) step(ctx context.Context) (done, tight bool, err error) {
	if !l.Conn.Connected() {
		tight, err = l.connect(ctx)
		if err != nil {
			return false, false, err
		}
	}

	if l.Conn.Connected() && l.Watchdog.Expired() {
		l.metrics.WatchdogExpired()
		l.metrics.RecordError(errors.ErrUnresponsive.Error())
		l.status("%v after %s, reconnecting", errors.ErrUnresponsive,
			l.Watchdog.Elapsed().Truncate(time.Millisecond))
		l.reset()
	}

	lines := l.Queue.Drain()
	for i, line := range lines {
		switch line {
		case l.cfg.ExitCommand:
			l.status("exiting")
			return true, false, nil
		case l.cfg.HelpCommand:
			l.display(HelpText(l.cfg.ExitCommand, l.cfg.HelpCommand))
			continue
		}
		if !l.Conn.Connected() {
			l.status("not connected")
			continue
		}
		if err := l.Conn.Send(line); err != nil {
			if !errors.IsDisconnect(err) && !errors.IsTimeout(err) {
				l.metrics.RecordError(err.Error())
				l.status("error: %v", err)
				return false, false, err
			}
			l.status("disconnected")
			l.reset()
			if slices.Contains(lines[i+1:], l.cfg.ExitCommand) {
				l.status("exiting")
				return true, false, nil
			}
			break
		}
		l.Watchdog.Arm()
	}

	for l.Conn.Connected() {
		text, err := l.Conn.Receive()
		if err != nil {
			if errors.IsDisconnect(err) {
				l.status("server disconnected")
				l.reset()
			} else {
				l.logger.Verbose("read: %v", err)
			}
			break
		}
		if text == "" {
			break
		}
		l.Watchdog.Clear()
		l.display(text)
	}

	if l.Queue.Done() && !l.Watchdog.Armed() {
		return true, false, nil
	}
	return false, tight, nil
}

// connect attempts one dial, at most once per server-response time.
func (l *Loop) connect(ctx context.Context) (tight bool, err error) {
	now := l.Watchdog.Now()
	if now.Before(l.nextAttempt) {
		return false, nil
	}
	l.nextAttempt = now.Add(l.cfg.ServerResponseTime)

	err = l.Conn.Connect(ctx)
	switch {
	case err == nil:
		l.status("connected to %s", l.Conn.Addr())
		return false, nil
	case ctx.Err() != nil:
		return false, nil
	case errors.IsRetryable(err):
		l.logger.Debug("connect: %v", err)
		return errors.IsTimeout(err), nil
	}
	l.metrics.RecordError(err.Error())
	l.status("error: %v", err)
	return false, err
}

// reset destroys the connection and everything tied to it.
func (l *Loop) reset() {
	l.Conn.Close()
	l.Watchdog.Clear()
	l.Queue.Clear()
}

// status prints one bridge notice to the operator.
func (l *Loop) status(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Verbose("%s", msg)
	fmt.Fprintf(l.out, "%s %s\n", l.cfg.Indicator, msg)
}

func (l *Loop) display(text string) {
	if l.Strip {
		text = wire.Strip(text)
	}
	io.WriteString(l.out, text) //nolint:errcheck
}
