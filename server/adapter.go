package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"pdbbridge/config"
	"pdbbridge/internal/errors"
	"pdbbridge/internal/metrics"
	"pdbbridge/internal/session"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// writeTimeout bounds a single flush to the client.
const writeTimeout = 5 * time.Second

// Adapter turns one accepted connection into the debugger's terminal.
// Debugger output is held until the prompt marker appears, then
// flushed as whole classified lines followed by the prompt.
type Adapter struct {
	sess      *session.Session
	prompt    string
	indicator string
	markers   wire.Markers
	color     wire.Colorizer
	timeout   time.Duration // per-write deadline
	logger    *util.Logger
	metrics   *metrics.Collector

	mu          sync.Mutex
	acc         strings.Builder
	padding     bool // last flush ended exactly at the marker
	lastCommand string
	err         error // first I/O failure, sticky
}

// NewAdapter wraps sess using the markers and colors from cfg.
func NewAdapter(sess *session.Session, cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Adapter {
	return &Adapter{
		sess:      sess,
		prompt:    cfg.PromptMarker,
		indicator: cfg.Indicator,
		markers:   cfg.LineMarkers(),
		color:     cfg.Colorizer(),
		timeout:   writeTimeout,
		logger:    logger,
		metrics:   m,
	}
}

// Write appends a fragment of debugger output.  Once the pending text
// contains the prompt marker everything up to the last marker is
// flushed in a single socket write.  Output that follows the marker in
// the same fragment stays pending for the next flush.
func (a *Adapter) Write(s string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.padding && s != "" {
		s = strings.TrimPrefix(s, " ")
		a.padding = false
	}
	a.acc.WriteString(s)
	text := a.acc.String()
	i := strings.LastIndex(text, a.prompt)
	if i < 0 {
		return nil
	}
	tail := text[i+len(a.prompt):]
	a.padding = tail == ""
	rest := strings.TrimPrefix(tail, " ")
	out := a.render(text[:i])
	a.acc.Reset()
	a.acc.WriteString(rest)
	return a.send(out)
}

// render formats body as lines, then the prompt itself with no
// delimiter.
func (a *Adapter) render(body string) string {
	var b strings.Builder
	a.renderLines(&b, body)
	b.WriteString(a.color.Paint(wire.Prompt, a.prompt))
	b.WriteString(" ")
	return b.String()
}

func (a *Adapter) renderLines(b *strings.Builder, body string) {
	eol := a.sess.Codec.EOL
	for _, line := range wire.SplitLines(body) {
		b.WriteString(a.color.Paint(a.markers.Classify(line), line))
		b.WriteString(eol)
	}
}

// Flush sends any output still pending without a prompt, for when the
// debugger exits without asking for another command.
func (a *Adapter) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil || a.acc.Len() == 0 {
		return a.err
	}
	var b strings.Builder
	a.renderLines(&b, a.acc.String())
	a.acc.Reset()
	return a.send(b.String())
}

// Notify sends a bridge notice, marked with the indicator and
// followed by a fresh prompt so the operator can keep typing.
func (a *Adapter) Notify(format string, args ...interface{}) error {
	return a.notice(true, fmt.Sprintf(format, args...))
}

// Announce sends a final bridge notice with no prompt after it.
func (a *Adapter) Announce(format string, args ...interface{}) error {
	return a.notice(false, fmt.Sprintf(format, args...))
}

func (a *Adapter) notice(prompt bool, msg string) error {
	a.logger.Info("%s", msg)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	out := a.indicator + " " + msg + a.sess.Codec.EOL
	if prompt {
		out += a.color.Paint(wire.Prompt, a.prompt) + " "
	}
	return a.send(out)
}

// send writes out; callers hold a.mu.
func (a *Adapter) send(out string) error {
	if err := a.sess.WriteString(out, a.timeout); err != nil {
		a.fail(err)
		return a.err
	}
	a.metrics.BytesSent(len(out))
	a.logger.Debug("OUT: %s", wire.Visible(wire.Strip(out)))
	return nil
}

// ReadLine blocks for the next operator command and returns it with
// its delimiter.  Any failure yields "".
func (a *Adapter) ReadLine() string {
	line, err := a.sess.ReadLine()
	if err != nil {
		a.mu.Lock()
		a.fail(err)
		a.mu.Unlock()
		return ""
	}
	a.metrics.ResponseReceived(len(line))
	a.logger.Debug("INN: %s", wire.Visible(line))

	a.mu.Lock()
	a.lastCommand = wire.TrimEOL(line)
	a.mu.Unlock()
	return line
}

// fail records the first I/O error; callers hold a.mu.  A disconnect
// is reported as ErrConnectionLost.
func (a *Adapter) fail(err error) {
	if a.err != nil {
		return
	}
	if errors.IsDisconnect(err) || a.sess.State() == session.Closed {
		a.err = errors.Join(errors.ErrConnectionLost, err)
		a.logger.Verbose("connection lost: %v", err)
		return
	}
	a.err = err
	a.logger.Warn("terminal I/O failed: %v", err)
}

// Err returns the first I/O failure, or nil.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// LastCommand returns the most recent operator line without its
// delimiter.
func (a *Adapter) LastCommand() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCommand
}

// Pending returns the output held back waiting for a prompt.
func (a *Adapter) Pending() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acc.String()
}
