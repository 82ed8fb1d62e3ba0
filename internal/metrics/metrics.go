// Package metrics provides lock-free counters for one bridge or client
// run: connections, commands, bytes, watchdog expiries and errors.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime counters.
type Collector struct {
	connectsTotal    atomic.Int64
	connectAttempts  atomic.Int64
	connectionsOpen  atomic.Int64
	commandsSent     atomic.Int64
	responses        atomic.Int64
	bytesIn          atomic.Int64
	bytesOut         atomic.Int64
	watchdogExpiries atomic.Int64
	errorsTotal      atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connections ──────────────────────────────────────────────────────

// ConnectAttempt records one accept or dial attempt.
func (c *Collector) ConnectAttempt() {
	if c == nil {
		return
	}
	c.connectAttempts.Add(1)
}

// ConnectionOpened records a successful accept or dial.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectsTotal.Add(1)
	c.connectionsOpen.Add(1)
}

// ConnectionClosed records the teardown of a connection.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsOpen.Add(-1)
}

// OpenConnections returns the number of live connections (0 or 1).
func (c *Collector) OpenConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsOpen.Load()
}

// Connects returns the number of successful connections.
func (c *Collector) Connects() int64 {
	if c == nil {
		return 0
	}
	return c.connectsTotal.Load()
}

// ConnectAttempts returns the number of attempts, successful or not.
func (c *Collector) ConnectAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.connectAttempts.Load()
}

// ── Traffic ──────────────────────────────────────────────────────────

// CommandSent records one operator line of n bytes forwarded to the peer.
func (c *Collector) CommandSent(n int) {
	if c == nil {
		return
	}
	c.commandsSent.Add(1)
	c.bytesOut.Add(int64(n))
}

// ResponseReceived records one chunk of n bytes from the peer.
func (c *Collector) ResponseReceived(n int) {
	if c == nil {
		return
	}
	c.responses.Add(1)
	c.bytesIn.Add(int64(n))
}

// BytesSent records n bytes written that are not operator commands
// (debugger output on the bridge side).
func (c *Collector) BytesSent(n int) {
	if c == nil {
		return
	}
	c.bytesOut.Add(int64(n))
}

// Commands returns the number of forwarded commands.
func (c *Collector) Commands() int64 {
	if c == nil {
		return 0
	}
	return c.commandsSent.Load()
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Failures ─────────────────────────────────────────────────────────

// WatchdogExpired records an unresponsive-peer reset.
func (c *Collector) WatchdogExpired() {
	if c == nil {
		return
	}
	c.watchdogExpiries.Add(1)
}

// WatchdogExpiries returns how many times the watchdog fired.
func (c *Collector) WatchdogExpiries() int64 {
	if c == nil {
		return 0
	}
	return c.watchdogExpiries.Load()
}

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	ConnectAttempts  int64  `json:"connect_attempts"`
	Connects         int64  `json:"connects"`
	OpenConnections  int64  `json:"open_connections"`
	CommandsSent     int64  `json:"commands_sent"`
	Responses        int64  `json:"responses"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	WatchdogExpiries int64  `json:"watchdog_expiries"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Millisecond).String(),
		ConnectAttempts:  c.connectAttempts.Load(),
		Connects:         c.connectsTotal.Load(),
		OpenConnections:  c.connectionsOpen.Load(),
		CommandsSent:     c.commandsSent.Load(),
		Responses:        c.responses.Load(),
		BytesIn:          c.bytesIn.Load(),
		BytesOut:         c.bytesOut.Load(),
		WatchdogExpiries: c.watchdogExpiries.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a compact JSON string for log lines.
func (c *Collector) JSON() string {
	data, _ := json.Marshal(c.Snapshot())
	return string(data)
}
