// Package client is the operator side of the bridge: it keeps trying
// to reach the bridge, forwards typed commands, and shows whatever the
// debugger sends back.
package client

import (
	"context"
	"time"

	"pdbbridge/config"
	"pdbbridge/internal/errors"
	"pdbbridge/internal/metrics"
	"pdbbridge/internal/session"
	"pdbbridge/internal/transport"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// pollWindow is how long a poll read may wait for bytes.  A zero
// deadline would fail without looking at the socket.
const pollWindow = time.Millisecond

// Conn manages the client's single connection to the bridge.
type Conn struct {
	cfg     *config.Config
	logger  *util.Logger
	metrics *metrics.Collector
	dialer  transport.Dialer

	sess *session.Session
	buf  []byte
}

// NewConn returns a disconnected Conn.  The server-response time is
// used as the connect timeout.
func NewConn(cfg *config.Config, logger *util.Logger, m *metrics.Collector) *Conn {
	return &Conn{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		dialer:  &transport.TCPDialer{Timeout: cfg.ServerResponseTime},
		buf:     make([]byte, util.DefaultBufSize),
	}
}

// Addr is the bridge address this Conn dials.
func (c *Conn) Addr() string { return c.cfg.Addr() }

// Connected reports whether a live session exists.
func (c *Conn) Connected() bool {
	return c.sess != nil && c.sess.State() == session.Open
}

// Connect dials the bridge.  A timeout, refusal, reset or abort means
// the bridge is not up yet and comes back as a retryable error (see
// errors.IsRetryable); anything else is fatal.
func (c *Conn) Connect(ctx context.Context) error {
	c.Close()
	c.metrics.ConnectAttempt()

	addr := c.Addr()
	conn, err := c.dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap("dial", addr, err)
	}
	c.sess = session.New(conn, c.cfg.Codec(), c.logger)
	c.metrics.ConnectionOpened()
	return nil
}

// Send forwards one operator line plus the delimiter.
func (c *Conn) Send(line string) error {
	if !c.Connected() {
		return errors.ErrNotConnected
	}
	framed := c.sess.Codec.Frame(line)
	if err := c.sess.WriteString(framed, c.cfg.ServerResponseTime); err != nil {
		return err
	}
	c.metrics.CommandSent(len(framed))
	c.logger.Debug("OUT: %s", wire.Visible(framed))
	return nil
}

// Receive returns whatever text is available right now, or "" if
// nothing is.  A closed peer yields an error matching
// errors.IsDisconnect.
func (c *Conn) Receive() (string, error) {
	if !c.Connected() {
		return "", errors.ErrNotConnected
	}
	n, err := c.sess.Poll(c.buf, pollWindow)
	if err != nil || n == 0 {
		return "", err
	}
	text := c.sess.Codec.Decode(c.buf[:n])
	c.metrics.ResponseReceived(n)
	c.logger.Debug("INN: %s", wire.Visible(text))
	return text, nil
}

// Close drops the current session, if any.
func (c *Conn) Close() {
	if c.sess == nil {
		return
	}
	c.sess.Close()
	c.sess = nil
	c.metrics.ConnectionClosed()
}
