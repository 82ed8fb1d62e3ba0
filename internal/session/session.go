// Package session represents a single connection lifecycle: one
// accepted or dialed socket, its buffered line reader, and an
// OPEN/CLOSED state that only ever moves forward.
//
// Both endpoints (the bridge and the client) own exactly one live
// Session at a time and destroy it on any read/write failure, explicit
// quit, or watchdog expiry.
package session

import (
	"bufio"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"pdbbridge/internal/errors"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// State is the lifecycle state of a Session.
type State int32

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Session encapsulates one connection and its line framing.
type Session struct {
	Conn   net.Conn
	Codec  wire.Codec
	Logger *util.Logger

	reader    *bufio.Reader
	wmu       sync.Mutex
	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// New creates an open Session bound to conn.
func New(conn net.Conn, codec wire.Codec, logger *util.Logger) *Session {
	return &Session{
		Conn:   conn,
		Codec:  codec,
		Logger: logger,
		reader: bufio.NewReaderSize(conn, util.DefaultBufSize),
	}
}

// State reports whether the session is still open.
func (s *Session) State() State { return State(s.state.Load()) }

// Addr returns the remote address as a string.
func (s *Session) Addr() string {
	if s.Conn == nil || s.Conn.RemoteAddr() == nil {
		return ""
	}
	return s.Conn.RemoteAddr().String()
}

// ReadLine blocks until a full line (including its delimiter) arrives.
// A final unterminated fragment before EOF is returned together with
// the error.
func (s *Session) ReadLine() (string, error) {
	if s.State() == Closed {
		return "", errors.ErrNotConnected
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return s.Codec.Decode([]byte(line)), errors.Wrap("read", s.Addr(), err)
	}
	return s.Codec.Decode([]byte(line)), nil
}

// Poll reads whatever bytes are available within window.  It returns
// (0, nil) when nothing arrived, so "no data yet" is distinguishable
// from a closed peer (ErrConnectionLost) and from other read errors.
func (s *Session) Poll(buf []byte, window time.Duration) (int, error) {
	if s.State() == Closed {
		return 0, errors.ErrNotConnected
	}
	if err := s.Conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		return 0, errors.Wrap("read", s.Addr(), err)
	}
	defer s.Conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	n, err := s.reader.Read(buf)
	switch {
	case n > 0:
		return n, nil
	case err == nil:
		return 0, nil
	case errors.IsTimeout(err):
		return 0, nil
	case errors.IsDisconnect(err):
		return 0, errors.Wrap("read", s.Addr(), errors.Join(errors.ErrConnectionLost, err))
	default:
		return 0, errors.Wrap("read", s.Addr(), err)
	}
}

// WriteString sends raw text (no framing added).  A zero timeout
// means no write deadline.
func (s *Session) WriteString(text string, timeout time.Duration) error {
	if s.State() == Closed {
		return errors.ErrNotConnected
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if timeout > 0 {
		s.Conn.SetWriteDeadline(time.Now().Add(timeout)) //nolint:errcheck
		defer s.Conn.SetWriteDeadline(time.Time{})       //nolint:errcheck
	}
	if _, err := io.WriteString(s.Conn, text); err != nil {
		return errors.Wrap("write", s.Addr(), err)
	}
	return nil
}

// Close releases the socket.  It is safe to call from several
// goroutines; only the first call closes, later calls return the same
// result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(Closed))
		if s.Conn != nil {
			s.closeErr = s.Conn.Close()
		}
		if s.Logger != nil {
			s.Logger.Debug("connection %s closed", s.Addr())
		}
	})
	return s.closeErr
}
