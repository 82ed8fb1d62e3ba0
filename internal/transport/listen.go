package transport

import (
	"context"
	"net"
)

// Listen opens a TCP listener on address with SO_REUSEADDR set, so a
// new debug session can bind while the previous session's socket is
// still in TIME_WAIT.
func Listen(ctx context.Context, address string) (*net.TCPListener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return ln.(*net.TCPListener), nil
}
