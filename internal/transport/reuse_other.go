//go:build !unix

package transport

import "syscall"

// Windows sockets give SO_REUSEADDR port-stealing semantics, so the
// platform default is kept.
func reuseAddr(_, _ string, _ syscall.RawConn) error { return nil }
