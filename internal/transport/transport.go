// Package transport provides connection establishment for both ends of
// the bridge: an outbound Dialer for the client and an address-reuse
// TCP listener for the debug target.  What happens over the connection
// is the session layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer.
	// Stateless dialers return nil.
	Close() error
}
