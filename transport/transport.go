// Package transport moves frames between actor nodes. The runtime consumes
// it through the narrow Transport interface; the wire format behind that
// interface is opaque to the rest of the system.
package transport

import (
	"context"
)

// FrameHandler consumes inbound frames. Implementations must be safe for
// concurrent invocation.
type FrameHandler func(frame *Frame)

// Transport is one node's frame endpoint.
type Transport interface {
	// Start begins accepting inbound frames
	Start(ctx context.Context) error

	// Stop closes the endpoint and all its links
	Stop() error

	// Send delivers one frame to the node listening on addr
	Send(addr string, frame *Frame) error

	// SetHandler installs the inbound frame handler. Must be called
	// before Start.
	SetHandler(handler FrameHandler)

	// LocalAddr returns the address remote nodes reach this endpoint on
	LocalAddr() string
}
