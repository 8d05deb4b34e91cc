// Package runtime hosts actor nodes: it wires a transport, routes inbound
// frames to an attached workload, correlates RPC calls with responses and
// resolves discovery requests. Workload behavior itself is supplied by the
// caller through the Workload interface.
package runtime

import (
	"context"

	"github.com/actrlabs/actrgo/protocol"
)

// StreamHandler consumes one data-stream chunk together with the id of the
// actor that sent it.
type StreamHandler func(chunk protocol.DataStream, sender protocol.ActrId)

// Context is the capability surface handed to workload code while it is
// executing. The canonical implementation is RuntimeContext; code that
// needs the concrete type must type-assert and treat any other
// implementation as an error.
type Context interface {
	// CallRaw sends an RPC to target and suspends until the response
	// arrives or timeoutMs elapses.
	CallRaw(ctx context.Context, target protocol.ActrId, routeKey string, pt protocol.PayloadType, payload []byte, timeoutMs int64) ([]byte, error)

	// TellRaw sends a one-way message. It returns once the transport
	// accepted the frame, not once the peer received it.
	TellRaw(target protocol.ActrId, routeKey string, pt protocol.PayloadType, payload []byte) error

	// DiscoverRouteCandidate resolves exactly one live actor of the
	// given type.
	DiscoverRouteCandidate(t protocol.ActrType) (protocol.ActrId, error)

	// SendDataStream transmits one chunk to target.
	SendDataStream(target protocol.ActrId, chunk protocol.DataStream) error

	// RegisterStream installs the handler for streamID. A second
	// registration for the same id is rejected.
	RegisterStream(streamID string, handler StreamHandler) error

	// UnregisterStream removes the handler for streamID. Chunks arriving
	// strictly after it returns do not reach the removed handler.
	UnregisterStream(streamID string) error

	// CallID returns the id of the actor whose RPC call is currently
	// being serviced, if any.
	CallID() (protocol.ActrId, bool)
}

// Workload is the behavior attached to a node.
type Workload interface {
	// OnStart is triggered after the node came up
	OnStart(ctx Context) error

	// OnStop is triggered before the node goes down
	OnStop(ctx Context) error

	// Dispatch services one inbound RPC envelope and returns the
	// response bytes
	Dispatch(ctx Context, env protocol.RpcEnvelope) ([]byte, error)
}
