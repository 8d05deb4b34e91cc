package runtime

import (
	"context"
	"time"

	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/transport"
)

// RuntimeContext is the canonical Context implementation. Exactly one such
// implementation exists; boundary code derives its surfaces from it and
// refuses every other implementation.
type RuntimeContext struct {
	node   *Node
	callID *protocol.ActrId
}

var _ Context = (*RuntimeContext)(nil)

// CallRaw sends an RPC to target and suspends until the response arrives,
// timeoutMs elapses or ctx is cancelled. On expiry the correlation record
// is retired before returning, so a late response cannot be misdelivered to
// a later call reusing the key.
func (rc *RuntimeContext) CallRaw(ctx context.Context, target protocol.ActrId, routeKey string, pt protocol.PayloadType, payload []byte, timeoutMs int64) ([]byte, error) {
	if !pt.IsValid() {
		return nil, protocol.NewProtocolError("invalid payload type %d", pt)
	}

	sys := rc.node.system
	timeout := time.Duration(timeoutMs) * time.Millisecond
	if timeoutMs <= 0 {
		timeout = sys.defaultTimeout
	}

	addr, ok := sys.routes.lookup(target)
	if !ok {
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrPeerUnreachable, "call %s on %s", routeKey, target)
	}

	requestID := rc.node.calls.nextRequestID()
	responseCh := rc.node.calls.register(requestID)

	env := protocol.RpcEnvelope{RouteKey: routeKey, Payload: payload, RequestID: requestID}
	frame := transport.NewCallFrame(sys.self, target, sys.tr.LocalAddr(), env, pt)

	if err := sys.tr.Send(addr, frame); err != nil {
		rc.node.calls.retire(requestID)
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "send call %s to %s", routeKey, target)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-responseCh:
		return res.payload, res.err
	case <-timer.C:
		rc.node.calls.retire(requestID)
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrCallTimeout, "call %s to %s after %s", routeKey, target, timeout)
	case <-ctx.Done():
		rc.node.calls.retire(requestID)
		return nil, protocol.WrapError(protocol.ClassProtocol, ctx.Err(), "call %s to %s", routeKey, target)
	}
}

// TellRaw sends a one-way message. It returns once the transport accepted
// the frame.
func (rc *RuntimeContext) TellRaw(target protocol.ActrId, routeKey string, pt protocol.PayloadType, payload []byte) error {
	if !pt.IsValid() {
		return protocol.NewProtocolError("invalid payload type %d", pt)
	}

	sys := rc.node.system
	addr, ok := sys.routes.lookup(target)
	if !ok {
		return protocol.WrapError(protocol.ClassProtocol, protocol.ErrPeerUnreachable, "tell %s on %s", routeKey, target)
	}

	frame := transport.NewTellFrame(sys.self, target, routeKey, pt, payload)
	if err := sys.tr.Send(addr, frame); err != nil {
		return protocol.WrapError(protocol.ClassProtocol, err, "send tell %s to %s", routeKey, target)
	}
	return nil
}

// DiscoverRouteCandidate resolves exactly one live actor of type t.
func (rc *RuntimeContext) DiscoverRouteCandidate(t protocol.ActrType) (protocol.ActrId, error) {
	return rc.node.system.registry.candidate(t)
}

// SendDataStream transmits one chunk to target.
func (rc *RuntimeContext) SendDataStream(target protocol.ActrId, chunk protocol.DataStream) error {
	sys := rc.node.system
	addr, ok := sys.routes.lookup(target)
	if !ok {
		return protocol.WrapError(protocol.ClassProtocol, protocol.ErrPeerUnreachable, "stream %q to %s", chunk.StreamID, target)
	}

	frame := transport.NewStreamFrame(sys.self, target, chunk)
	if err := sys.tr.Send(addr, frame); err != nil {
		return protocol.WrapError(protocol.ClassProtocol, err, "send stream %q to %s", chunk.StreamID, target)
	}
	return nil
}

// RegisterStream installs handler for streamID.
func (rc *RuntimeContext) RegisterStream(streamID string, handler StreamHandler) error {
	return rc.node.streams.register(streamID, handler)
}

// UnregisterStream removes the handler for streamID.
func (rc *RuntimeContext) UnregisterStream(streamID string) error {
	rc.node.streams.unregister(streamID)
	return nil
}

// CallID returns the id of the caller whose RPC is being serviced, if any.
func (rc *RuntimeContext) CallID() (protocol.ActrId, bool) {
	if rc.callID == nil {
		return protocol.ActrId{}, false
	}
	return *rc.callID, true
}
