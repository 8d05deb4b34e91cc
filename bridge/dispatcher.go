package bridge

import (
	"context"

	"github.com/actrlabs/actrgo/boundary"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/runtime"
)

// Dispatcher is the stateless invoker threading one inbound RPC envelope
// across the boundary: derive the surface, mirror the envelope, invoke the
// dispatch handle asynchronously and await the host's promise.
type Dispatcher struct{}

// Dispatch returns the resolved bytes verbatim. A rejection, or a call that
// could not even be scheduled, becomes a protocol-class error carrying the
// failure's text; it is propagated as the RPC's outcome, never dropped.
// No retry happens at this layer.
func (Dispatcher) Dispatch(w *DynamicWorkload, env protocol.RpcEnvelope, ctx runtime.Context) ([]byte, error) {
	surface, err := w.surface(ctx)
	if err != nil {
		return nil, err
	}

	invocation := w.dispatch.CallAsync(surface, envelopeFromNative(env))

	result, err := invocation.Await(context.Background())
	if err != nil {
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "dispatch %q failed to execute", env.RouteKey)
	}

	hostPromise, ok := result.(*boundary.Promise)
	if !ok {
		return nil, protocol.NewProtocolError("dispatch %q yielded %T, want promise", env.RouteKey, result)
	}

	settled, err := hostPromise.Await(context.Background())
	if err != nil {
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "dispatch %q rejected", env.RouteKey)
	}

	switch response := settled.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return response, nil
	default:
		return nil, protocol.NewProtocolError("dispatch %q resolved with %T, want bytes", env.RouteKey, settled)
	}
}
