package bridge

import (
	"context"

	"github.com/actrlabs/actrgo/boundary"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/runtime"
)

// StreamCallback consumes one boundary chunk and the id of its sender.
type StreamCallback func(chunk DataStream, sender ActrID)

// Context is the capability surface handed to host workload code. It is
// derived from the one canonical native context implementation; deriving it
// from anything else fails with a type-mismatch error instead of assuming a
// layout that does not hold.
type Context struct {
	inner *runtime.RuntimeContext

	// queue, when set, carries stream callbacks into the host's
	// execution queue instead of invoking them on runtime goroutines
	queue *boundary.Queue
}

// FromContext derives the boundary surface from a native context. Only the
// canonical *runtime.RuntimeContext passes the identity check.
func FromContext(ctx runtime.Context) (*Context, error) {
	inner, ok := ctx.(*runtime.RuntimeContext)
	if !ok {
		return nil, protocol.NewProtocolError("context type mismatch: expected *runtime.RuntimeContext, got %T", ctx)
	}
	return &Context{inner: inner}, nil
}

// withQueue binds host stream callbacks to the given execution queue.
func (c *Context) withQueue(q *boundary.Queue) *Context {
	c.queue = q
	return c
}

// CallRaw sends an RPC to target and suspends until the response arrives or
// timeoutMs elapses.
func (c *Context) CallRaw(ctx context.Context, target ActrID, routeKey string, pt protocol.PayloadType, payload []byte, timeoutMs int64) ([]byte, error) {
	return c.inner.CallRaw(ctx, target.Native(), routeKey, pt, payload, timeoutMs)
}

// TellRaw sends a best-effort one-way message. It returns once the
// transport accepted the send.
func (c *Context) TellRaw(target ActrID, routeKey string, pt protocol.PayloadType, payload []byte) error {
	return c.inner.TellRaw(target.Native(), routeKey, pt, payload)
}

// Discover resolves exactly one live actor of the given type.
func (c *Context) Discover(targetType ActrType) (ActrID, error) {
	id, err := c.inner.DiscoverRouteCandidate(targetType.Native())
	if err != nil {
		return ActrID{}, err
	}
	return ActrIDFromNative(id), nil
}

// SendDataStream transmits one chunk to target.
func (c *Context) SendDataStream(target ActrID, chunk DataStream) error {
	return c.inner.SendDataStream(target.Native(), chunk.Native())
}

// RegisterStream installs callback as the one handler for streamID. When
// the context is bound to a host queue the callback executes there.
// Registering a second handler for a live id is rejected.
func (c *Context) RegisterStream(streamID string, callback StreamCallback) error {
	if callback == nil {
		return protocol.NewProtocolError("nil stream callback for %q", streamID)
	}

	if c.queue == nil {
		return c.inner.RegisterStream(streamID, func(chunk protocol.DataStream, sender protocol.ActrId) {
			callback(DataStreamFromNative(chunk), ActrIDFromNative(sender))
		})
	}

	handle, err := boundary.NewHandle("stream:"+streamID, c.queue, func(args []interface{}) (interface{}, error) {
		callback(args[0].(DataStream), args[1].(ActrID))
		return nil, nil
	})
	if err != nil {
		return err
	}

	return c.inner.RegisterStream(streamID, func(chunk protocol.DataStream, sender protocol.ActrId) {
		// Hand the chunk to the host queue; delivery order across the
		// queue is whatever the transport produced.
		_ = handle.Call(DataStreamFromNative(chunk), ActrIDFromNative(sender))
	})
}

// UnregisterStream removes the handler for streamID. Chunks arriving
// strictly after it returns no longer reach the removed handler.
func (c *Context) UnregisterStream(streamID string) error {
	return c.inner.UnregisterStream(streamID)
}

// CallID returns the id of the RPC call currently being serviced, if the
// context was obtained while servicing one.
func (c *Context) CallID() (ActrID, bool) {
	id, ok := c.inner.CallID()
	if !ok {
		return ActrID{}, false
	}
	return ActrIDFromNative(id), true
}
