package boundary

import (
	"fmt"
	"sync/atomic"

	"github.com/actrlabs/actrgo/protocol"
)

// Callable is the host-side shape of one captured entry point.
type Callable func(args []interface{}) (interface{}, error)

// Handle is a durable, thread-safe reference to one host callable. Any
// number of native goroutines may invoke it concurrently; invocations do
// not serialize each other here — the queue serializes execution, which is
// the host's concern. The handle is reference-counted: every in-flight
// invocation holds a reference, and Close only forbids new invocations, it
// never invalidates outstanding ones.
type Handle struct {
	name  string
	queue *Queue
	fn    Callable

	refs   int64 // atomic
	closed int32 // atomic
}

// NewHandle captures fn as a handle bound to the host queue q.
func NewHandle(name string, q *Queue, fn Callable) (*Handle, error) {
	if q == nil {
		return nil, protocol.NewBoundaryError("entry point %q: nil host queue", name)
	}
	if fn == nil {
		return nil, protocol.NewBoundaryError("entry point %q is not callable", name)
	}
	h := &Handle{name: name, queue: q, fn: fn}
	atomic.AddInt64(&h.refs, 1) // owner reference
	return h, nil
}

func (h *Handle) acquire() error {
	if atomic.LoadInt32(&h.closed) == 1 {
		return protocol.NewBoundaryError("entry point %q released", h.name)
	}
	atomic.AddInt64(&h.refs, 1)
	return nil
}

func (h *Handle) release() {
	atomic.AddInt64(&h.refs, -1)
}

// Call invokes the entry point in blocking mode: the caller suspends until
// the invocation has been accepted by the host queue, not until the host
// logic finished. The host's return value is discarded.
func (h *Handle) Call(args ...interface{}) error {
	if err := h.acquire(); err != nil {
		return err
	}

	err := h.queue.submit(func() {
		defer h.release()
		h.fn(args)
	})
	if err != nil {
		h.release()
		return protocol.WrapError(protocol.ClassBoundary, err, "deliver %q", h.name)
	}
	return nil
}

// CallAsync invokes the entry point in asynchronous mode: the returned
// promise settles with the host callable's own result once the queue
// executed it. A queue that refuses the job yields an already-rejected
// promise.
func (h *Handle) CallAsync(args ...interface{}) *Promise {
	if err := h.acquire(); err != nil {
		return Rejected(err)
	}

	p := NewPromise()
	err := h.queue.submit(func() {
		defer h.release()
		value, err := h.fn(args)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(value)
	})
	if err != nil {
		h.release()
		return Rejected(protocol.WrapError(protocol.ClassBoundary, err, "deliver %q", h.name))
	}
	return p
}

// Close drops the owner reference. New invocations fail afterwards.
func (h *Handle) Close() {
	if atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		h.release()
	}
}

// Refs reports the live reference count. Useful in tests and diagnostics.
func (h *Handle) Refs() int64 {
	return atomic.LoadInt64(&h.refs)
}

// String identifies the handle in logs.
func (h *Handle) String() string {
	return fmt.Sprintf("handle(%s)", h.name)
}
