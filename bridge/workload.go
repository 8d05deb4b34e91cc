package bridge

import (
	"reflect"

	"github.com/actrlabs/actrgo/boundary"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/runtime"
)

// Host entry-point shapes. A workload object must expose all three, either
// as map entries ("onStart", "onStop", "dispatch") or as methods (OnStart,
// OnStop, Dispatch).
type (
	// OnStartFunc runs after the node came up
	OnStartFunc = func(ctx *Context)

	// OnStopFunc runs before the node goes down
	OnStopFunc = func(ctx *Context)

	// DispatchFunc services one RPC envelope and returns a promise the
	// host settles with the response bytes
	DispatchFunc = func(ctx *Context, env RpcEnvelope) *boundary.Promise
)

// DynamicWorkload adapts a host-supplied object into a runtime workload.
// Construction captures the three entry points as durable handles into the
// host queue and fails before any use when one is missing or miscast.
type DynamicWorkload struct {
	queue *boundary.Queue

	onStart  *boundary.Handle
	onStop   *boundary.Handle
	dispatch *boundary.Handle
}

var _ runtime.Workload = (*DynamicWorkload)(nil)

// NewDynamicWorkload validates host and captures its entry points.
func NewDynamicWorkload(host interface{}, q *boundary.Queue) (*DynamicWorkload, error) {
	if host == nil {
		return nil, protocol.NewBoundaryError("nil workload object")
	}
	if q == nil {
		return nil, protocol.NewBoundaryError("nil host queue")
	}

	onStart, err := entryPoint[OnStartFunc](host, "onStart", "OnStart")
	if err != nil {
		return nil, err
	}
	onStop, err := entryPoint[OnStopFunc](host, "onStop", "OnStop")
	if err != nil {
		return nil, err
	}
	dispatch, err := entryPoint[DispatchFunc](host, "dispatch", "Dispatch")
	if err != nil {
		return nil, err
	}

	w := &DynamicWorkload{queue: q}

	w.onStart, err = boundary.NewHandle("onStart", q, func(args []interface{}) (interface{}, error) {
		onStart(args[0].(*Context))
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	w.onStop, err = boundary.NewHandle("onStop", q, func(args []interface{}) (interface{}, error) {
		onStop(args[0].(*Context))
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	w.dispatch, err = boundary.NewHandle("dispatch", q, func(args []interface{}) (interface{}, error) {
		p := dispatch(args[0].(*Context), args[1].(RpcEnvelope))
		if p == nil {
			return nil, protocol.NewProtocolError("dispatch returned no promise")
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// entryPoint resolves one named entry point of host and checks its shape.
func entryPoint[F any](host interface{}, key, method string) (F, error) {
	var zero F

	raw, found := lookupEntryPoint(host, key, method)
	if !found {
		return zero, protocol.NewBoundaryError("workload object has no %q entry point", key)
	}

	if fn, ok := raw.(F); ok {
		return fn, nil
	}

	// Hosts may hand in their own named func types; identical signatures
	// still qualify.
	want := reflect.TypeOf(zero)
	got := reflect.ValueOf(raw)
	if raw != nil && got.Kind() == reflect.Func && got.Type().ConvertibleTo(want) {
		return got.Convert(want).Interface().(F), nil
	}

	return zero, protocol.NewBoundaryError("workload entry point %q is not callable as %s, got %T",
		key, want, raw)
}

// lookupEntryPoint finds the entry point value: a map key for
// dynamically-shaped hosts, a bound method otherwise.
func lookupEntryPoint(host interface{}, key, method string) (interface{}, bool) {
	if m, ok := host.(map[string]interface{}); ok {
		raw, found := m[key]
		return raw, found
	}

	mv := reflect.ValueOf(host).MethodByName(method)
	if !mv.IsValid() {
		return nil, false
	}
	return mv.Interface(), true
}

// surface derives the boundary context surface bound to the host queue.
func (w *DynamicWorkload) surface(ctx runtime.Context) (*Context, error) {
	surface, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return surface.withQueue(w.queue), nil
}

// OnStart delivers the start event across the boundary in blocking mode:
// it returns once the invocation was accepted by the host queue.
func (w *DynamicWorkload) OnStart(ctx runtime.Context) error {
	surface, err := w.surface(ctx)
	if err != nil {
		return err
	}
	return w.onStart.Call(surface)
}

// OnStop delivers the stop event across the boundary in blocking mode.
func (w *DynamicWorkload) OnStop(ctx runtime.Context) error {
	surface, err := w.surface(ctx)
	if err != nil {
		return err
	}
	return w.onStop.Call(surface)
}

// Dispatch services one inbound envelope through the stateless Dispatcher.
func (w *DynamicWorkload) Dispatch(ctx runtime.Context, env protocol.RpcEnvelope) ([]byte, error) {
	return Dispatcher{}.Dispatch(w, env, ctx)
}

// Release drops the adapter's entry-point handles. Outstanding invocations
// finish; new ones fail.
func (w *DynamicWorkload) Release() {
	w.onStart.Close()
	w.onStop.Close()
	w.dispatch.Close()
}
