package bridge

import (
	"context"
	"sync"

	"github.com/actrlabs/actrgo/boundary"
	"github.com/actrlabs/actrgo/config"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/runtime"
)

// System is the first handle of the lifecycle chain. Attach consumes it:
// the inner runtime system moves into the Node and a second Attach fails.
type System struct {
	mu    sync.Mutex
	inner *runtime.System
	queue *boundary.Queue
}

// FromFile builds a System from the configuration file at configPath,
// initializing log output from its observability section. Parse and schema
// failures surface as config-class errors.
func FromFile(ctx context.Context, configPath string) (*System, error) {
	cfg, err := config.NewLoader().LoadFromFile(configPath)
	if err != nil {
		return nil, protocol.WrapError(protocol.ClassConfig, err, "load %s", configPath)
	}

	initObservability(cfg.Observability)

	return FromConfig(ctx, cfg)
}

// FromConfig builds a System from an already-loaded configuration.
func FromConfig(_ context.Context, cfg *config.Config) (*System, error) {
	inner, err := runtime.NewSystem(cfg)
	if err != nil {
		return nil, err
	}

	return &System{
		inner: inner,
		queue: boundary.NewQueue(boundary.DefaultQueueSize),
	}, nil
}

// take moves the inner system out exactly once. Concurrent callers race for
// one success; every loser gets the consumed error.
func (s *System) take() (*runtime.System, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner == nil {
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrSystemConsumed, "attach")
	}
	inner := s.inner
	s.inner = nil
	return inner, nil
}

// Attach adapts the host workload object and consumes the System into a
// Node. A host object missing any entry point fails the call before any
// invocation and before the System is consumed.
func (s *System) Attach(host interface{}) (*Node, error) {
	workload, err := NewDynamicWorkload(host, s.queue)
	if err != nil {
		return nil, err
	}

	inner, err := s.take()
	if err != nil {
		workload.Release()
		return nil, err
	}

	node, err := inner.Attach(workload)
	if err != nil {
		workload.Release()
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "attach workload")
	}

	return &Node{inner: node, queue: s.queue, workload: workload}, nil
}

// Node is the second handle of the chain; Start consumes it.
type Node struct {
	mu       sync.Mutex
	inner    *runtime.Node
	queue    *boundary.Queue
	workload *DynamicWorkload
}

// Start brings the node up and consumes it into the live Ref. A second
// Start fails with the started error.
func (n *Node) Start(ctx context.Context) (*Ref, error) {
	n.mu.Lock()
	inner := n.inner
	n.inner = nil
	n.mu.Unlock()

	if inner == nil {
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrNodeStarted, "start")
	}

	ref, err := inner.Start(ctx)
	if err != nil {
		return nil, err
	}

	return &Ref{inner: ref, queue: n.queue, workload: n.workload}, nil
}

// Ref is the durable operational handle on the live node. It is never
// consumed by use.
type Ref struct {
	inner    *runtime.Ref
	queue    *boundary.Queue
	workload *DynamicWorkload

	teardownOnce sync.Once
}

// ActorID returns the node's identity.
func (r *Ref) ActorID() ActrID {
	return ActrIDFromNative(r.inner.ActorID())
}

// Discover returns up to count live actors of the given type.
func (r *Ref) Discover(ctx context.Context, targetType ActrType, count uint32) ([]ActrID, error) {
	ids, err := r.inner.Discover(ctx, targetType.Native(), count)
	if err != nil {
		return nil, err
	}
	out := make([]ActrID, len(ids))
	for i, id := range ids {
		out[i] = ActrIDFromNative(id)
	}
	return out, nil
}

// Call sends an RPC along the node's own peer-facing call path and
// suspends until the response arrives or timeoutMs elapses.
func (r *Ref) Call(ctx context.Context, routeKey string, pt protocol.PayloadType, payload []byte, timeoutMs int64) ([]byte, error) {
	return r.inner.CallRaw(ctx, routeKey, pt, payload, timeoutMs)
}

// Tell sends a one-way message along the node's own call path.
func (r *Ref) Tell(routeKey string, pt protocol.PayloadType, payload []byte) error {
	return r.inner.TellRaw(routeKey, pt, payload)
}

// Shutdown signals shutdown. Idempotent and non-blocking; in-flight calls
// observe their own timeouts. Once the drain completes the host queue and
// the entry-point handles are released.
func (r *Ref) Shutdown() {
	r.inner.Shutdown()
	r.teardownOnce.Do(func() {
		go func() {
			r.inner.WaitForShutdown(context.Background())
			r.workload.Release()
			r.queue.Close()
		}()
	})
}

// WaitForShutdown suspends until the drain completed. Safe for any number
// of concurrent waiters.
func (r *Ref) WaitForShutdown(ctx context.Context) error {
	return r.inner.WaitForShutdown(ctx)
}

// IsShuttingDown reports whether shutdown has been signalled.
func (r *Ref) IsShuttingDown() bool {
	return r.inner.IsShuttingDown()
}
