package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/transport"
)

// Node hosts one workload on one system. Start brings the transport up,
// delivers OnStart and returns the live Ref.
type Node struct {
	system   *System
	workload Workload

	calls   *callTable
	streams *streamRegistry

	// stateMu orders in-flight accounting against the shutdown signal:
	// frame handlers hold the read side while registering with inflight,
	// Shutdown holds the write side while flipping the flag.
	stateMu      sync.RWMutex
	shuttingDown bool
	inflight     sync.WaitGroup

	shutdownOnce sync.Once
	done         chan struct{}

	started int32 // atomic
}

func newNode(s *System, w Workload) *Node {
	return &Node{
		system:   s,
		workload: w,
		calls:    newCallTable(fmt.Sprintf("%d-%d", s.self.Realm.RealmID, s.self.SerialNumber)),
		streams:  newStreamRegistry(),
		done:     make(chan struct{}),
	}
}

// Start brings the node up: transport listening, identity registered for
// discovery, OnStart delivered to the workload.
func (n *Node) Start(ctx context.Context) (*Ref, error) {
	if !atomic.CompareAndSwapInt32(&n.started, 0, 1) {
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrNodeStarted, "start")
	}

	n.system.tr.SetHandler(n.handleFrame)
	if err := n.system.tr.Start(ctx); err != nil {
		atomic.StoreInt32(&n.started, 0)
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "transport start")
	}

	// The listener may have bound an ephemeral port; refresh the route.
	n.system.routes.add(n.system.self, n.system.tr.LocalAddr())
	n.system.registry.register(n.system.self)

	if err := n.workload.OnStart(n.newContext(nil)); err != nil {
		n.system.registry.unregister(n.system.self)
		n.system.tr.Stop()
		return nil, protocol.WrapError(protocol.ClassProtocol, err, "workload OnStart")
	}

	logrus.Infof("node %s started on %s", n.system.self, n.system.tr.LocalAddr())
	return &Ref{node: n}, nil
}

// newContext derives the canonical execution context. callID is the id of
// the caller when servicing an RPC, nil otherwise.
func (n *Node) newContext(callID *protocol.ActrId) *RuntimeContext {
	return &RuntimeContext{node: n, callID: callID}
}

// beginWork registers one in-flight frame handler. It fails once shutdown
// began.
func (n *Node) beginWork() bool {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	if n.shuttingDown {
		return false
	}
	n.inflight.Add(1)
	return true
}

// handleFrame routes one inbound frame. Calls and tells run in their own
// goroutine so a slow workload cannot stall the link.
func (n *Node) handleFrame(f *transport.Frame) {
	switch f.Kind {
	case transport.FrameCall:
		if !n.beginWork() {
			n.respond(f, nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrShuttingDown, "call %s", f.RouteKey))
			return
		}
		go func() {
			defer n.inflight.Done()
			env := protocol.RpcEnvelope{RouteKey: f.RouteKey, Payload: f.Payload, RequestID: f.RequestID}
			sender := f.Sender
			payload, err := n.workload.Dispatch(n.newContext(&sender), env)
			n.respond(f, payload, err)
		}()

	case transport.FrameTell:
		if !n.beginWork() {
			logrus.Debugf("dropping tell %s while shutting down", f.RouteKey)
			return
		}
		go func() {
			defer n.inflight.Done()
			env := protocol.RpcEnvelope{RouteKey: f.RouteKey, Payload: f.Payload}
			sender := f.Sender
			if _, err := n.workload.Dispatch(n.newContext(&sender), env); err != nil {
				logrus.WithError(err).Errorf("tell %s from %s failed", f.RouteKey, f.Sender)
			}
		}()

	case transport.FrameResponse:
		res := callResult{payload: f.Payload}
		if f.Error != "" {
			res.payload = nil
			res.err = protocol.NewProtocolError("remote call failed: %s", f.Error)
		}
		n.calls.resolve(f.RequestID, res)

	case transport.FrameStream:
		if f.Stream == nil {
			logrus.Debugf("stream frame without chunk from %s", f.Sender)
			return
		}
		n.streams.dispatch(*f.Stream, f.Sender)

	default:
		logrus.Debugf("dropping frame of unknown kind %d from %s", f.Kind, f.Sender)
	}
}

// respond sends the outcome of a call frame back to its origin.
func (n *Node) respond(f *transport.Frame, payload []byte, err error) {
	resp := transport.NewResponseFrame(n.system.self, f.Sender, f.RequestID, payload, err)
	addr := f.ReplyTo
	if addr == "" {
		var ok bool
		addr, ok = n.system.routes.lookup(f.Sender)
		if !ok {
			logrus.Errorf("no route back to caller %s for request %s", f.Sender, f.RequestID)
			return
		}
	}
	if sendErr := n.system.tr.Send(addr, resp); sendErr != nil {
		logrus.WithError(sendErr).Errorf("failed to respond to %s", f.Sender)
	}
}

// shutdown signals shutdown once and drains in the background.
func (n *Node) shutdown() {
	n.shutdownOnce.Do(func() {
		n.stateMu.Lock()
		n.shuttingDown = true
		n.stateMu.Unlock()

		go n.drain()
	})
}

// drain waits for in-flight handlers, delivers OnStop, stops the transport
// and releases every waiter.
func (n *Node) drain() {
	n.inflight.Wait()

	if err := n.workload.OnStop(n.newContext(nil)); err != nil {
		logrus.WithError(err).Errorf("workload OnStop failed for %s", n.system.self)
	}

	n.system.registry.unregister(n.system.self)
	n.system.routes.remove(n.system.self)

	if err := n.system.tr.Stop(); err != nil {
		logrus.WithError(err).Errorf("transport stop failed for %s", n.system.self)
	}

	logrus.Infof("node %s drained", n.system.self)
	close(n.done)
}

func (n *Node) isShuttingDown() bool {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.shuttingDown
}

// Ref is the durable operational handle on a live node. It is not consumed
// by use.
type Ref struct {
	node *Node
}

// ActorID returns the node's actor identity.
func (r *Ref) ActorID() protocol.ActrId {
	return r.node.system.self
}

// Discover returns up to count live actor ids of type t.
func (r *Ref) Discover(ctx context.Context, t protocol.ActrType, count uint32) ([]protocol.ActrId, error) {
	candidates := r.node.system.registry.candidates(t, int(count))
	if len(candidates) == 0 {
		return nil, protocol.WrapError(protocol.ClassProtocol, protocol.ErrNoCandidate, "discover %s", t)
	}
	return candidates, nil
}

// CallRaw drives the node's own peer-facing call path: the request enters
// through the transport and the attached workload services it like any
// remote call.
func (r *Ref) CallRaw(ctx context.Context, routeKey string, pt protocol.PayloadType, payload []byte, timeoutMs int64) ([]byte, error) {
	return r.node.newContext(nil).CallRaw(ctx, r.node.system.self, routeKey, pt, payload, timeoutMs)
}

// TellRaw sends a one-way message along the node's own call path.
func (r *Ref) TellRaw(routeKey string, pt protocol.PayloadType, payload []byte) error {
	return r.node.newContext(nil).TellRaw(r.node.system.self, routeKey, pt, payload)
}

// Shutdown signals shutdown. It is idempotent, never blocks and does not
// cancel in-flight calls; those observe their own timeouts.
func (r *Ref) Shutdown() {
	r.node.shutdown()
}

// WaitForShutdown suspends the caller until the drain completed. Any number
// of callers may wait concurrently.
func (r *Ref) WaitForShutdown(ctx context.Context) error {
	select {
	case <-r.node.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShuttingDown reports whether shutdown has been signalled.
func (r *Ref) IsShuttingDown() bool {
	return r.node.isShuttingDown()
}
