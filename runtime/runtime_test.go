package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/actrlabs/actrgo/config"
	"github.com/actrlabs/actrgo/protocol"
)

// echoWorkload answers every dispatch with "echo:" + payload.
type echoWorkload struct {
	started chan struct{}
	stopped chan struct{}

	// block, when non-nil, stalls every dispatch until closed
	block chan struct{}

	// callers records the call id seen by each dispatch
	callers chan protocol.ActrId
}

func newEchoWorkload() *echoWorkload {
	return &echoWorkload{
		started: make(chan struct{}, 1),
		stopped: make(chan struct{}, 1),
		callers: make(chan protocol.ActrId, 16),
	}
}

func (w *echoWorkload) OnStart(ctx Context) error {
	w.started <- struct{}{}
	return nil
}

func (w *echoWorkload) OnStop(ctx Context) error {
	w.stopped <- struct{}{}
	return nil
}

func (w *echoWorkload) Dispatch(ctx Context, env protocol.RpcEnvelope) ([]byte, error) {
	if id, ok := ctx.CallID(); ok {
		select {
		case w.callers <- id:
		default:
		}
	}
	if w.block != nil {
		<-w.block
	}
	return append([]byte("echo:"), env.Payload...), nil
}

func testConfig(serial uint64, peers ...config.PeerConfig) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Node.Realm = 1
	cfg.Node.SerialNumber = serial
	cfg.Node.Type = config.ActorTypeConfig{Manufacturer: "acme", Name: "echo"}
	cfg.Peers = peers
	return cfg
}

func startNode(t *testing.T, cfg *config.Config, w Workload) *Ref {
	t.Helper()

	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatalf("Failed to create system: %v", err)
	}
	node, err := sys.Attach(w)
	if err != nil {
		t.Fatalf("Failed to attach workload: %v", err)
	}
	ref, err := node.Start(context.Background())
	if err != nil {
		t.Fatalf("Failed to start node: %v", err)
	}
	return ref
}

func TestNodeSelfCall(t *testing.T) {
	w := newEchoWorkload()
	ref := startNode(t, testConfig(101), w)
	defer ref.Shutdown()

	select {
	case <-w.started:
	case <-time.After(time.Second):
		t.Fatalf("OnStart never delivered")
	}

	resp, err := ref.CallRaw(context.Background(), "echo", protocol.PayloadRpcReliable, []byte("abc"), 2000)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(resp) != "echo:abc" {
		t.Errorf("Expected echo:abc, got %s", resp)
	}
}

func TestNodeTell(t *testing.T) {
	w := newEchoWorkload()
	ref := startNode(t, testConfig(102), w)
	defer ref.Shutdown()

	if err := ref.TellRaw("notify", protocol.PayloadRpcSignal, []byte("x")); err != nil {
		t.Fatalf("Tell failed: %v", err)
	}

	select {
	case <-w.callers:
	case <-time.After(time.Second):
		t.Fatalf("Tell never reached the workload")
	}
}

func TestCallTimeoutIsBounded(t *testing.T) {
	w := newEchoWorkload()
	w.block = make(chan struct{})
	ref := startNode(t, testConfig(103), w)
	defer close(w.block)

	begin := time.Now()
	_, err := ref.CallRaw(context.Background(), "echo", protocol.PayloadRpcReliable, nil, 200)
	elapsed := time.Since(begin)

	if !errors.Is(err, protocol.ErrCallTimeout) {
		t.Fatalf("Expected timeout error, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Timeout took %s, expected bounded by ~200ms", elapsed)
	}
}

func TestCrossNodeCallCarriesCallID(t *testing.T) {
	calleeCfg := testConfig(202)
	calleeCfg.Node.Type = config.ActorTypeConfig{Manufacturer: "acme", Name: "mirror"}
	calleeWorkload := newEchoWorkload()
	calleeRef := startNode(t, calleeCfg, calleeWorkload)
	defer calleeRef.Shutdown()

	calleeID := calleeRef.ActorID()
	callerCfg := testConfig(201, config.PeerConfig{
		Realm:        1,
		SerialNumber: 202,
		Type:         config.ActorTypeConfig{Manufacturer: "acme", Name: "mirror"},
		Address:      InprocAddr(calleeID),
	})
	callerWorkload := newEchoWorkload()
	callerRef := startNode(t, callerCfg, callerWorkload)
	defer callerRef.Shutdown()

	ctx := callerRef.node.newContext(nil)
	resp, err := ctx.CallRaw(context.Background(), calleeID, "echo", protocol.PayloadRpcReliable, []byte("hi"), 2000)
	if err != nil {
		t.Fatalf("Cross-node call failed: %v", err)
	}
	if string(resp) != "echo:hi" {
		t.Errorf("Expected echo:hi, got %s", resp)
	}

	select {
	case caller := <-calleeWorkload.callers:
		if caller != callerRef.ActorID() {
			t.Errorf("Expected call id %s, got %s", callerRef.ActorID(), caller)
		}
	case <-time.After(time.Second):
		t.Fatalf("Callee never observed a call id")
	}
}

func TestDiscovery(t *testing.T) {
	mirror := config.ActorTypeConfig{Manufacturer: "acme", Name: "mirror"}
	cfg := testConfig(301,
		config.PeerConfig{Realm: 1, SerialNumber: 311, Type: mirror, Address: "127.0.0.1:7311"},
		config.PeerConfig{Realm: 1, SerialNumber: 312, Type: mirror, Address: "127.0.0.1:7312"},
	)
	ref := startNode(t, cfg, newEchoWorkload())
	defer ref.Shutdown()

	mirrorType := protocol.ActrType{Manufacturer: "acme", Name: "mirror"}

	ids, err := ref.Discover(context.Background(), mirrorType, 10)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(ids))
	}

	one, err := ref.Discover(context.Background(), mirrorType, 1)
	if err != nil {
		t.Fatalf("Discover with count 1 failed: %v", err)
	}
	if len(one) != 1 {
		t.Errorf("Expected exactly 1 candidate, got %d", len(one))
	}

	_, err = ref.Discover(context.Background(), protocol.ActrType{Manufacturer: "acme", Name: "absent"}, 1)
	if !errors.Is(err, protocol.ErrNoCandidate) {
		t.Errorf("Expected no-candidate error, got %v", err)
	}
}

func TestShutdownLifecycle(t *testing.T) {
	w := newEchoWorkload()
	ref := startNode(t, testConfig(401), w)

	if ref.IsShuttingDown() {
		t.Fatalf("Node should not report shutdown before the signal")
	}

	// Idempotent: any number of signals, one drain.
	ref.Shutdown()
	ref.Shutdown()

	if !ref.IsShuttingDown() {
		t.Errorf("Expected IsShuttingDown after the signal")
	}

	// Multiple concurrent waiters all get released.
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			errs <- ref.WaitForShutdown(ctx)
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("WaitForShutdown failed: %v", err)
		}
	}

	select {
	case <-w.stopped:
	case <-time.After(time.Second):
		t.Fatalf("OnStop never delivered")
	}

	// Calls after shutdown fail instead of hanging.
	if _, err := ref.CallRaw(context.Background(), "echo", protocol.PayloadRpcReliable, nil, 200); err == nil {
		t.Errorf("Expected calls to fail after shutdown")
	}
}

func TestCallTableRetiresOnTimeout(t *testing.T) {
	ct := newCallTable("test")

	id := ct.nextRequestID()
	ch := ct.register(id)
	ct.retire(id)

	// A late response for a retired id is dropped, never delivered.
	ct.resolve(id, callResult{payload: []byte("late")})

	select {
	case res := <-ch:
		t.Fatalf("Late response was delivered: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCallTableRequestIDsAreUnique(t *testing.T) {
	ct := newCallTable("test")
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ct.nextRequestID()
		if seen[id] {
			t.Fatalf("Duplicate request id %s", id)
		}
		seen[id] = true
	}
}

func TestStreamRegistry(t *testing.T) {
	sr := newStreamRegistry()
	sender := protocol.ActrId{Realm: protocol.Realm{RealmID: 1}, SerialNumber: 9}

	received := make(chan protocol.DataStream, 4)
	err := sr.register("s1", func(chunk protocol.DataStream, from protocol.ActrId) {
		if from != sender {
			t.Errorf("Expected sender %s, got %s", sender, from)
		}
		received <- chunk
	})
	if err != nil {
		t.Fatalf("Failed to register stream: %v", err)
	}

	// A second registration for a live id is rejected, not duplicated.
	err = sr.register("s1", func(protocol.DataStream, protocol.ActrId) {})
	if !errors.Is(err, protocol.ErrStreamRegistered) {
		t.Errorf("Expected duplicate registration to be rejected, got %v", err)
	}

	sr.dispatch(protocol.DataStream{StreamID: "s1", Sequence: 1, Payload: []byte("a")}, sender)
	select {
	case chunk := <-received:
		if string(chunk.Payload) != "a" {
			t.Errorf("Unexpected chunk payload %s", chunk.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("Chunk never delivered")
	}

	sr.unregister("s1")
	sr.dispatch(protocol.DataStream{StreamID: "s1", Sequence: 2}, sender)
	select {
	case <-received:
		t.Fatalf("Chunk delivered after unregister")
	case <-time.After(50 * time.Millisecond):
	}

	// The id is free again after unregister.
	if err := sr.register("s1", func(protocol.DataStream, protocol.ActrId) {}); err != nil {
		t.Errorf("Expected re-registration after unregister to succeed, got %v", err)
	}
}

func TestSystemRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig() // node type missing
	if _, err := NewSystem(cfg); err == nil {
		t.Fatalf("Expected invalid config to fail")
	}

	if _, err := NewSystem(nil); err == nil {
		t.Fatalf("Expected nil config to fail")
	}
}
