package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/actrlabs/actrgo/boundary"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/runtime"
)

func completeHost() map[string]interface{} {
	return map[string]interface{}{
		"onStart": func(ctx *Context) {},
		"onStop":  func(ctx *Context) {},
		"dispatch": func(ctx *Context, env RpcEnvelope) *boundary.Promise {
			return boundary.Resolved(env.Payload)
		},
	}
}

func TestNewDynamicWorkloadComplete(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	// A complete object constructs fine even if never invoked.
	if _, err := NewDynamicWorkload(completeHost(), q); err != nil {
		t.Fatalf("Expected construction to succeed: %v", err)
	}
}

func TestNewDynamicWorkloadMissingEntryPoints(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	for _, missing := range []string{"onStart", "onStop", "dispatch"} {
		host := completeHost()
		delete(host, missing)

		_, err := NewDynamicWorkload(host, q)
		if err == nil {
			t.Fatalf("Expected construction without %q to fail", missing)
		}
		if class, ok := protocol.ClassOf(err); !ok || class != protocol.ClassBoundary {
			t.Errorf("Expected boundary-class error for missing %q, got %v", missing, err)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("Expected error to name %q, got %q", missing, err.Error())
		}
	}
}

func TestNewDynamicWorkloadMiscastEntryPoint(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	host := completeHost()
	host["dispatch"] = "not a function"

	_, err := NewDynamicWorkload(host, q)
	if err == nil {
		t.Fatalf("Expected miscast entry point to fail construction")
	}
	if class, ok := protocol.ClassOf(err); !ok || class != protocol.ClassBoundary {
		t.Errorf("Expected boundary-class error, got %v", err)
	}
}

func TestNewDynamicWorkloadNilHost(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	if _, err := NewDynamicWorkload(nil, q); err == nil {
		t.Fatalf("Expected nil host to fail construction")
	}
}

// methodHost exposes the entry points as methods instead of map keys.
type methodHost struct {
	dispatched chan RpcEnvelope
}

func (h *methodHost) OnStart(ctx *Context) {}
func (h *methodHost) OnStop(ctx *Context)  {}
func (h *methodHost) Dispatch(ctx *Context, env RpcEnvelope) *boundary.Promise {
	h.dispatched <- env
	return boundary.Resolved([]byte("from-method"))
}

func TestNewDynamicWorkloadFromMethods(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	host := &methodHost{dispatched: make(chan RpcEnvelope, 1)}
	if _, err := NewDynamicWorkload(host, q); err != nil {
		t.Fatalf("Expected method-based host to construct: %v", err)
	}
}

// namedDispatch checks that hosts using their own named func types still
// qualify when the signature matches.
type namedDispatch func(ctx *Context, env RpcEnvelope) *boundary.Promise

func TestNewDynamicWorkloadNamedFuncTypes(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	host := completeHost()
	host["dispatch"] = namedDispatch(func(ctx *Context, env RpcEnvelope) *boundary.Promise {
		return boundary.Resolved(nil)
	})

	if _, err := NewDynamicWorkload(host, q); err != nil {
		t.Fatalf("Expected named func type to qualify: %v", err)
	}
}

// fakeContext is a non-canonical runtime.Context implementation.
type fakeContext struct{}

func (fakeContext) CallRaw(context.Context, protocol.ActrId, string, protocol.PayloadType, []byte, int64) ([]byte, error) {
	return nil, nil
}
func (fakeContext) TellRaw(protocol.ActrId, string, protocol.PayloadType, []byte) error { return nil }
func (fakeContext) DiscoverRouteCandidate(protocol.ActrType) (protocol.ActrId, error) {
	return protocol.ActrId{}, nil
}
func (fakeContext) SendDataStream(protocol.ActrId, protocol.DataStream) error   { return nil }
func (fakeContext) RegisterStream(string, runtime.StreamHandler) error          { return nil }
func (fakeContext) UnregisterStream(string) error                               { return nil }
func (fakeContext) CallID() (protocol.ActrId, bool)                             { return protocol.ActrId{}, false }

func TestFromContextRejectsNonCanonical(t *testing.T) {
	_, err := FromContext(fakeContext{})
	if err == nil {
		t.Fatalf("Expected non-canonical context to be rejected")
	}
	if class, ok := protocol.ClassOf(err); !ok || class != protocol.ClassProtocol {
		t.Errorf("Expected protocol-class error, got %v", err)
	}
	if !strings.Contains(err.Error(), "context type mismatch") {
		t.Errorf("Expected type-mismatch message, got %q", err.Error())
	}
}

func TestLifecycleShortCircuitsOnBadContext(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	w, err := NewDynamicWorkload(completeHost(), q)
	if err != nil {
		t.Fatalf("Failed to construct workload: %v", err)
	}

	if err := w.OnStart(fakeContext{}); err == nil {
		t.Errorf("Expected OnStart with a non-canonical context to fail")
	}
	if err := w.OnStop(fakeContext{}); err == nil {
		t.Errorf("Expected OnStop with a non-canonical context to fail")
	}
	if _, err := w.Dispatch(fakeContext{}, protocol.RpcEnvelope{RouteKey: "echo"}); err == nil {
		t.Errorf("Expected Dispatch with a non-canonical context to fail")
	}
}

func TestReleasedWorkloadRejectsInvocations(t *testing.T) {
	q := boundary.NewQueue(4)
	defer q.Close()

	w, err := NewDynamicWorkload(completeHost(), q)
	if err != nil {
		t.Fatalf("Failed to construct workload: %v", err)
	}
	w.Release()

	err = w.OnStart(fakeContext{})
	if err == nil {
		t.Fatalf("Expected released workload to fail")
	}
	// The context check still runs first; a released handle fails too.
	if !errors.As(err, new(*protocol.Error)) {
		t.Errorf("Expected a classified error, got %v", err)
	}
}
