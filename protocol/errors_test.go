package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorClassOf(t *testing.T) {
	err := NewBoundaryError("entry point missing")

	class, ok := ClassOf(err)
	if !ok {
		t.Fatalf("Expected a classified error")
	}
	if class != ClassBoundary {
		t.Errorf("Expected class %s, got %s", ClassBoundary, class)
	}

	if _, ok := ClassOf(errors.New("plain")); ok {
		t.Errorf("Expected plain errors to carry no class")
	}
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := WrapError(ClassConfig, cause, "load config.yaml")

	if !strings.Contains(err.Error(), cause.Error()) {
		t.Errorf("Expected wrapped message to contain %q, got %q", cause.Error(), err.Error())
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected errors.Is to reach the cause through the wrapper")
	}

	class, ok := ClassOf(err)
	if !ok || class != ClassConfig {
		t.Errorf("Expected config class, got %v (ok=%v)", class, ok)
	}
}

func TestWrapErrorSentinels(t *testing.T) {
	err := WrapError(ClassProtocol, ErrCallTimeout, "call echo to acme/echo/1@1 after 100ms")

	if !errors.Is(err, ErrCallTimeout) {
		t.Errorf("Expected errors.Is(err, ErrCallTimeout)")
	}
	if !strings.Contains(err.Error(), "100ms") {
		t.Errorf("Expected context in message, got %q", err.Error())
	}
}
