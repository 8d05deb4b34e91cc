package protocol

import (
	"errors"
	"fmt"
)

// Class partitions failures by layer of origin. Every fallible operation in
// the runtime returns an explicit error of one of these classes; there is no
// silent-default path and no automatic retry.
type Class uint8

const (
	// ClassConfig for construction-time parse/schema failures
	ClassConfig Class = iota

	// ClassProtocol for invalid state transitions, marshalling failures
	// and transport-level RPC failures
	ClassProtocol

	// ClassBoundary for failures at the host interop edge: missing entry
	// points, or a cross-boundary call that could not be delivered
	ClassBoundary
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassProtocol:
		return "protocol"
	case ClassBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Error is a classified runtime failure. The wrapped cause, when present,
// keeps its original message reachable through Error() and Unwrap().
type Error struct {
	Class Class
	msg   string
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Class, e.msg, e.cause)
	}
	return fmt.Sprintf("%s error: %s", e.Class, e.msg)
}

// Unwrap exposes the original cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewConfigError creates a config-class error.
func NewConfigError(format string, args ...interface{}) *Error {
	return &Error{Class: ClassConfig, msg: fmt.Sprintf(format, args...)}
}

// NewProtocolError creates a protocol-class error.
func NewProtocolError(format string, args ...interface{}) *Error {
	return &Error{Class: ClassProtocol, msg: fmt.Sprintf(format, args...)}
}

// NewBoundaryError creates a boundary-class error.
func NewBoundaryError(format string, args ...interface{}) *Error {
	return &Error{Class: ClassBoundary, msg: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying failure without discarding its message.
func WrapError(class Class, cause error, format string, args ...interface{}) *Error {
	return &Error{Class: class, msg: fmt.Sprintf(format, args...), cause: cause}
}

// ClassOf reports the class of err and whether err carries one.
func ClassOf(err error) (Class, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class, true
	}
	return 0, false
}

// Failure conditions shared across the runtime. Callers match them with
// errors.Is after unwrapping through any classified wrapper.
var (
	ErrCallTimeout      = errors.New("rpc call timed out")
	ErrNoCandidate      = errors.New("no route candidate available")
	ErrPeerUnreachable  = errors.New("peer unreachable")
	ErrSystemConsumed   = errors.New("system already consumed")
	ErrNodeStarted      = errors.New("node already started")
	ErrShuttingDown     = errors.New("node is shutting down")
	ErrStreamRegistered = errors.New("stream handler already registered")
)
