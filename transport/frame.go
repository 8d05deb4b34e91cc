package transport

import (
	"fmt"
	"time"

	"github.com/actrlabs/actrgo/protocol"
)

// FrameKind defines the type of frame on a node link.
type FrameKind uint8

const (
	// FrameCall carries an RPC request expecting a response
	FrameCall FrameKind = 1

	// FrameTell carries a one-way message
	FrameTell FrameKind = 2

	// FrameResponse carries the outcome of an earlier call
	FrameResponse FrameKind = 3

	// FrameStream carries one data-stream chunk
	FrameStream FrameKind = 4
)

// String returns the string representation of FrameKind.
func (k FrameKind) String() string {
	switch k {
	case FrameCall:
		return "call"
	case FrameTell:
		return "tell"
	case FrameResponse:
		return "response"
	case FrameStream:
		return "stream"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Frame is one unit on a node link.
type Frame struct {
	Kind FrameKind `json:"kind"`

	// RequestID correlates calls with responses
	RequestID string `json:"request_id,omitempty"`

	Sender protocol.ActrId `json:"sender"`
	Target protocol.ActrId `json:"target"`

	// ReplyTo is the sender's listen address; responses to a call frame
	// go back there
	ReplyTo string `json:"reply_to,omitempty"`

	RouteKey    string               `json:"route_key,omitempty"`
	PayloadType protocol.PayloadType `json:"payload_type,omitempty"`
	Payload     []byte               `json:"payload,omitempty"`

	// Error is set on response frames for failed calls
	Error string `json:"error,omitempty"`

	// Stream is set on stream frames
	Stream *protocol.DataStream `json:"stream,omitempty"`

	// Timestamp when the frame was created
	Timestamp time.Time `json:"timestamp"`
}

// NewCallFrame creates an RPC request frame.
func NewCallFrame(sender, target protocol.ActrId, replyTo string, env protocol.RpcEnvelope, pt protocol.PayloadType) *Frame {
	return &Frame{
		Kind:        FrameCall,
		RequestID:   env.RequestID,
		Sender:      sender,
		Target:      target,
		ReplyTo:     replyTo,
		RouteKey:    env.RouteKey,
		PayloadType: pt,
		Payload:     env.Payload,
		Timestamp:   time.Now(),
	}
}

// NewTellFrame creates a one-way message frame.
func NewTellFrame(sender, target protocol.ActrId, routeKey string, pt protocol.PayloadType, payload []byte) *Frame {
	return &Frame{
		Kind:        FrameTell,
		Sender:      sender,
		Target:      target,
		RouteKey:    routeKey,
		PayloadType: pt,
		Payload:     payload,
		Timestamp:   time.Now(),
	}
}

// NewResponseFrame creates the response to a call frame.
func NewResponseFrame(sender, target protocol.ActrId, requestID string, payload []byte, callErr error) *Frame {
	f := &Frame{
		Kind:      FrameResponse,
		RequestID: requestID,
		Sender:    sender,
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if callErr != nil {
		f.Error = callErr.Error()
		f.Payload = nil
	}
	return f
}

// NewStreamFrame creates a data-stream chunk frame.
func NewStreamFrame(sender, target protocol.ActrId, chunk protocol.DataStream) *Frame {
	return &Frame{
		Kind:      FrameStream,
		Sender:    sender,
		Target:    target,
		Stream:    &chunk,
		Timestamp: time.Now(),
	}
}
