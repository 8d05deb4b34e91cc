// Package protocol defines the value types shared by every layer of the
// actor runtime: identifiers, payload classifications, stream chunks and
// RPC envelopes. All of them are immutable values created on marshalling
// and discarded after use.
package protocol

import (
	"fmt"
)

// Realm is a numeric namespace partitioning the actor-identifier space.
type Realm struct {
	RealmID uint32
}

// String returns the string representation of Realm.
func (r Realm) String() string {
	return fmt.Sprintf("realm(%d)", r.RealmID)
}

// ActrType describes a class of actor for discovery purposes. It is a
// capability descriptor, not unique per instance.
type ActrType struct {
	Manufacturer string
	Name         string
}

// String returns the string representation of ActrType.
func (t ActrType) String() string {
	return fmt.Sprintf("%s/%s", t.Manufacturer, t.Name)
}

// ActrId uniquely identifies one actor instance. Two ids are equal iff
// realm, serial number and type are all equal.
type ActrId struct {
	Realm        Realm
	SerialNumber uint64
	Type         ActrType
}

// String returns the string representation of ActrId.
func (id ActrId) String() string {
	return fmt.Sprintf("%s/%d@%d", id.Type, id.SerialNumber, id.Realm.RealmID)
}

// PayloadType classifies the delivery-guarantee intent of a payload. It is
// carried with every call/tell/stream operation and interpreted by the
// transport, not by the runtime core.
type PayloadType uint8

const (
	// PayloadRpcReliable for request/response traffic that must arrive
	PayloadRpcReliable PayloadType = iota

	// PayloadRpcSignal for best-effort signal-only RPC
	PayloadRpcSignal

	// PayloadStreamReliable for stream chunks that must arrive in full
	PayloadStreamReliable

	// PayloadStreamLatencyFirst for stream chunks where latency beats loss
	PayloadStreamLatencyFirst

	// PayloadMediaRtp for RTP-framed media traffic
	PayloadMediaRtp
)

// String returns the string representation of PayloadType.
func (p PayloadType) String() string {
	switch p {
	case PayloadRpcReliable:
		return "rpc_reliable"
	case PayloadRpcSignal:
		return "rpc_signal"
	case PayloadStreamReliable:
		return "stream_reliable"
	case PayloadStreamLatencyFirst:
		return "stream_latency_first"
	case PayloadMediaRtp:
		return "media_rtp"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// IsValid checks if the payload type is a member of the closed enumeration.
func (p PayloadType) IsValid() bool {
	return p <= PayloadMediaRtp
}

// MetadataEntry is one ordered key/value pair attached to a stream chunk.
// Order is preserved across the wire and duplicate keys are allowed.
type MetadataEntry struct {
	Key   string
	Value string
}

// DataStream is one chunk of a data stream. Sequence increases
// monotonically per StreamID by sender convention; the runtime carries it
// verbatim and does not enforce ordering.
type DataStream struct {
	StreamID    string
	Sequence    uint64
	Payload     []byte
	Metadata    []MetadataEntry
	TimestampMs *int64
}

// RpcEnvelope is one RPC invocation unit. A nil Payload denotes a
// signal-only call. RequestID correlates request and response at the
// transport layer and is opaque to workload code.
type RpcEnvelope struct {
	RouteKey  string
	Payload   []byte
	RequestID string
}
