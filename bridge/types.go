// Package bridge adapts a dynamically-typed host workload into a
// runtime-conformant actor behavior and exposes the System → Node → Ref
// handle chain around it. Everything crossing the boundary uses the mirror
// types of this package, whose 64-bit unsigned quantities travel in signed
// 64-bit form.
package bridge

import (
	"github.com/actrlabs/actrgo/protocol"
)

// Realm mirrors protocol.Realm at the boundary.
type Realm struct {
	RealmID uint32
}

// ActrType mirrors protocol.ActrType at the boundary.
type ActrType struct {
	Manufacturer string
	Name         string
}

// ActrID mirrors protocol.ActrId at the boundary. SerialNumber is signed
// here; native serials above 2^63−1 are not representable and round-trip
// losslessly only below that limit.
type ActrID struct {
	Realm        Realm
	SerialNumber int64
	Type         ActrType
}

// ActrIDFromNative converts a native id into its boundary mirror.
func ActrIDFromNative(id protocol.ActrId) ActrID {
	return ActrID{
		Realm:        Realm{RealmID: id.Realm.RealmID},
		SerialNumber: int64(id.SerialNumber),
		Type: ActrType{
			Manufacturer: id.Type.Manufacturer,
			Name:         id.Type.Name,
		},
	}
}

// Native converts the mirror back into a native id.
func (id ActrID) Native() protocol.ActrId {
	return protocol.ActrId{
		Realm:        protocol.Realm{RealmID: id.Realm.RealmID},
		SerialNumber: uint64(id.SerialNumber),
		Type: protocol.ActrType{
			Manufacturer: id.Type.Manufacturer,
			Name:         id.Type.Name,
		},
	}
}

// ActrTypeFromNative converts a native type descriptor into its mirror.
func ActrTypeFromNative(t protocol.ActrType) ActrType {
	return ActrType{Manufacturer: t.Manufacturer, Name: t.Name}
}

// Native converts the mirror back into a native type descriptor.
func (t ActrType) Native() protocol.ActrType {
	return protocol.ActrType{Manufacturer: t.Manufacturer, Name: t.Name}
}

// DataStream mirrors protocol.DataStream at the boundary; Sequence is
// signed under the same representability limit as serial numbers.
type DataStream struct {
	StreamID    string
	Sequence    int64
	Payload     []byte
	Metadata    []protocol.MetadataEntry
	TimestampMs *int64
}

// DataStreamFromNative converts a native chunk into its boundary mirror.
func DataStreamFromNative(chunk protocol.DataStream) DataStream {
	return DataStream{
		StreamID:    chunk.StreamID,
		Sequence:    int64(chunk.Sequence),
		Payload:     chunk.Payload,
		Metadata:    chunk.Metadata,
		TimestampMs: chunk.TimestampMs,
	}
}

// Native converts the mirror back into a native chunk.
func (d DataStream) Native() protocol.DataStream {
	return protocol.DataStream{
		StreamID:    d.StreamID,
		Sequence:    uint64(d.Sequence),
		Payload:     d.Payload,
		Metadata:    d.Metadata,
		TimestampMs: d.TimestampMs,
	}
}

// RpcEnvelope mirrors protocol.RpcEnvelope at the boundary. Payload is
// never nil: a signal-only call carries an empty slice.
type RpcEnvelope struct {
	RouteKey  string
	Payload   []byte
	RequestID string
}

// envelopeFromNative converts a native envelope into its boundary mirror.
func envelopeFromNative(env protocol.RpcEnvelope) RpcEnvelope {
	payload := env.Payload
	if payload == nil {
		payload = []byte{}
	}
	return RpcEnvelope{
		RouteKey:  env.RouteKey,
		Payload:   payload,
		RequestID: env.RequestID,
	}
}
