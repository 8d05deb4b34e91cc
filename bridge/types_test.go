package bridge

import (
	"math"
	"testing"

	"github.com/actrlabs/actrgo/protocol"
)

func TestActrIDRoundTrip(t *testing.T) {
	serials := []uint64{0, 1, 42, 1 << 32, math.MaxInt64}

	for _, serial := range serials {
		native := protocol.ActrId{
			Realm:        protocol.Realm{RealmID: 7},
			SerialNumber: serial,
			Type:         protocol.ActrType{Manufacturer: "acme", Name: "echo"},
		}

		back := ActrIDFromNative(native).Native()
		if back != native {
			t.Errorf("Round trip lost data for serial %d: got %+v", serial, back)
		}
	}
}

func TestDataStreamRoundTrip(t *testing.T) {
	ts := int64(1712000000000)
	native := protocol.DataStream{
		StreamID: "s1",
		Sequence: math.MaxInt64,
		Payload:  []byte{1, 2, 3},
		Metadata: []protocol.MetadataEntry{
			{Key: "codec", Value: "opus"},
			{Key: "codec", Value: "fallback"},
		},
		TimestampMs: &ts,
	}

	mirror := DataStreamFromNative(native)
	if mirror.Sequence != math.MaxInt64 {
		t.Errorf("Expected sequence preserved, got %d", mirror.Sequence)
	}
	if len(mirror.Metadata) != 2 || mirror.Metadata[0].Value != "opus" || mirror.Metadata[1].Value != "fallback" {
		t.Errorf("Expected metadata order and duplicates preserved, got %+v", mirror.Metadata)
	}

	back := mirror.Native()
	if back.Sequence != native.Sequence || back.StreamID != native.StreamID {
		t.Errorf("Round trip mismatch: %+v", back)
	}
	if back.TimestampMs == nil || *back.TimestampMs != ts {
		t.Errorf("Expected timestamp preserved")
	}
}

func TestEnvelopeMirrorNeverNil(t *testing.T) {
	mirror := envelopeFromNative(protocol.RpcEnvelope{RouteKey: "signal", RequestID: "r-1"})

	if mirror.Payload == nil {
		t.Fatalf("Expected signal-only envelopes to carry an empty payload, not nil")
	}
	if len(mirror.Payload) != 0 {
		t.Errorf("Expected empty payload, got %v", mirror.Payload)
	}
}
