package runtime

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/actrlabs/actrgo/protocol"
)

// streamRegistry holds at most one handler per stream id. Registration and
// removal are serialized against each other; delivery snapshots the handler
// under the read lock, so a chunk arriving strictly after unregister
// returns can no longer observe the removed handler.
type streamRegistry struct {
	mu       sync.RWMutex
	handlers map[string]StreamHandler
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{handlers: make(map[string]StreamHandler)}
}

// register installs handler for streamID. A second registration for a live
// id is rejected rather than silently duplicating delivery.
func (sr *streamRegistry) register(streamID string, handler StreamHandler) error {
	if handler == nil {
		return protocol.NewProtocolError("nil handler for stream %q", streamID)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()
	if _, exists := sr.handlers[streamID]; exists {
		return protocol.WrapError(protocol.ClassProtocol, protocol.ErrStreamRegistered, "stream %q", streamID)
	}
	sr.handlers[streamID] = handler
	return nil
}

// unregister removes the handler for streamID. Removing an unknown id is a
// no-op.
func (sr *streamRegistry) unregister(streamID string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	delete(sr.handlers, streamID)
}

// dispatch delivers one chunk to the registered handler, if any. No
// ordering is imposed across chunks; the Sequence field travels verbatim
// for senders that need to reorder.
func (sr *streamRegistry) dispatch(chunk protocol.DataStream, sender protocol.ActrId) {
	sr.mu.RLock()
	handler := sr.handlers[chunk.StreamID]
	sr.mu.RUnlock()

	if handler == nil {
		logrus.Debugf("dropping chunk for unregistered stream %q from %s", chunk.StreamID, sender)
		return
	}
	handler(chunk, sender)
}
