package runtime

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// callResult is the settled outcome of one pending call.
type callResult struct {
	payload []byte
	err     error
}

// callTable correlates outbound RPC requests with their responses. A
// timed-out request is retired before the caller returns, so a response
// arriving late finds no slot and is dropped instead of being misdelivered
// to a later call.
type callTable struct {
	mu      sync.Mutex
	pending map[string]chan callResult
	counter uint64 // atomic
	prefix  string
}

func newCallTable(prefix string) *callTable {
	return &callTable{
		pending: make(map[string]chan callResult),
		prefix:  prefix,
	}
}

// nextRequestID allocates a correlation key unique within this node's
// lifetime.
func (ct *callTable) nextRequestID() string {
	return fmt.Sprintf("%s-%d", ct.prefix, atomic.AddUint64(&ct.counter, 1))
}

// register creates the response slot for requestID.
func (ct *callTable) register(requestID string) chan callResult {
	ch := make(chan callResult, 1)
	ct.mu.Lock()
	ct.pending[requestID] = ch
	ct.mu.Unlock()
	return ch
}

// retire removes the slot for requestID, typically on timeout.
func (ct *callTable) retire(requestID string) {
	ct.mu.Lock()
	delete(ct.pending, requestID)
	ct.mu.Unlock()
}

// resolve settles the slot for requestID. Responses for retired requests
// are dropped.
func (ct *callTable) resolve(requestID string, res callResult) {
	ct.mu.Lock()
	ch, ok := ct.pending[requestID]
	if ok {
		delete(ct.pending, requestID)
	}
	ct.mu.Unlock()

	if !ok {
		logrus.Debugf("dropping response for retired call %s", requestID)
		return
	}
	ch <- res
}
