package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// inprocEndpoints maps address to live endpoint for every in-process
// transport in this process.
var inprocEndpoints sync.Map // map[string]*inprocTransport

// inprocTransport implements Transport for nodes living in the same
// process. Frames are handed to the target's handler directly, one
// goroutine per frame, so a handler blocking on its own send cannot
// deadlock the sender.
type inprocTransport struct {
	addr    string
	handler FrameHandler

	started int32 // atomic
	wg      sync.WaitGroup
}

// NewInproc creates an in-process transport registered under addr.
func NewInproc(addr string) Transport {
	return &inprocTransport{addr: addr}
}

func (t *inprocTransport) SetHandler(handler FrameHandler) {
	t.handler = handler
}

func (t *inprocTransport) LocalAddr() string {
	return t.addr
}

func (t *inprocTransport) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&t.started, 0, 1) {
		return errors.New("transport already started")
	}
	if _, loaded := inprocEndpoints.LoadOrStore(t.addr, t); loaded {
		atomic.StoreInt32(&t.started, 0)
		return errors.Errorf("in-process address %s already in use", t.addr)
	}
	return nil
}

func (t *inprocTransport) Stop() error {
	if !atomic.CompareAndSwapInt32(&t.started, 1, 0) {
		return nil // already stopped
	}
	inprocEndpoints.Delete(t.addr)
	t.wg.Wait()
	return nil
}

func (t *inprocTransport) Send(addr string, frame *Frame) error {
	if atomic.LoadInt32(&t.started) == 0 {
		return errors.New("transport not started")
	}

	val, ok := inprocEndpoints.Load(addr)
	if !ok {
		return errors.Errorf("no in-process endpoint at %s", addr)
	}
	target := val.(*inprocTransport)

	if atomic.LoadInt32(&target.started) == 0 || target.handler == nil {
		return errors.Errorf("in-process endpoint %s not accepting frames", addr)
	}

	target.wg.Add(1)
	go func() {
		defer target.wg.Done()
		target.handler(frame)
	}()

	return nil
}
