// Package boundary models the interop edge between the native runtime and
// the host executing workload callbacks: a single host execution queue,
// durable callable handles into it, and promise futures for results that
// settle on the host's own schedule.
package boundary

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Promise is a single-assignment future. The host settles it exactly once;
// later settlements are ignored.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value interface{}
	err   error
}

// NewPromise creates an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved creates a promise already settled with value.
func Resolved(value interface{}) *Promise {
	p := NewPromise()
	p.Resolve(value)
	return p
}

// Rejected creates a promise already settled with err.
func Rejected(err error) *Promise {
	p := NewPromise()
	p.Reject(err)
	return p
}

// Resolve settles the promise with value.
func (p *Promise) Resolve(value interface{}) {
	p.once.Do(func() {
		p.value = value
		close(p.done)
	})
}

// Reject settles the promise with err.
func (p *Promise) Reject(err error) {
	p.once.Do(func() {
		if err == nil {
			err = errors.New("promise rejected without reason")
		}
		p.err = err
		close(p.done)
	})
}

// Await suspends until the promise settles or ctx is cancelled.
func (p *Promise) Await(ctx context.Context) (interface{}, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
