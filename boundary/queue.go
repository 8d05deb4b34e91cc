package boundary

import (
	"sync"

	"github.com/actrlabs/actrgo/protocol"
)

// DefaultQueueSize is the default job buffer of a host queue.
const DefaultQueueSize = 256

// Queue is the host's single execution queue. Jobs submitted from any
// native goroutine execute one after another on the queue goroutine,
// which is the only place host callables ever run.
type Queue struct {
	jobs chan func()

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewQueue creates a queue with the given job buffer and starts its
// execution goroutine.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		jobs:   make(chan func(), size),
		closed: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			job()
		case <-q.closed:
			// Run jobs that were accepted before the close.
			for {
				select {
				case job := <-q.jobs:
					job()
				default:
					return
				}
			}
		}
	}
}

// submit hands one job to the queue. It blocks until the queue accepts the
// job, which is the "delivered and accepted" point blocking-mode callers
// suspend on.
func (q *Queue) submit(job func()) error {
	select {
	case <-q.closed:
		return protocol.NewBoundaryError("host queue closed")
	default:
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.closed:
		return protocol.NewBoundaryError("host queue closed")
	}
}

// Close stops accepting jobs, runs the already-accepted ones and waits for
// the execution goroutine to exit.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
	q.wg.Wait()
}
