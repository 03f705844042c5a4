// Package queue runs deliveries for one port on a single goroutine so that
// inbound messages keep their arrival order and never run on a driver thread.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Enqueue once the queue has been canceled.
var ErrClosed = errors.New("queue closed")

// Task is one unit of work. It receives a context that is canceled on
// shutdown.
type Task func(ctx context.Context)

// Entry states. A buffered entry is claimed exactly once, either by the
// worker to run it or by whoever gives up on it.
const (
	pending int32 = iota
	claimed
	withdrawn
)

type entry struct {
	task  Task
	state atomic.Int32
}

// Queue serializes tasks onto one worker goroutine.
type Queue struct {
	ch      chan *entry
	onDrop  func()
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// New creates a queue with a fixed buffer.
func New(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{ch: make(chan *entry, buffer), ctx: ctx, cancel: cancel}
}

// OnDrop sets fn to be called for every accepted task that is discarded
// because the queue was canceled first. Call it before Start.
func (q *Queue) OnDrop(fn func()) {
	q.mu.Lock()
	q.onDrop = fn
	q.mu.Unlock()
}

// Start begins the worker goroutine. Safe to call multiple times.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.wg.Add(1)
	go q.run()
}

func (q *Queue) run() {
	defer q.wg.Done()
	defer q.discard()
	for {
		// Cancellation wins over pending work: tasks still buffered at
		// shutdown are discarded.
		select {
		case <-q.ctx.Done():
			return
		default:
		}
		select {
		case <-q.ctx.Done():
			return
		case e := <-q.ch:
			if e.task != nil && e.state.CompareAndSwap(pending, claimed) {
				e.task(q.ctx)
			}
		}
	}
}

// discard empties the buffer after cancellation and reports each task that
// no Enqueue caller has already withdrawn.
func (q *Queue) discard() {
	q.mu.Lock()
	onDrop := q.onDrop
	q.mu.Unlock()
	for {
		select {
		case e := <-q.ch:
			if e.state.CompareAndSwap(pending, withdrawn) && onDrop != nil {
				onDrop()
			}
		default:
			return
		}
	}
}

// Enqueue adds a task, blocking while the buffer is full. A nil error means
// the task will run or, if the queue is canceled first, be reported to the
// OnDrop func.
func (q *Queue) Enqueue(task Task) error {
	if q == nil || q.ch == nil {
		return errors.New("queue not initialized")
	}
	if q.ctx.Err() != nil {
		return ErrClosed
	}
	e := &entry{task: task}
	select {
	case q.ch <- e:
	case <-q.ctx.Done():
		return ErrClosed
	}
	// The send can win the select after Cancel; the entry may then never be
	// drained, so take it back.
	if q.ctx.Err() != nil && e.state.CompareAndSwap(pending, withdrawn) {
		return ErrClosed
	}
	return nil
}

// Cancel stops the worker without waiting for it. It may be called from a
// task running on the worker itself.
func (q *Queue) Cancel() {
	if q == nil {
		return
	}
	q.cancel()
}

// Close cancels the worker and waits for the running task to return. It
// must not be called from a task.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.cancel()
	q.wg.Wait()
}

// Done is closed once the queue is canceled.
func (q *Queue) Done() <-chan struct{} { return q.ctx.Done() }
