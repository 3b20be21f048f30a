// Package pool provides the bounded worker pool the session runs
// asynchronous play cycles on.
//
// Submit hands a task to one of a fixed number of workers and returns a
// handle the caller can wait on. Shutdown stops accepting work and
// blocks until every queued and in-flight task has returned, which is
// what lets a session drain cooperatively-stopping schedulers before it
// closes its collaborators.
package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// DefaultQueueSize is the task queue capacity used when none is configured.
const DefaultQueueSize = 64

// Sentinel errors.
var (
	// ErrClosed indicates Submit was called after Shutdown.
	ErrClosed = errors.New("pool: closed")

	// ErrQueueFull indicates the task queue is at capacity.
	ErrQueueFull = errors.New("pool: queue full")
)

// Task is the handle for one submitted unit of work.
type Task struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task has run and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done returns a channel closed when the task has run.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's error. Valid only after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

type queued struct {
	fn   func() error
	task *Task
}

// Pool is a fixed-size worker pool with a bounded queue.
type Pool struct {
	queue chan queued
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a pool with the given number of workers and the default
// queue capacity. Worker counts < 1 are raised to 1.
func New(workers int) *Pool {
	return NewWithQueue(workers, DefaultQueueSize)
}

// NewWithQueue creates a pool with explicit worker count and queue
// capacity.
func NewWithQueue(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}

	p := &Pool{
		queue: make(chan queued, queueSize),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues fn for execution and returns its task handle.
// Returns ErrClosed after Shutdown and ErrQueueFull when the queue is
// at capacity; Submit never blocks.
func (p *Pool) Submit(fn func() error) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	t := &Task{done: make(chan struct{})}
	select {
	case p.queue <- queued{fn: fn, task: t}:
		return t, nil
	default:
		return nil, ErrQueueFull
	}
}

// Shutdown stops accepting work and blocks until every queued and
// in-flight task has returned. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker drains the queue until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()
	for q := range p.queue {
		q.task.err = p.run(q.fn)
		close(q.task.done)
	}
}

// run executes one task, converting a panic into an error so a
// misbehaving task cannot kill its worker.
func (p *Pool) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pool: task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}
