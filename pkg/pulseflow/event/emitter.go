// Package event provides the synchronous pub/sub primitive the scheduler's
// lifecycle events are built on.
//
// Unlike channel-based buses, an Emitter dispatches inline on the caller's
// goroutine: Emit returns only after every handler has run. Handlers fire
// in priority order (higher first, insertion order within equal priority)
// and may be registered as one-off: the emission that snapshots a one-off
// entry also detaches it, so the handler fires at most once even when
// emissions race on different goroutines.
//
// Handler panics are not recovered here. A panicking handler aborts the
// remaining dispatch for that emission and propagates to the caller of
// Emit; this is a documented propagation point, not a place for implicit
// recovery.
package event

import (
	"sort"
	"sync"
)

// Handler processes one emitted value.
type Handler[T any] func(v T)

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	priority int
	once     bool
}

// WithPriority sets the relative firing priority. Higher priorities fire
// first; the default is 0.
func WithPriority(p int) SubscribeOption {
	return func(cfg *subscribeConfig) {
		cfg.priority = p
	}
}

// Once marks the subscription one-off: the first emission that reaches
// it detaches it, so it fires at most once.
func Once() SubscribeOption {
	return func(cfg *subscribeConfig) {
		cfg.once = true
	}
}

// Subscription is a handle for detaching a registered handler.
type Subscription struct {
	unsubscribe func()
	once        sync.Once
}

// Unsubscribe detaches the handler. Safe to call more than once, and
// safe to call on an already-fired one-off subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.unsubscribe)
}

// entry is one registered handler with its ordering metadata.
type entry[T any] struct {
	id       int64
	priority int
	once     bool
	fn       Handler[T]
}

// Emitter is a synchronous, priority-ordered event hub for values of
// type T. Subscribe and Unsubscribe are safe for concurrent use; Emit
// snapshots the handler list so handlers may subscribe or unsubscribe
// during dispatch without affecting the in-flight emission.
type Emitter[T any] struct {
	mu      sync.Mutex
	nextID  int64
	entries []entry[T]
}

// NewEmitter creates an empty emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe registers a handler and returns its subscription handle.
// Nil handlers are ignored and return a no-op subscription.
func (e *Emitter[T]) Subscribe(fn Handler[T], opts ...SubscribeOption) *Subscription {
	if fn == nil {
		return &Subscription{unsubscribe: func() {}}
	}

	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.entries = append(e.entries, entry[T]{
		id:       id,
		priority: cfg.priority,
		once:     cfg.once,
		fn:       fn,
	})
	// Stable sort keeps insertion order within equal priorities.
	sort.SliceStable(e.entries, func(i, j int) bool {
		return e.entries[i].priority > e.entries[j].priority
	})

	return &Subscription{unsubscribe: func() { e.remove(id) }}
}

// Emit invokes every registered handler with v, in priority order.
// One-off handlers are detached while the snapshot is taken, still
// under the lock, so two emissions racing on the same emitter cannot
// both claim a one-off entry and double-fire it.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	snapshot := make([]entry[T], len(e.entries))
	copy(snapshot, e.entries)
	for i := len(e.entries) - 1; i >= 0; i-- {
		if e.entries[i].once {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
		}
	}
	e.mu.Unlock()

	for _, ent := range snapshot {
		ent.fn(v)
	}
}

// Len returns the number of active subscriptions.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Clear detaches every subscription.
func (e *Emitter[T]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}

func (e *Emitter[T]) remove(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, ent := range e.entries {
		if ent.id == id {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}
