package pulseflow

import (
	"sync"

	"github.com/google/uuid"
)

// Flow is a named collection of nodes bound 1:1 to a scheduler.
//
// Flows are mutable during execution: UI or transport code may add and
// remove nodes while a play cycle is running. The scheduler never
// iterates the live slice; it takes a Nodes() snapshot each frame.
type Flow struct {
	id   string
	name string

	mu    sync.RWMutex
	nodes []Node

	scheduler Scheduler
}

// NewFlow creates an empty flow with the given name.
// The flow has no scheduler until one is bound; Session.CreateFlow does
// both, and Bind exists for standalone use.
func NewFlow(name string) *Flow {
	return &Flow{id: uuid.NewString(), name: name}
}

// ID returns the flow's unique identifier.
func (f *Flow) ID() string { return f.id }

// Name returns the flow's name.
func (f *Flow) Name() string { return f.name }

// AddNode appends a node to the flow. Nil nodes are ignored.
// Returns the flow for method chaining.
func (f *Flow) AddNode(n Node) *Flow {
	if n == nil {
		return f
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = append(f.nodes, n)
	return f
}

// RemoveNode removes the node with the given ID.
// Returns true if a node was removed.
func (f *Flow) RemoveNode(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.nodes {
		if n.ID() == id {
			f.nodes = append(f.nodes[:i], f.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Nodes returns a snapshot of the flow's current nodes in insertion
// order. The returned slice is a copy; mutating it does not affect the
// flow.
func (f *Flow) Nodes() []Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snapshot := make([]Node, len(f.nodes))
	copy(snapshot, f.nodes)
	return snapshot
}

// Len returns the current node count.
func (f *Flow) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.nodes)
}

// Bind attaches a scheduler to the flow. A flow keeps one scheduler for
// its whole lifetime; rebinding replaces it and discards the previous
// scheduler's event subscriptions.
func (f *Flow) Bind(s Scheduler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduler = s
}

// Scheduler returns the scheduler bound to this flow, or nil.
func (f *Flow) Scheduler() Scheduler {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.scheduler
}
