package pulseflow

import "github.com/google/uuid"

// Node is a computational unit in a flow.
//
// Plain nodes only participate in the lifecycle hooks. Nodes that also
// implement StartNode run once at the start of each play cycle; nodes
// that implement FrameNode run once per frame until they report
// themselves finished.
type Node interface {
	// ID returns the node's unique identifier.
	ID() string

	// Name returns the node's display name.
	Name() string

	// Reset clears per-cycle node state. Called on every gathered node
	// when a play cycle begins.
	Reset()

	// OnStart is called on every gathered node when the scheduler
	// transitions into Playing, after Reset and before any start or
	// frame updates run.
	OnStart()

	// OnStop is called on every gathered node when the scheduler
	// transitions back to Stopped.
	OnStop()

	// OnApplicationEnd is called once when the owning session shuts down.
	OnApplicationEnd()
}

// StartNode is a node whose update runs exactly once, when a flow
// transitions into Playing.
type StartNode interface {
	Node

	// StartUpdate performs the once-only start work. An error aborts
	// the play cycle before the frame loop begins.
	StartUpdate() error
}

// FrameNode is a node whose update runs once per frame until it
// reports itself finished.
type FrameNode interface {
	Node

	// FrameUpdate performs one frame of work. The returned bool reports
	// whether the node produced new output this frame. An error aborts
	// the play cycle; the scheduler still runs its stop sequence before
	// surfacing it.
	FrameUpdate() (produced bool, err error)

	// Finished reports whether the node has no more work to do.
	// Finished nodes are skipped by subsequent frames.
	Finished() bool
}

// BaseNode provides identity and no-op lifecycle hooks for embedding.
//
// Example:
//
//	type Gain struct {
//	    pulseflow.BaseNode
//	    factor float64
//	}
type BaseNode struct {
	id   string
	name string
}

// NewBaseNode creates a BaseNode with a generated ID.
func NewBaseNode(name string) BaseNode {
	return BaseNode{id: uuid.NewString(), name: name}
}

// ID returns the node's unique identifier.
func (n *BaseNode) ID() string { return n.id }

// Name returns the node's display name.
func (n *BaseNode) Name() string { return n.name }

// Reset is a no-op; embedders override as needed.
func (n *BaseNode) Reset() {}

// OnStart is a no-op; embedders override as needed.
func (n *BaseNode) OnStart() {}

// OnStop is a no-op; embedders override as needed.
func (n *BaseNode) OnStop() {}

// OnApplicationEnd is a no-op; embedders override as needed.
func (n *BaseNode) OnApplicationEnd() {}

// FuncStartNode adapts a function to the StartNode interface.
type FuncStartNode struct {
	BaseNode
	fn func() error
}

// NewStartNode creates a start node that runs fn once per play cycle.
func NewStartNode(name string, fn func() error) *FuncStartNode {
	return &FuncStartNode{BaseNode: NewBaseNode(name), fn: fn}
}

// StartUpdate implements StartNode.
func (n *FuncStartNode) StartUpdate() error {
	if n.fn == nil {
		return nil
	}
	return n.fn()
}

// FuncFrameNode adapts a function to the FrameNode interface.
// The function returns whether output was produced, whether the node is
// now finished, and any error.
type FuncFrameNode struct {
	BaseNode
	fn       func() (produced, finished bool, err error)
	finished bool
}

// NewFrameNode creates a frame node that runs fn once per frame until
// fn reports it is finished.
func NewFrameNode(name string, fn func() (produced, finished bool, err error)) *FuncFrameNode {
	return &FuncFrameNode{BaseNode: NewBaseNode(name), fn: fn}
}

// Reset clears the finished flag so the node runs again next cycle.
func (n *FuncFrameNode) Reset() {
	n.finished = false
}

// FrameUpdate implements FrameNode.
func (n *FuncFrameNode) FrameUpdate() (bool, error) {
	if n.fn == nil {
		n.finished = true
		return false, nil
	}
	produced, finished, err := n.fn()
	if finished {
		n.finished = true
	}
	return produced, err
}

// Finished implements FrameNode.
func (n *FuncFrameNode) Finished() bool {
	return n.finished
}
