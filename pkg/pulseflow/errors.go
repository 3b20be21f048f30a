package pulseflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and scheduler operations.
var (
	// ErrSessionClosed indicates an operation was attempted on a session
	// after Shutdown.
	ErrSessionClosed = errors.New("session is shut down")

	// ErrCancelled indicates the play cycle's context was cancelled.
	// The scheduler still ran its stop sequence before returning this.
	ErrCancelled = errors.New("play cycle cancelled")
)

// NodeError wraps an error raised by a node during a play cycle.
// It records which node failed and during which phase ("start" or
// "frame"). The scheduler always completes its stop sequence before
// surfacing a NodeError.
type NodeError struct {
	// NodeID identifies the failing node.
	NodeID string
	// NodeName is the node's display name.
	NodeName string
	// Op is the phase that failed: "start" or "frame".
	Op string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %s update: %v", e.NodeName, e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised out of a node update or an event
// handler during a play cycle, including the stack trace.
type PanicError struct {
	// FlowName is the flow whose cycle panicked.
	FlowName string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("flow %s: play cycle panicked: %v", e.FlowName, e.Value)
}

// CancellationError records where a play cycle was cancelled.
type CancellationError struct {
	// FlowName is the flow whose cycle was cancelled.
	FlowName string
	// Cause is the context error (context.Canceled or DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("flow %s: %v: %v", e.FlowName, ErrCancelled, e.Cause)
}

// Unwrap returns ErrCancelled for errors.Is support.
func (e *CancellationError) Unwrap() error {
	return ErrCancelled
}
