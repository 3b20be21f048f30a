// Package history provides run-history storage: one record per
// completed play cycle, for telemetry and post-hoc inspection.
//
// History is not execution state. Losing it never affects a running or
// future play cycle; it exists so operators can answer "what did flow X
// do last night" without scraping logs.
package history

import (
	"errors"
	"time"
)

// Outcome classifies how a play cycle ended.
type Outcome string

// Play cycle outcomes.
const (
	// OutcomeCompleted means every frame node finished on its own.
	OutcomeCompleted Outcome = "completed"

	// OutcomeStopped means the cycle ended through a cooperative stop.
	OutcomeStopped Outcome = "stopped"

	// OutcomeFailed means a node fault ended the cycle.
	OutcomeFailed Outcome = "failed"
)

// Record describes one play cycle.
type Record struct {
	// RunID is the cycle's unique identifier.
	RunID string

	// FlowName is the flow that ran.
	FlowName string

	// StartedAt and EndedAt bound the cycle in wall time.
	StartedAt time.Time
	EndedAt   time.Time

	// Frames is the number of frames executed.
	Frames int64

	// AvgFPS is frames divided by elapsed time.
	AvgFPS float64

	// Outcome classifies how the cycle ended.
	Outcome Outcome

	// Error holds the node fault message for failed cycles.
	Error string
}

// Store persists run-history records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores one record.
	Save(rec Record) error

	// List returns all records for a flow, oldest first.
	// Returns an empty slice (not an error) for an unknown flow.
	List(flowName string) ([]Record, error)

	// Latest returns the most recent record for a flow.
	// Returns ErrNotFound if the flow has no history.
	Latest(flowName string) (Record, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates a flow has no recorded history.
	ErrNotFound = errors.New("history not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)
