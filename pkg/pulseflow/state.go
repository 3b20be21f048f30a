package pulseflow

// GraphState is the lifecycle state of a scheduler.
// Every scheduler starts at Stopped and returns to Stopped after every
// play cycle, whether the cycle ended normally, was stopped cooperatively,
// or failed with a node error.
type GraphState int

// Scheduler lifecycle states.
const (
	Stopped GraphState = iota
	Playing
	Paused
)

// String returns a human-readable state name.
func (s GraphState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// ActionResponse is the outcome of a session-level transition request.
// Guard failures are reported as data through the callback channel,
// never as errors.
type ActionResponse int

// Transition request outcomes.
const (
	// Success indicates the requested transition was performed.
	Success ActionResponse = iota

	// NotAllowed indicates the flow's current state forbids the transition
	// (e.g. pausing a stopped flow, playing a flow that is already playing).
	NotAllowed

	// NoGraph indicates no flow is registered under the requested name.
	NoGraph
)

// String returns a human-readable response name.
func (r ActionResponse) String() string {
	switch r {
	case Success:
		return "success"
	case NotAllowed:
		return "not_allowed"
	case NoGraph:
		return "no_graph"
	default:
		return "unknown"
	}
}

// Callback receives the outcome of a session-level transition request
// together with a human-readable message. Callbacks fire at most once
// per request.
type Callback func(resp ActionResponse, msg string)
