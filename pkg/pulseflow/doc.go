/*
Package pulseflow executes signal-processing dataflow graphs.

# Overview

pulseflow is the execution engine behind a visual dataflow environment:
users assemble flows (graphs of computational nodes) elsewhere; this
package is what runs them. It provides a per-flow scheduler that drives
a flow through a play/pause/stop lifecycle at a target frame rate, and
a session orchestrator that manages many flows executing concurrently
on a bounded worker pool.

The scheduler is soft real-time: frames are paced against a wall-clock
budget and degrade gracefully under overload instead of bursting to
catch up.

# Nodes and Flows

A Flow is a named, mutable collection of nodes. Nodes are polymorphic:
plain nodes only see lifecycle hooks, start nodes run once per play
cycle, and frame nodes run once per frame until they report themselves
finished.

	flow := pulseflow.NewFlow("fft-pipeline").
	    AddNode(pulseflow.NewStartNode("open-source", openSource)).
	    AddNode(pulseflow.NewFrameNode("window", windowFrame))

Flows may be mutated while playing; the scheduler re-snapshots the node
set every frame, so added and removed nodes take effect on the next
frame.

# Playing a Flow

A scheduler owns one flow, one clock, and one event hub:

	sched := pulseflow.NewFrameScheduler(flow, pulseflow.WithTargetRate(60))
	if err := sched.Play(context.Background()); err != nil {
	    log.Fatal(err)
	}

Play blocks for the whole cycle and always returns with the scheduler
back at Stopped: the stop sequence (node stop hooks, Stopped event,
clock reset) runs even when a node fails, and the fault is returned
afterwards. A flow with no frame nodes is a run-once flow: its start
nodes execute and the cycle ends immediately.

# Sessions

A Session coordinates named flows concurrently and reports transition
outcomes through callbacks rather than errors:

	session := pulseflow.NewSession(pulseflow.WithWorkers(8))
	defer session.Shutdown()

	session.CreateFlow("capture", pulseflow.WithRate(48))
	session.PlayFlow("capture", true, func(resp pulseflow.ActionResponse, msg string) {
	    fmt.Println(resp, msg)
	})

Invalid transitions (pausing a stopped flow, playing twice) come back
as NotAllowed; unknown names come back as NoGraph. Two concurrent play
requests for the same flow cannot both win: membership in the playing
set is taken under the session lock before any work is scheduled.

# Events

Each scheduler exposes a typed event hub: a hook per entered state plus
a generic state-changed hook, with priority ordering and one-off
subscriptions:

	sched.Events().OnEnter(pulseflow.Stopped, func(pulseflow.GraphState) {
	    fmt.Println("cycle finished after", sched.Clock().Frames(), "frames")
	}, event.Once())

The Stopped hook fires before the clock resets, so subscribers can read
the cycle's final frame count and fps.

# Observability

Enable structured logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	session := pulseflow.NewSession(
	    pulseflow.WithLogger(logger),
	    pulseflow.WithMetrics(true),
	    pulseflow.WithTracing(true),
	)

Logs carry structured fields: flow, run_id, frames, avg_fps.
OpenTelemetry metrics: pulseflow.frame.count, pulseflow.frame.duration_ms,
pulseflow.frame.overruns, pulseflow.flow.plays, pulseflow.flow.latency_ms.
Tracing emits one pulseflow.play span per cycle.

# Thread Safety

  - Flow is safe for concurrent use; the scheduler iterates snapshots
  - Scheduler Pause/Resume/Stop/State are safe from any goroutine;
    Play runs on exactly one goroutine at a time
  - Clock accessors are safe but may be one frame stale
  - Session methods are safe for concurrent use

# Subpackages

  - event: synchronous priority-ordered pub/sub primitive
  - pool: bounded worker pool for asynchronous play cycles
  - history: run-history storage (memory, SQLite)
  - config: YAML/JSON settings with environment overrides
  - observability: logging, metrics, and tracing helpers
  - registry: generic registry used for scheduler kinds
*/
package pulseflow
