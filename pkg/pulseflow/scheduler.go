package pulseflow

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseflow/pulseflow/pkg/pulseflow/observability"
)

// Scheduler drives one flow through its play/pause/stop lifecycle.
//
// Play blocks for the whole cycle and always leaves the scheduler at
// Stopped before returning, whether the cycle completed, was stopped
// cooperatively, or failed. Pause, Resume, and Stop are safe to call
// from other goroutines; each is a no-op when the current state forbids
// it (session-level guards turn those no-ops into NotAllowed responses).
type Scheduler interface {
	// Play runs one full play cycle. Valid only from Stopped; a no-op
	// otherwise. Node faults surface as the returned error after the
	// stop sequence has run.
	Play(ctx context.Context) error

	// Pause suspends the frame loop. Valid only from Playing.
	Pause()

	// Resume continues a paused frame loop. Valid only from Paused.
	Resume()

	// Stop requests a cooperative stop. Valid from any non-Stopped
	// state; the running frame loop observes the request and unwinds.
	Stop()

	// State returns the current lifecycle state.
	State() GraphState

	// Clock returns the scheduler's frame clock. External readers must
	// tolerate snapshots that are one frame stale.
	Clock() *Clock

	// Events returns the scheduler's lifecycle event hub.
	Events() *Events

	// Flow returns the flow this scheduler drives.
	Flow() *Flow
}

// SchedulerOption configures a FrameScheduler.
type SchedulerOption func(*schedulerConfig)

type schedulerConfig struct {
	targetRate float64
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
}

func defaultSchedulerConfig() schedulerConfig {
	return schedulerConfig{
		targetRate: DefaultFrameRate,
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
}

// WithTargetRate sets the target frame rate in frames per second.
// Default: DefaultFrameRate. Rates <= 0 are ignored.
func WithTargetRate(rate float64) SchedulerOption {
	return func(c *schedulerConfig) {
		if rate > 0 {
			c.targetRate = rate
		}
	}
}

// WithSchedulerLogger sets the structured logger. Default: no logging.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		c.logger = logger
	}
}

// WithSchedulerMetrics sets the metrics recorder. Default: no-op.
func WithSchedulerMetrics(m observability.MetricsRecorder) SchedulerOption {
	return func(c *schedulerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSchedulerSpans sets the trace span manager. Default: no-op.
func WithSchedulerSpans(s observability.SpanManager) SchedulerOption {
	return func(c *schedulerConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// FrameScheduler is the soft-real-time Scheduler implementation.
//
// Each frame it re-filters the flow's current nodes for unfinished
// frame nodes, updates them sequentially in flow order, then sleeps off
// whatever remains of the frame budget. An overrunning frame is not
// compensated for; effective fps degrades under load instead of
// bursting to catch up.
//
// Pausing blocks on a channel signaled by Resume and Stop, so a paused
// scheduler consumes no cycles while it waits.
type FrameScheduler struct {
	flow   *Flow
	clock  *Clock
	events *Events

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	mu            sync.Mutex
	state         GraphState
	stopRequested bool
	wake          chan struct{}

	// Working lists, rebuilt at the Stopped->Playing transition and
	// touched only by the goroutine running Play.
	nodes      []Node
	startNodes []StartNode
}

// Compile-time interface check.
var _ Scheduler = (*FrameScheduler)(nil)

// NewFrameScheduler creates a scheduler for the given flow.
// The scheduler owns a fresh Clock and Events hub; binding it to the
// flow discards any previous scheduler's subscriptions.
func NewFrameScheduler(flow *Flow, opts ...SchedulerOption) *FrameScheduler {
	cfg := defaultSchedulerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &FrameScheduler{
		flow:    flow,
		clock:   NewClock(cfg.targetRate),
		events:  NewEvents(),
		logger:  cfg.logger,
		metrics: cfg.metrics,
		spans:   cfg.spans,
		state:   Stopped,
	}
	if flow != nil {
		flow.Bind(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *FrameScheduler) State() GraphState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clock returns the scheduler's frame clock.
func (s *FrameScheduler) Clock() *Clock { return s.clock }

// Events returns the scheduler's lifecycle event hub.
func (s *FrameScheduler) Events() *Events { return s.events }

// Flow returns the flow this scheduler drives.
func (s *FrameScheduler) Flow() *Flow { return s.flow }

// Play runs one full play cycle on the calling goroutine.
//
// Cycle shape: clear the stop flag, enter Playing, gather the working
// lists, fire Stopped->Playing, reset every gathered node, run each
// node's start hook, run each start node's once-only update, then run
// the frame loop until every frame node is finished or a stop is
// requested. A flow with no frame nodes is a run-once flow: the cycle
// ends right after the start updates.
//
// The stop sequence (node stop hooks, Stopped event, clock reset)
// always runs, including on error or panic; the fault is returned after
// the scheduler has reached Stopped.
func (s *FrameScheduler) Play(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = false
	s.wake = make(chan struct{}, 1)
	s.state = Playing
	s.mu.Unlock()

	runID := uuid.NewString()
	flowName := s.flow.Name()
	observability.LogPlayStart(s.logger, flowName, runID, s.clock.TargetRate())
	cycleStart := time.Now()
	done := observability.TimedOperation()

	spanCtx, span := s.spans.StartPlaySpan(ctx, flowName, runID)
	ctx = spanCtx

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{FlowName: flowName, Value: r, Stack: string(debug.Stack())}
		}
		frames := s.clock.Frames()
		avg := s.clock.AverageFPS()
		s.finish()

		durationMs := done()
		s.metrics.RecordPlay(ctx, flowName, err == nil, time.Since(cycleStart), frames)
		s.spans.EndSpanWithError(span, err)
		if err != nil {
			observability.LogPlayError(s.logger, flowName, runID, err, durationMs)
		} else {
			observability.LogPlayComplete(s.logger, flowName, runID, frames, avg, durationMs)
		}
	}()

	hasFrameNodes := s.gather()
	observability.LogStateChange(s.logger, flowName, Stopped.String(), Playing.String())
	s.events.Fire(Stopped, Playing)

	for _, n := range s.nodes {
		n.Reset()
	}
	for _, n := range s.nodes {
		n.OnStart()
	}
	for _, sn := range s.startNodes {
		if uerr := sn.StartUpdate(); uerr != nil {
			return &NodeError{NodeID: sn.ID(), NodeName: sn.Name(), Op: "start", Err: uerr}
		}
	}

	if !hasFrameNodes {
		// Run-once flow: no frame loop.
		return nil
	}

	return s.loop(ctx, flowName)
}

// gather rebuilds the working lists from the flow's current nodes and
// reports whether any frame nodes were found.
func (s *FrameScheduler) gather() bool {
	s.nodes = s.nodes[:0]
	s.startNodes = s.startNodes[:0]
	hasFrameNodes := false

	for _, n := range s.flow.Nodes() {
		if n == nil {
			continue
		}
		s.nodes = append(s.nodes, n)
		if sn, ok := n.(StartNode); ok {
			s.startNodes = append(s.startNodes, sn)
		}
		if _, ok := n.(FrameNode); ok {
			hasFrameNodes = true
		}
	}
	return hasFrameNodes
}

// activeFrameNodes snapshots the flow's current nodes and filters for
// unfinished frame nodes. Re-run every frame so nodes added, removed,
// or finished mid-cycle take effect on the next frame.
func (s *FrameScheduler) activeFrameNodes() []FrameNode {
	var active []FrameNode
	for _, n := range s.flow.Nodes() {
		if fn, ok := n.(FrameNode); ok && !fn.Finished() {
			active = append(active, fn)
		}
	}
	return active
}

// loop is the paced frame loop. It returns nil when every frame node
// has finished or a stop was requested, and the node fault otherwise.
func (s *FrameScheduler) loop(ctx context.Context, flowName string) error {
	frameBudget := s.clock.FrameDuration()

	for {
		s.mu.Lock()
		if s.stopRequested {
			s.mu.Unlock()
			return nil
		}
		state := s.state
		wake := s.wake
		s.mu.Unlock()

		if state == Paused {
			// Block until Resume or Stop signals; no periodic wake-ups.
			select {
			case <-wake:
			case <-ctx.Done():
				return &CancellationError{FlowName: flowName, Cause: ctx.Err()}
			}
			continue
		}

		active := s.activeFrameNodes()
		if len(active) == 0 {
			// Every frame node reported finished.
			return nil
		}

		s.clock.BeginFrame()
		frameStart := time.Now()

		produced := 0
		for _, fn := range active {
			out, uerr := fn.FrameUpdate()
			if uerr != nil {
				return &NodeError{NodeID: fn.ID(), NodeName: fn.Name(), Op: "frame", Err: uerr}
			}
			if out {
				produced++
			}
		}

		work := time.Since(frameStart)
		if wait := frameBudget - work; wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-wake:
				// Stop or resume signal cuts the pacing sleep short;
				// the loop re-checks at the top.
				timer.Stop()
			case <-ctx.Done():
				timer.Stop()
				return &CancellationError{FlowName: flowName, Cause: ctx.Err()}
			}
		} else if wait < 0 {
			s.metrics.RecordOverrun(ctx, flowName)
			observability.LogFrameOverrun(s.logger, flowName, s.clock.Frames(), -wait)
		}

		// Actual frame time includes the pacing sleep.
		s.clock.RecordFrame(time.Since(frameStart))
		s.metrics.RecordFrame(ctx, flowName, time.Since(frameStart), produced)
	}
}

// Pause suspends the frame loop. Valid only from Playing; a no-op
// otherwise.
func (s *FrameScheduler) Pause() {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return
	}
	s.state = Paused
	s.mu.Unlock()

	observability.LogStateChange(s.logger, s.flow.Name(), Playing.String(), Paused.String())
	s.events.Fire(Playing, Paused)
}

// Resume continues a paused frame loop. Valid only from Paused; a
// no-op otherwise.
func (s *FrameScheduler) Resume() {
	s.mu.Lock()
	if s.state != Paused {
		s.mu.Unlock()
		return
	}
	s.state = Playing
	wake := s.wake
	s.mu.Unlock()

	s.signal(wake)
	observability.LogStateChange(s.logger, s.flow.Name(), Paused.String(), Playing.String())
	s.events.Fire(Paused, Playing)
}

// Stop requests a cooperative stop. It only raises the stop flag and
// wakes the loop; the state transition happens when the running cycle
// unwinds through the stop sequence.
func (s *FrameScheduler) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	s.stopRequested = true
	wake := s.wake
	s.mu.Unlock()

	s.signal(wake)
}

// signal performs a non-blocking send on the wake channel.
func (s *FrameScheduler) signal(wake chan struct{}) {
	if wake == nil {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

// finish is the stop sequence: transition to Stopped, run each gathered
// node's stop hook, fire the Stopped event, then reset the clock.
// Idempotent; the Stopped event fires before the clock resets so
// subscribers can read the cycle's final frame count and fps.
func (s *FrameScheduler) finish() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = Stopped
	s.mu.Unlock()

	for _, n := range s.nodes {
		n.OnStop()
	}
	observability.LogStateChange(s.logger, s.flow.Name(), from.String(), Stopped.String())
	s.events.Fire(from, Stopped)
	s.clock.Reset()
}
