package pulseflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseflow/pulseflow/pkg/pulseflow/event"
	"github.com/pulseflow/pulseflow/pkg/pulseflow/history"
	"github.com/pulseflow/pulseflow/pkg/pulseflow/observability"
	"github.com/pulseflow/pulseflow/pkg/pulseflow/pool"
	"github.com/pulseflow/pulseflow/pkg/pulseflow/registry"
)

// DefaultSchedulerKind is the scheduler kind used when CreateFlow is
// not given one.
const DefaultSchedulerKind = "realtime"

// DefaultWorkers is the worker-pool size used when none is configured.
const DefaultWorkers = 4

// SchedulerFactory constructs one scheduler kind for a flow.
// Register factories with Session.RegisterKind.
type SchedulerFactory func(flow *Flow, opts ...SchedulerOption) Scheduler

// Session coordinates many named flows, each bound to one scheduler,
// executing concurrently on a bounded worker pool.
//
// All transition requests follow the same shape: validate the requested
// transition against the flow's current state, delegate to the
// scheduler, and report the outcome through the caller's callback as an
// ActionResponse. Guard failures are data, never errors; only genuine
// node faults during a play cycle surface as errors, and only to the
// immediate caller of that cycle.
type Session struct {
	mu            sync.Mutex
	flows         map[string]*Flow
	playing       map[string]struct{}
	tasks         map[string]*pool.Task
	stopRequested map[string]bool
	closed        bool

	kinds   *registry.Registry[string, SchedulerFactory]
	workers *pool.Pool

	defaultRate float64
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	store       history.Store
	transport   io.Closer
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	workers     int
	defaultRate float64
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	store       history.Store
	transport   io.Closer
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		workers:     DefaultWorkers,
		defaultRate: DefaultFrameRate,
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
	}
}

// WithWorkers sets the worker-pool size for asynchronous play cycles.
// Default: DefaultWorkers. Values < 1 are ignored.
func WithWorkers(n int) SessionOption {
	return func(c *sessionConfig) {
		if n >= 1 {
			c.workers = n
		}
	}
}

// WithDefaultRate sets the target frame rate new flows inherit when
// CreateFlow is not given one. Rates <= 0 are ignored.
func WithDefaultRate(rate float64) SessionOption {
	return func(c *sessionConfig) {
		if rate > 0 {
			c.defaultRate = rate
		}
	}
}

// WithLogger sets the structured logger for the session and the
// schedulers it creates. Default: no logging.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter
// provider.
func WithMetrics(enabled bool) SessionOption {
	return func(c *sessionConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing using the global tracer
// provider.
func WithTracing(enabled bool) SessionOption {
	return func(c *sessionConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithHistory sets the run-history store. The session records one
// record per completed play cycle. The caller owns the store and closes
// it after Shutdown.
func WithHistory(store history.Store) SessionOption {
	return func(c *sessionConfig) {
		c.store = store
	}
}

// WithTransport attaches the transport collaborator (e.g. the REST
// front end) so Shutdown can close it after the worker pool drains.
func WithTransport(t io.Closer) SessionOption {
	return func(c *sessionConfig) {
		c.transport = t
	}
}

// NewSession creates a session with the realtime scheduler kind
// registered as DefaultSchedulerKind.
func NewSession(opts ...SessionOption) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		flows:         make(map[string]*Flow),
		playing:       make(map[string]struct{}),
		tasks:         make(map[string]*pool.Task),
		stopRequested: make(map[string]bool),
		kinds:         registry.New[string, SchedulerFactory](),
		workers:       pool.New(cfg.workers),
		defaultRate:   cfg.defaultRate,
		logger:        cfg.logger,
		metrics:       cfg.metrics,
		spans:         cfg.spans,
		store:         cfg.store,
		transport:     cfg.transport,
	}

	s.kinds.Register(DefaultSchedulerKind, func(flow *Flow, opts ...SchedulerOption) Scheduler {
		return NewFrameScheduler(flow, opts...)
	})
	return s
}

// RegisterKind registers a named scheduler kind for CreateFlow.
func (s *Session) RegisterKind(name string, factory SchedulerFactory) {
	if name == "" || factory == nil {
		return
	}
	s.kinds.Register(name, factory)
}

// CreateOption configures CreateFlow.
type CreateOption func(*createConfig)

type createConfig struct {
	kind  string
	rate  float64
	nodes []Node
}

// WithKind selects the scheduler kind. Default: DefaultSchedulerKind.
func WithKind(kind string) CreateOption {
	return func(c *createConfig) {
		if kind != "" {
			c.kind = kind
		}
	}
}

// WithRate sets the flow's target frame rate, overriding the session
// default.
func WithRate(rate float64) CreateOption {
	return func(c *createConfig) {
		if rate > 0 {
			c.rate = rate
		}
	}
}

// WithNodes seeds the flow with initial nodes.
func WithNodes(nodes ...Node) CreateOption {
	return func(c *createConfig) {
		c.nodes = append(c.nodes, nodes...)
	}
}

// CreateFlow constructs a flow, binds a new scheduler of the requested
// kind, and registers both under name.
//
// Returns nil when name already identifies a flow, when the kind is
// unknown, or after Shutdown. Callers must check the result; no error
// is raised for the duplicate-name case.
func (s *Session) CreateFlow(name string, opts ...CreateOption) *Flow {
	cfg := createConfig{kind: DefaultSchedulerKind, rate: s.defaultRate}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory, ok := s.kinds.Lookup(cfg.kind)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if _, exists := s.flows[name]; exists {
		return nil
	}

	flow := NewFlow(name)
	for _, n := range cfg.nodes {
		flow.AddNode(n)
	}
	factory(flow,
		WithTargetRate(cfg.rate),
		WithSchedulerLogger(s.logger),
		WithSchedulerMetrics(s.metrics),
		WithSchedulerSpans(s.spans),
	)

	s.flows[name] = flow
	observability.LogFlowCreated(s.logger, name, cfg.kind)
	return flow
}

// Flow returns the flow registered under name.
func (s *Session) Flow(name string) (*Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[name]
	return f, ok
}

// FlowNames returns the names of all registered flows in unspecified
// order.
func (s *Session) FlowNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.flows))
	for name := range s.flows {
		names = append(names, name)
	}
	return names
}

// PlayFlow requests a play cycle for the named flow.
//
// Guard failures are reported through cb: NoGraph for an unknown name,
// NotAllowed when the flow is already playing (or a play is already
// scheduled) or is paused; a paused flow must be resumed, not played.
//
// On acceptance the flow joins the "currently playing" set before any
// work is scheduled, closing the race between two near-simultaneous
// play requests for the same name; cb fires with Success once the
// scheduler actually enters Playing.
//
// With async false the cycle runs on the calling goroutine and node
// faults are returned directly. With async true PlayFlow returns
// immediately and faults surface through the background task's result.
func (s *Session) PlayFlow(name string, async bool, cb Callback) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, "session is shut down")
		return ErrSessionClosed
	}

	f, ok := s.flows[name]
	if !ok {
		s.mu.Unlock()
		s.respond(cb, NoGraph, fmt.Sprintf("no flow named %q", name))
		return nil
	}

	sch := f.Scheduler()
	if _, busy := s.playing[name]; busy || sch == nil || sch.State() != Stopped {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, fmt.Sprintf("flow %q is not stopped", name))
		return nil
	}

	// Membership opens here, before any work is scheduled.
	s.playing[name] = struct{}{}
	delete(s.stopRequested, name)

	var sub *event.Subscription
	if cb != nil {
		sub = sch.Events().OnEnter(Playing, func(GraphState) {
			cb(Success, fmt.Sprintf("flow %q playing", name))
		}, event.Once())
	}

	if !async {
		s.mu.Unlock()
		err := s.runCycle(name, sch)
		s.mu.Lock()
		delete(s.playing, name)
		s.mu.Unlock()
		return err
	}

	task, err := s.workers.Submit(func() error {
		defer func() {
			s.mu.Lock()
			delete(s.playing, name)
			delete(s.tasks, name)
			s.mu.Unlock()
		}()
		return s.runCycle(name, sch)
	})
	if err != nil {
		delete(s.playing, name)
		s.mu.Unlock()
		sub.Unsubscribe()
		s.respond(cb, NotAllowed, fmt.Sprintf("cannot schedule play for flow %q: %v", name, err))
		return err
	}

	s.tasks[name] = task
	s.mu.Unlock()
	return nil
}

// runCycle runs one play cycle and records it in the history store.
func (s *Session) runCycle(name string, sch Scheduler) error {
	started := time.Now()

	var frames int64
	var avgFPS float64
	// The Stopped event fires before the clock resets, so the final
	// frame count and fps are still readable here.
	sub := sch.Events().OnEnter(Stopped, func(GraphState) {
		frames = sch.Clock().Frames()
		avgFPS = sch.Clock().AverageFPS()
	}, event.Once())

	// Shutdown's stop sweep no-ops on schedulers that have not left
	// Stopped yet. A cycle that starts after the sweep stops itself on
	// entry instead, so the pool drain cannot hang on it.
	guard := sch.Events().OnEnter(Playing, func(GraphState) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			sch.Stop()
		}
	}, event.Once())

	err := sch.Play(context.Background())
	guard.Unsubscribe()
	sub.Unsubscribe()

	if s.store != nil {
		s.mu.Lock()
		stopped := s.stopRequested[name]
		delete(s.stopRequested, name)
		s.mu.Unlock()

		outcome := history.OutcomeCompleted
		errMsg := ""
		switch {
		case err != nil:
			outcome = history.OutcomeFailed
			errMsg = err.Error()
		case stopped:
			outcome = history.OutcomeStopped
		}

		rec := history.Record{
			RunID:     uuid.NewString(),
			FlowName:  name,
			StartedAt: started,
			EndedAt:   time.Now(),
			Frames:    frames,
			AvgFPS:    avgFPS,
			Outcome:   outcome,
			Error:     errMsg,
		}
		if serr := s.store.Save(rec); serr != nil && s.logger != nil {
			s.logger.Warn("history save failed",
				slog.String("flow", name),
				slog.String("error", serr.Error()),
			)
		}
	}
	return err
}

// PauseFlow requests a pause. Requires the flow to be Playing.
func (s *Session) PauseFlow(name string, cb Callback) {
	s.mu.Lock()

	f, ok := s.flows[name]
	if !ok {
		s.mu.Unlock()
		s.respond(cb, NoGraph, fmt.Sprintf("no flow named %q", name))
		return
	}

	sch := f.Scheduler()
	if sch == nil || sch.State() != Playing {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, fmt.Sprintf("flow %q is not playing", name))
		return
	}

	if cb != nil {
		sch.Events().OnEnter(Paused, func(GraphState) {
			cb(Success, fmt.Sprintf("flow %q paused", name))
		}, event.Once())
	}
	s.mu.Unlock()

	sch.Pause()
}

// ResumeFlow requests a resume. Requires the flow to be Paused.
//
// Guard failures are reported only when a callback was actually
// supplied, matching the intent of the callback-channel contract.
func (s *Session) ResumeFlow(name string, cb Callback) {
	s.mu.Lock()

	f, ok := s.flows[name]
	if !ok {
		s.mu.Unlock()
		s.respond(cb, NoGraph, fmt.Sprintf("no flow named %q", name))
		return
	}

	sch := f.Scheduler()
	if sch == nil || sch.State() != Paused {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, fmt.Sprintf("flow %q is not paused", name))
		return
	}

	if cb != nil {
		sch.Events().OnEnter(Playing, func(GraphState) {
			cb(Success, fmt.Sprintf("flow %q playing", name))
		}, event.Once())
	}
	s.mu.Unlock()

	sch.Resume()
}

// StopFlow requests a cooperative stop. Requires the flow to be in any
// non-Stopped state. The running frame loop observes the request and
// unwinds; cb fires once the scheduler actually reaches Stopped.
func (s *Session) StopFlow(name string, cb Callback) {
	s.mu.Lock()

	f, ok := s.flows[name]
	if !ok {
		s.mu.Unlock()
		s.respond(cb, NoGraph, fmt.Sprintf("no flow named %q", name))
		return
	}

	sch := f.Scheduler()
	if sch == nil || sch.State() == Stopped {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, fmt.Sprintf("flow %q is already stopped", name))
		return
	}

	s.stopRequested[name] = true
	if cb != nil {
		sch.Events().OnEnter(Stopped, func(GraphState) {
			cb(Success, fmt.Sprintf("flow %q stopped", name))
		}, event.Once())
	}
	s.mu.Unlock()

	sch.Stop()
}

// DeleteFlow unregisters the named flow. Refused while the flow is
// playing or paused.
func (s *Session) DeleteFlow(name string, cb Callback) {
	s.mu.Lock()

	f, ok := s.flows[name]
	if !ok {
		s.mu.Unlock()
		s.respond(cb, NoGraph, fmt.Sprintf("no flow named %q", name))
		return
	}

	sch := f.Scheduler()
	if _, busy := s.playing[name]; busy || (sch != nil && sch.State() != Stopped) {
		s.mu.Unlock()
		s.respond(cb, NotAllowed, fmt.Sprintf("flow %q is not stopped", name))
		return
	}

	delete(s.flows, name)
	s.mu.Unlock()

	s.respond(cb, Success, fmt.Sprintf("flow %q deleted", name))
}

// Shutdown stops the session in order: request a cooperative stop on
// every flow, drain the worker pool (blocking until every in-flight
// play cycle has observed its stop flag and unwound), run each node's
// application-end hook, then close the transport collaborator.
//
// Safe to call more than once.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	names := make([]string, 0, len(s.flows))
	flows := make([]*Flow, 0, len(s.flows))
	for name, f := range s.flows {
		names = append(names, name)
		flows = append(flows, f)
	}
	s.mu.Unlock()

	observability.LogSessionShutdown(s.logger, len(names))

	for _, name := range names {
		s.StopFlow(name, nil)
	}

	s.workers.Shutdown()

	for _, f := range flows {
		for _, n := range f.Nodes() {
			n.OnApplicationEnd()
		}
	}

	if s.transport != nil {
		if err := s.transport.Close(); err != nil && s.logger != nil {
			s.logger.Warn("transport close failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// respond delivers a guard outcome through cb, if one was supplied.
func (s *Session) respond(cb Callback, resp ActionResponse, msg string) {
	if cb == nil {
		return
	}
	cb(resp, msg)
}
