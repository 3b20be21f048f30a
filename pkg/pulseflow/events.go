package pulseflow

import "github.com/pulseflow/pulseflow/pkg/pulseflow/event"

// StateChange describes one scheduler transition.
type StateChange struct {
	From GraphState
	To   GraphState
}

// Events is the typed event hub owned by one scheduler: one unary hook
// per target state plus a generic "state changed" hook.
//
// On any transition the state-specific hook fires first, then the
// changed hook. Subscriptions survive play cycles; they are discarded
// only when the scheduler itself is reconstructed.
//
// Handler panics propagate to whatever triggered the transition (see
// the event package).
type Events struct {
	entered map[GraphState]*event.Emitter[GraphState]
	changed *event.Emitter[StateChange]
}

// NewEvents creates an event hub with no subscriptions.
func NewEvents() *Events {
	return &Events{
		entered: map[GraphState]*event.Emitter[GraphState]{
			Stopped: event.NewEmitter[GraphState](),
			Playing: event.NewEmitter[GraphState](),
			Paused:  event.NewEmitter[GraphState](),
		},
		changed: event.NewEmitter[StateChange](),
	}
}

// OnEnter subscribes to the hook for transitions into state.
func (e *Events) OnEnter(state GraphState, fn func(GraphState), opts ...event.SubscribeOption) *event.Subscription {
	em, ok := e.entered[state]
	if !ok {
		return (&event.Emitter[GraphState]{}).Subscribe(nil)
	}
	return em.Subscribe(fn, opts...)
}

// OnChange subscribes to the generic "state changed" hook.
func (e *Events) OnChange(fn func(StateChange), opts ...event.SubscribeOption) *event.Subscription {
	return e.changed.Subscribe(fn, opts...)
}

// Fire dispatches a transition: the hook for the entered state first,
// then the changed hook.
func (e *Events) Fire(from, to GraphState) {
	if em, ok := e.entered[to]; ok {
		em.Emit(to)
	}
	e.changed.Emit(StateChange{From: from, To: to})
}
