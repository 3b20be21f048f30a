package pulseflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseflow/pulseflow/pkg/pulseflow/event"
)

// TestEvents_FiringOrder verifies the state-specific hook fires before
// the generic changed hook on every transition.
func TestEvents_FiringOrder(t *testing.T) {
	ev := NewEvents()

	var order []string
	ev.OnEnter(Playing, func(GraphState) { order = append(order, "entered") })
	ev.OnChange(func(StateChange) { order = append(order, "changed") })

	ev.Fire(Stopped, Playing)

	assert.Equal(t, []string{"entered", "changed"}, order)
}

// TestEvents_ChangedCarriesTransition verifies the changed hook sees
// both endpoints of the transition.
func TestEvents_ChangedCarriesTransition(t *testing.T) {
	ev := NewEvents()

	var got StateChange
	ev.OnChange(func(c StateChange) { got = c })

	ev.Fire(Playing, Paused)

	assert.Equal(t, Playing, got.From)
	assert.Equal(t, Paused, got.To)
}

// TestEvents_PriorityOrder verifies higher priorities fire first and
// equal priorities keep insertion order.
func TestEvents_PriorityOrder(t *testing.T) {
	ev := NewEvents()

	var order []string
	ev.OnEnter(Stopped, func(GraphState) { order = append(order, "low") }, event.WithPriority(-1))
	ev.OnEnter(Stopped, func(GraphState) { order = append(order, "first-default") })
	ev.OnEnter(Stopped, func(GraphState) { order = append(order, "high") }, event.WithPriority(10))
	ev.OnEnter(Stopped, func(GraphState) { order = append(order, "second-default") })

	ev.Fire(Playing, Stopped)

	assert.Equal(t, []string{"high", "first-default", "second-default", "low"}, order)
}

// TestEvents_Unsubscribe verifies detached handlers no longer fire.
func TestEvents_Unsubscribe(t *testing.T) {
	ev := NewEvents()

	fired := 0
	sub := ev.OnEnter(Paused, func(GraphState) { fired++ })

	ev.Fire(Playing, Paused)
	sub.Unsubscribe()
	ev.Fire(Playing, Paused)

	assert.Equal(t, 1, fired)
}

// TestEvents_OneOffAcrossTwoCycles verifies a one-off Playing handler
// fires exactly once across two successive play cycles of the same
// scheduler.
func TestEvents_OneOffAcrossTwoCycles(t *testing.T) {
	flow := NewFlow("two-cycles").AddNode(newTestStartNode("start"))
	sched := NewFrameScheduler(flow, WithTargetRate(testRate))

	fired := 0
	sched.Events().OnEnter(Playing, func(GraphState) { fired++ }, event.Once())

	require.NoError(t, sched.Play(context.Background()))
	require.NoError(t, sched.Play(context.Background()))

	assert.Equal(t, 1, fired)
}

// TestEvents_PersistentAcrossCycles verifies ordinary subscriptions
// survive play cycles; they are discarded only with the scheduler.
func TestEvents_PersistentAcrossCycles(t *testing.T) {
	flow := NewFlow("persistent").AddNode(newTestStartNode("start"))
	sched := NewFrameScheduler(flow, WithTargetRate(testRate))

	fired := 0
	sched.Events().OnEnter(Playing, func(GraphState) { fired++ })

	require.NoError(t, sched.Play(context.Background()))
	require.NoError(t, sched.Play(context.Background()))

	assert.Equal(t, 2, fired)
}
