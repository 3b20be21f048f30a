package event

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEmitter_DispatchOrder verifies higher priorities fire first and
// equal priorities keep insertion order.
func TestEmitter_DispatchOrder(t *testing.T) {
	e := NewEmitter[int]()

	var order []string
	e.Subscribe(func(int) { order = append(order, "default-a") })
	e.Subscribe(func(int) { order = append(order, "low") }, WithPriority(-5))
	e.Subscribe(func(int) { order = append(order, "high") }, WithPriority(5))
	e.Subscribe(func(int) { order = append(order, "default-b") })

	e.Emit(0)

	assert.Equal(t, []string{"high", "default-a", "default-b", "low"}, order)
}

// TestEmitter_Once verifies one-off handlers detach after their first
// invocation.
func TestEmitter_Once(t *testing.T) {
	e := NewEmitter[string]()

	fired := 0
	e.Subscribe(func(string) { fired++ }, Once())

	e.Emit("a")
	e.Emit("b")

	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, e.Len())
}

// TestEmitter_OnceConcurrentEmit verifies a one-off handler fires at
// most once even when emissions race on separate goroutines.
func TestEmitter_OnceConcurrentEmit(t *testing.T) {
	for i := 0; i < 100; i++ {
		e := NewEmitter[int]()

		var fired atomic.Int32
		e.Subscribe(func(int) { fired.Add(1) }, Once())

		gate := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				e.Emit(0)
			}()
		}
		close(gate)
		wg.Wait()

		assert.Equal(t, int32(1), fired.Load())
		assert.Equal(t, 0, e.Len())
	}
}

// TestEmitter_Unsubscribe verifies detaching is effective and idempotent.
func TestEmitter_Unsubscribe(t *testing.T) {
	e := NewEmitter[int]()

	fired := 0
	sub := e.Subscribe(func(int) { fired++ })

	e.Emit(1)
	sub.Unsubscribe()
	sub.Unsubscribe()
	e.Emit(2)

	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, e.Len())
}

// TestEmitter_NilHandler verifies nil handlers are ignored and yield a
// usable no-op subscription.
func TestEmitter_NilHandler(t *testing.T) {
	e := NewEmitter[int]()

	sub := e.Subscribe(nil)
	assert.Equal(t, 0, e.Len())
	assert.NotPanics(t, func() { sub.Unsubscribe() })
	assert.NotPanics(t, func() { e.Emit(1) })
}

// TestEmitter_MutationDuringDispatch verifies handlers may subscribe or
// unsubscribe mid-emission without affecting the in-flight dispatch.
func TestEmitter_MutationDuringDispatch(t *testing.T) {
	e := NewEmitter[int]()

	lateFired := 0
	var sub *Subscription
	e.Subscribe(func(int) {
		sub.Unsubscribe()
		e.Subscribe(func(int) { lateFired++ })
	}, WithPriority(1))

	victimFired := 0
	sub = e.Subscribe(func(int) { victimFired++ })

	e.Emit(0)

	// The snapshot taken at Emit still includes the victim, and the
	// late subscriber only fires on the next emission.
	assert.Equal(t, 1, victimFired)
	assert.Equal(t, 0, lateFired)

	e.Emit(0)
	assert.Equal(t, 1, victimFired)
	assert.Equal(t, 1, lateFired)
}

// TestEmitter_Clear verifies Clear detaches everything.
func TestEmitter_Clear(t *testing.T) {
	e := NewEmitter[int]()

	fired := 0
	e.Subscribe(func(int) { fired++ })
	e.Subscribe(func(int) { fired++ })

	e.Clear()
	e.Emit(0)

	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, e.Len())
}

// TestEmitter_ConcurrentSubscribe verifies Subscribe and Unsubscribe
// are safe under concurrent use.
func TestEmitter_ConcurrentSubscribe(t *testing.T) {
	e := NewEmitter[int]()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := e.Subscribe(func(int) {})
			e.Emit(0)
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, e.Len())
}
