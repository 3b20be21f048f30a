package pool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPool_SubmitAndWait verifies a submitted task runs and its error
// is surfaced through the handle.
func TestPool_SubmitAndWait(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	boom := errors.New("boom")
	ok, err := p.Submit(func() error { return nil })
	require.NoError(t, err)
	bad, err := p.Submit(func() error { return boom })
	require.NoError(t, err)

	assert.NoError(t, ok.Wait())
	assert.ErrorIs(t, bad.Wait(), boom)
}

// TestPool_ErrBeforeDone verifies Err reports nil until the task has
// actually run.
func TestPool_ErrBeforeDone(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	release := make(chan struct{})
	boom := errors.New("boom")
	task, err := p.Submit(func() error {
		<-release
		return boom
	})
	require.NoError(t, err)

	assert.NoError(t, task.Err())
	close(release)
	<-task.Done()
	assert.ErrorIs(t, task.Err(), boom)
}

// TestPool_SubmitAfterShutdown verifies the closed sentinel.
func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := New(1)
	p.Shutdown()

	_, err := p.Submit(func() error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

// TestPool_QueueFull verifies Submit never blocks: with the single
// worker occupied and the queue at capacity, it returns ErrQueueFull.
func TestPool_QueueFull(t *testing.T) {
	p := NewWithQueue(1, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	busy, err := p.Submit(func() error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	// One slot in the queue, then full.
	queued, err := p.Submit(func() error { return nil })
	require.NoError(t, err)
	_, err = p.Submit(func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, busy.Wait())
	require.NoError(t, queued.Wait())
	p.Shutdown()
}

// TestPool_ShutdownDrainsQueue verifies Shutdown waits for queued tasks,
// not just in-flight ones.
func TestPool_ShutdownDrainsQueue(t *testing.T) {
	p := NewWithQueue(1, 8)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		_, err := p.Submit(func() error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	p.Shutdown()
	assert.Equal(t, int32(5), ran.Load())
}

// TestPool_ShutdownIdempotent verifies repeated Shutdown calls are safe.
func TestPool_ShutdownIdempotent(t *testing.T) {
	p := New(2)
	p.Shutdown()
	assert.NotPanics(t, p.Shutdown)
}

// TestPool_PanicBecomesError verifies a panicking task surfaces as an
// error without killing its worker.
func TestPool_PanicBecomesError(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	task, err := p.Submit(func() error { panic("task exploded") })
	require.NoError(t, err)

	werr := task.Wait()
	require.Error(t, werr)
	assert.Contains(t, werr.Error(), "task exploded")

	// The worker survives and keeps running tasks.
	next, err := p.Submit(func() error { return nil })
	require.NoError(t, err)
	assert.NoError(t, next.Wait())
}

// TestPool_MinimumWorkers verifies worker counts below one are raised.
func TestPool_MinimumWorkers(t *testing.T) {
	p := New(0)
	defer p.Shutdown()

	task, err := p.Submit(func() error { return nil })
	require.NoError(t, err)
	assert.NoError(t, task.Wait())
}
