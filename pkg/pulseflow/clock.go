package pulseflow

import (
	"sync/atomic"
	"time"
)

// DefaultFrameRate is the target frame rate used when none is configured.
const DefaultFrameRate = 30.0

// Clock tracks frame timing for one scheduler: cumulative frame count,
// cumulative elapsed time, and the duration of the most recent frame.
//
// A Clock is owned by exactly one scheduler and is mutated only by that
// scheduler's frame loop. Accessors are safe to call from other goroutines
// but may observe a snapshot that is one frame stale.
type Clock struct {
	targetRate float64 // immutable after construction

	frames  atomic.Int64
	elapsed atomic.Int64 // nanoseconds
	delta   atomic.Int64 // nanoseconds
}

// NewClock creates a clock pacing frames against the given target rate
// in frames per second. Rates <= 0 fall back to DefaultFrameRate.
func NewClock(targetRate float64) *Clock {
	if targetRate <= 0 {
		targetRate = DefaultFrameRate
	}
	return &Clock{targetRate: targetRate}
}

// Reset zeroes the frame count, elapsed time, and delta time.
// The scheduler calls this exactly once per play cycle, on the
// transition back to Stopped.
func (c *Clock) Reset() {
	c.frames.Store(0)
	c.elapsed.Store(0)
	c.delta.Store(0)
}

// BeginFrame increments the frame count. It is called at the start of
// each frame, before any node work is done.
func (c *Clock) BeginFrame() {
	c.frames.Add(1)
}

// RecordFrame adds the measured frame duration (including end-of-frame
// pacing sleep) to the elapsed time and stores it as the current delta.
func (c *Clock) RecordFrame(d time.Duration) {
	c.elapsed.Add(int64(d))
	c.delta.Store(int64(d))
}

// TargetRate returns the configured target frame rate.
func (c *Clock) TargetRate() float64 {
	return c.targetRate
}

// FrameDuration returns the budget for one frame: 1/targetRate.
func (c *Clock) FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / c.targetRate)
}

// Frames returns the cumulative frame count for the current play cycle.
func (c *Clock) Frames() int64 {
	return c.frames.Load()
}

// Elapsed returns the cumulative wall time spent in the current play cycle.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.elapsed.Load())
}

// Delta returns the duration of the most recent frame.
func (c *Clock) Delta() time.Duration {
	return time.Duration(c.delta.Load())
}

// AverageFPS returns frames / elapsed, or 0 if no time has elapsed.
func (c *Clock) AverageFPS() float64 {
	elapsed := c.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(c.Frames()) / elapsed
}

// CurrentFPS returns 1 / delta, or 0 if no frame has been recorded.
func (c *Clock) CurrentFPS() float64 {
	delta := c.Delta().Seconds()
	if delta == 0 {
		return 0
	}
	return 1 / delta
}
