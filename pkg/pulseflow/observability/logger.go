// Package observability provides structured logging, metrics, and
// tracing for pulseflow schedulers and sessions.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds flow context to a logger.
// Returns a new logger carrying flow and run_id fields.
func EnrichLogger(logger *slog.Logger, flowName, runID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("flow", flowName),
		slog.String("run_id", runID),
	)
}

// LogPlayStart logs the start of a play cycle.
func LogPlayStart(logger *slog.Logger, flowName, runID string, targetRate float64) {
	if logger == nil {
		return
	}
	logger.Info("play cycle starting",
		slog.String("flow", flowName),
		slog.String("run_id", runID),
		slog.Float64("target_fps", targetRate),
	)
}

// LogPlayComplete logs a play cycle that reached Stopped without error.
func LogPlayComplete(logger *slog.Logger, flowName, runID string, frames int64, avgFPS, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("play cycle completed",
		slog.String("flow", flowName),
		slog.String("run_id", runID),
		slog.Int64("frames", frames),
		slog.Float64("avg_fps", avgFPS),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPlayError logs a play cycle that ended with a node fault.
func LogPlayError(logger *slog.Logger, flowName, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("play cycle failed",
		slog.String("flow", flowName),
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStateChange logs a scheduler transition.
func LogStateChange(logger *slog.Logger, flowName string, from, to string) {
	if logger == nil {
		return
	}
	logger.Debug("state changed",
		slog.String("flow", flowName),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogFrameOverrun logs a frame that exceeded its budget. No catch-up is
// attempted; the next frame starts immediately.
func LogFrameOverrun(logger *slog.Logger, flowName string, frame int64, overrun time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("frame overran budget",
		slog.String("flow", flowName),
		slog.Int64("frame", frame),
		slog.Float64("overrun_ms", float64(overrun.Microseconds())/1000),
	)
}

// LogFlowCreated logs flow registration in a session.
func LogFlowCreated(logger *slog.Logger, flowName, kind string) {
	if logger == nil {
		return
	}
	logger.Info("flow created",
		slog.String("flow", flowName),
		slog.String("kind", kind),
	)
}

// LogSessionShutdown logs the start of an orderly session shutdown.
func LogSessionShutdown(logger *slog.Logger, flows int) {
	if logger == nil {
		return
	}
	logger.Info("session shutting down",
		slog.Int("flows", flows),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
