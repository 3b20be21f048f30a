package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records scheduler metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordFrame records one scheduler frame with its duration and how
	// many frame nodes produced output.
	RecordFrame(ctx context.Context, flowName string, duration time.Duration, produced int)

	// RecordOverrun records a frame that exceeded its budget.
	RecordOverrun(ctx context.Context, flowName string)

	// RecordPlay records a completed play cycle.
	RecordPlay(ctx context.Context, flowName string, success bool, duration time.Duration, frames int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	frames        metric.Int64Counter
	frameLatency  metric.Float64Histogram
	frameOutputs  metric.Int64Counter
	frameOverruns metric.Int64Counter
	plays         metric.Int64Counter
	playLatency   metric.Float64Histogram
	playFrames    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulseflow")

	frames, err := meter.Int64Counter("pulseflow.frame.count",
		metric.WithDescription("Number of scheduler frames executed"),
	)
	if err != nil {
		return nil, err
	}

	frameLatency, err := meter.Float64Histogram("pulseflow.frame.duration_ms",
		metric.WithDescription("Frame duration in milliseconds, including pacing sleep"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	frameOutputs, err := meter.Int64Counter("pulseflow.frame.outputs",
		metric.WithDescription("Number of node outputs produced across frames"),
	)
	if err != nil {
		return nil, err
	}

	frameOverruns, err := meter.Int64Counter("pulseflow.frame.overruns",
		metric.WithDescription("Number of frames that exceeded the frame budget"),
	)
	if err != nil {
		return nil, err
	}

	plays, err := meter.Int64Counter("pulseflow.flow.plays",
		metric.WithDescription("Number of play cycles"),
	)
	if err != nil {
		return nil, err
	}

	playLatency, err := meter.Float64Histogram("pulseflow.flow.latency_ms",
		metric.WithDescription("Play cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	playFrames, err := meter.Int64Histogram("pulseflow.flow.frames",
		metric.WithDescription("Frames executed per play cycle"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		frames:        frames,
		frameLatency:  frameLatency,
		frameOutputs:  frameOutputs,
		frameOverruns: frameOverruns,
		plays:         plays,
		playLatency:   playLatency,
		playFrames:    playFrames,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordFrame records one scheduler frame.
func (m *otelMetrics) RecordFrame(ctx context.Context, flowName string, duration time.Duration, produced int) {
	attrs := []attribute.KeyValue{
		attribute.String("flow", flowName),
	}
	m.frames.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.frameLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))
	m.frameOutputs.Add(ctx, int64(produced), metric.WithAttributes(attrs...))
}

// RecordOverrun records a frame that exceeded its budget.
func (m *otelMetrics) RecordOverrun(ctx context.Context, flowName string) {
	m.frameOverruns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flowName),
	))
}

// RecordPlay records a completed play cycle.
func (m *otelMetrics) RecordPlay(ctx context.Context, flowName string, success bool, duration time.Duration, frames int64) {
	attrs := []attribute.KeyValue{
		attribute.String("flow", flowName),
		attribute.Bool("success", success),
	}
	m.plays.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.playLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.playFrames.Record(ctx, frames, metric.WithAttributes(attrs...))
}
