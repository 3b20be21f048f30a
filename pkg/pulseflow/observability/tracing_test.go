package observability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	recordingOnce     sync.Once
	recordingExporter *tracetest.InMemoryExporter
)

// newRecordingTracer installs an in-memory exporter behind the global
// tracer provider. The global tracer delegates only to the first
// provider set, so installation happens once and each test resets the
// shared exporter instead.
func newRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	recordingOnce.Do(func() {
		recordingExporter = tracetest.NewInMemoryExporter()
		provider := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(recordingExporter),
		)
		otel.SetTracerProvider(provider)
	})
	recordingExporter.Reset()
	return recordingExporter
}

// TestSpanManager_PlaySpan verifies the play span carries the flow
// attributes and an ok status on clean completion.
func TestSpanManager_PlaySpan(t *testing.T) {
	exporter := newRecordingTracer(t)
	mgr := NewSpanManager()

	ctx, span := mgr.StartPlaySpan(context.Background(), "camera", "run-1")
	mgr.AddSpanEvent(ctx, "paused", attribute.Int64("frame", 12))
	mgr.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	got := spans[0]
	assert.Equal(t, "pulseflow.play", got.Name)
	assert.Equal(t, codes.Ok, got.Status.Code)
	assert.Contains(t, got.Attributes, attribute.String("flow.name", "camera"))
	assert.Contains(t, got.Attributes, attribute.String("run.id", "run-1"))

	require.Len(t, got.Events, 1)
	assert.Equal(t, "paused", got.Events[0].Name)
}

// TestSpanManager_ErrorStatus verifies node faults are recorded on the
// span.
func TestSpanManager_ErrorStatus(t *testing.T) {
	exporter := newRecordingTracer(t)
	mgr := NewSpanManager()

	_, span := mgr.StartPlaySpan(context.Background(), "camera", "run-2")
	mgr.EndSpanWithError(span, errors.New("device lost"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "device lost", spans[0].Status.Description)
}

// TestSpanManager_NilSpan verifies ending a nil span is a no-op.
func TestSpanManager_NilSpan(t *testing.T) {
	mgr := NewSpanManager()
	assert.NotPanics(t, func() { mgr.EndSpanWithError(nil, nil) })
}

// TestSpanManager_EventWithoutSpan verifies events on a bare context
// are dropped silently.
func TestSpanManager_EventWithoutSpan(t *testing.T) {
	mgr := NewSpanManager()
	assert.NotPanics(t, func() {
		mgr.AddSpanEvent(context.Background(), "orphan")
	})
}
