package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNoopImplementations verifies the disabled-path implementations
// are inert and safe.
func TestNoopImplementations(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m := NoopMetrics{}
		m.RecordFrame(ctx, "f", time.Millisecond, 1)
		m.RecordOverrun(ctx, "f")
		m.RecordPlay(ctx, "f", true, time.Second, 10)
	})

	assert.NotPanics(t, func() {
		s := NoopSpanManager{}
		spanCtx, span := s.StartPlaySpan(ctx, "f", "r")
		assert.Equal(t, ctx, spanCtx)
		s.AddSpanEvent(spanCtx, "event")
		s.EndSpanWithError(span, errors.New("ignored"))
	})
}
