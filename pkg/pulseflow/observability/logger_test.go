package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a JSON logger and a function decoding the last
// emitted record into a map.
func captureLogger(t *testing.T) (*slog.Logger, func() map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return logger, func() map[string]any {
		t.Helper()
		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.NotEmpty(t, lines)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
		return rec
	}
}

// TestEnrichLogger verifies the flow context fields are attached.
func TestEnrichLogger(t *testing.T) {
	logger, last := captureLogger(t)

	enriched := EnrichLogger(logger, "camera", "run-1")
	enriched.Info("hello")

	rec := last()
	assert.Equal(t, "camera", rec["flow"])
	assert.Equal(t, "run-1", rec["run_id"])
}

// TestEnrichLogger_Nil verifies nil in, nil out.
func TestEnrichLogger_Nil(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "camera", "run-1"))
}

// TestLogPlayComplete verifies the completion record's fields.
func TestLogPlayComplete(t *testing.T) {
	logger, last := captureLogger(t)

	LogPlayComplete(logger, "camera", "run-1", 120, 29.8, 4023.5)

	rec := last()
	assert.Equal(t, "play cycle completed", rec["msg"])
	assert.Equal(t, "camera", rec["flow"])
	assert.Equal(t, float64(120), rec["frames"])
	assert.Equal(t, 29.8, rec["avg_fps"])
}

// TestLogPlayError verifies errors log at error level with the message.
func TestLogPlayError(t *testing.T) {
	logger, last := captureLogger(t)

	LogPlayError(logger, "camera", "run-1", errors.New("device lost"), 17.0)

	rec := last()
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "device lost", rec["error"])
}

// TestLogFrameOverrun verifies the overrun is reported in milliseconds.
func TestLogFrameOverrun(t *testing.T) {
	logger, last := captureLogger(t)

	LogFrameOverrun(logger, "camera", 42, 1500*time.Microsecond)

	rec := last()
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, float64(42), rec["frame"])
	assert.Equal(t, 1.5, rec["overrun_ms"])
}

// TestLogHelpers_NilLogger verifies every helper tolerates a nil logger.
func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogPlayStart(nil, "f", "r", 30)
		LogPlayComplete(nil, "f", "r", 1, 1, 1)
		LogPlayError(nil, "f", "r", errors.New("x"), 1)
		LogStateChange(nil, "f", "Stopped", "Playing")
		LogFrameOverrun(nil, "f", 1, time.Millisecond)
		LogFlowCreated(nil, "f", "realtime")
		LogSessionShutdown(nil, 3)
	})
}

// TestTimedOperation verifies the returned closure measures elapsed
// milliseconds.
func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed(), 5.0)
}
