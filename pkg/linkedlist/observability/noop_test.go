package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordAlloc(ctx, 8, true)
		m.RecordFree(ctx, 8)
		m.RecordOp(ctx, "size", time.Millisecond, errors.New("x"))
		m.RecordScript(ctx, false, time.Second)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := sm.StartScriptSpan(ctx, "s", "r")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = sm.StartStepSpan(ctx, 1, "size")
	assert.Equal(t, ctx, got)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e")
	})
}
