package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogLevel(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "")
		assert.Equal(t, zerolog.InfoLevel, logLevel())
	})

	t.Run("honours LOG_LEVEL", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "DEBUG")
		assert.Equal(t, zerolog.DebugLevel, logLevel())
	})

	t.Run("unparseable level falls back to info", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "shouty")
		assert.Equal(t, zerolog.InfoLevel, logLevel())
	})
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	traceID, err := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	LoggerFromContext(ctx).Info().Msg("stage dispatched")

	assert.Contains(t, buf.String(), `"trace_id":"0af7651916cd43dd8448eb211c80319c"`)
	assert.Contains(t, buf.String(), `"span_id":"b7ad6b7169203331"`)

	buf.Reset()
	LoggerFromContext(context.Background()).Info().Msg("no active span")
	assert.NotContains(t, buf.String(), "trace_id")
}
