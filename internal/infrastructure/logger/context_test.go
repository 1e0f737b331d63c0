package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	t.Run("returns nop when absent", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("returns stored logger", func(t *testing.T) {
		l := zap.NewExample()
		ctx := WithContext(context.Background(), l)
		assert.Same(t, l, FromContext(ctx))
	})
}

func TestRequestAndTenantIDs(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTenantID(ctx, "shop-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "shop-1", GetTenantID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetTenantID(context.Background()))
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(spanContext(t)))
}

func TestL_InjectsCorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(spanContext(t), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithTenantID(ctx, "shop-7")

	L(ctx).Info("received", zap.Int("qty", 3))

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "shop-7", fields["tenant_id"])
	assert.EqualValues(t, 3, fields["qty"])
}

func TestFor_NilBase(t *testing.T) {
	assert.NotPanics(t, func() {
		For(context.Background(), nil).Info("ignored")
	})
}
