package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	require.NotNil(t, span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "test.operation", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation",
		telemetry.WithAttribute("vendor", "Acme"),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, "Acme", attrMap(spans[0].Attributes())["vendor"].AsString())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "purchase_order", "receive_item")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "purchase_order.receive_item", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	orderID := uuid.New()

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID,
		telemetry.SpanAttrQuantity, 12,
		"int64", int64(100),
		"ratio", 0.5,
		"paid", true,
		"tags", []string{"a", "b"},
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderStatus, "IN_PROGRESS")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, orderID.String(), attrs["order_id"].AsString())
	assert.Equal(t, int64(12), attrs["quantity"].AsInt64())
	assert.Equal(t, int64(100), attrs["int64"].AsInt64())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.True(t, attrs["paid"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["tags"].AsStringSlice())
	assert.Equal(t, "IN_PROGRESS", attrs["order_status"].AsString())
}

func TestSetAttributes_SkipsMalformedPairs(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetAttributes(span,
		"valid_key", "value",
		123, "skipped",
		"orphan_key",
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Attributes(), 1)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.RecordError(span, errors.New("over receipt"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "over receipt", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "test.operation")
	telemetry.AddEvent(span, "payment_recorded", telemetry.SpanAttrAmount, "25.00")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	event := spans[0].Events()[0]
	assert.Equal(t, "payment_recorded", event.Name)
	assert.Equal(t, "25.00", attrMap(event.Attributes)["amount"].AsString())
}

func TestGetTraceAndSpanID(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "test.operation")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.GetSpanID(ctx))
}

func TestNestedSpans(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "parent.operation")
	_, child := telemetry.StartSpan(ctx, "child.operation")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "child.operation", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "key", "value")
		telemetry.SetAttribute(nil, "key", "value")
		telemetry.RecordError(nil, errors.New("boom"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "event_name", "key", "value")
	})
}
