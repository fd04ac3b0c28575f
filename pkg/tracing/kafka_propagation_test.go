package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaderRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	headers := InjectKafkaHeaders(ctx, nil)
	assert.NotEmpty(t, headers)

	extracted := ExtractKafkaHeaders(context.Background(), headers)
	got := trace.SpanContextFromContext(extracted)
	want := span.SpanContext()

	assert.Equal(t, want.TraceID(), got.TraceID())
	assert.True(t, got.IsRemote())
}

func TestTraceparentEmptyWithoutSpan(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	assert.Empty(t, Traceparent(context.Background()))
}

func TestTraceparentCarriesActiveSpan(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "create-order")
	defer span.End()

	tpHeader := Traceparent(ctx)
	assert.Contains(t, tpHeader, span.SpanContext().TraceID().String())
}

func TestExtractIgnoresUnrelatedHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	ctx := ExtractKafkaHeaders(context.Background(), []kafka.Header{
		{Key: "event_type", Value: []byte("OrderCreated")},
	})
	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
}
