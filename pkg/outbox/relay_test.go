package outbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeStore struct {
	events []Event
	sent   []int64
	failed map[int64]string
}

func (f *fakeStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	batch := f.events
	f.events = nil
	return batch, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, ids []int64) error {
	f.sent = append(f.sent, ids...)
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	if f.failed == nil {
		f.failed = make(map[int64]string)
	}
	f.failed[id] = errMsg
	return nil
}

func (f *fakeStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	return nil
}

type fakeProducer struct {
	messages []kafka.Message
	failKeys map[string]error
}

func (f *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if err, ok := f.failKeys[string(m.Key)]; ok {
			return err
		}
		f.messages = append(f.messages, m)
	}
	return nil
}

func TestDispatchBuildsMessage(t *testing.T) {
	producer := &fakeProducer{}
	d := NewDispatcher(slog.Default(), producer, "order.events")

	event := Event{
		ID:          1,
		AggregateID: "42",
		Type:        "OrderCreated",
		Payload:     []byte(`{"order_id":42}`),
		Headers:     map[string]string{"source": "market"},
		Traceparent: "00-abc-def-01",
	}
	require.NoError(t, d.Dispatch(context.Background(), event))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "order.events", msg.Topic)
	assert.Equal(t, []byte("42"), msg.Key)
	assert.Equal(t, event.Payload, msg.Value)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "OrderCreated", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
	assert.Equal(t, "market", headers["source"])
}

func TestDispatchPropagatesActiveSpanWithoutStoredTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "relay")
	defer span.End()

	producer := &fakeProducer{}
	d := NewDispatcher(slog.Default(), producer, "order.events")

	event := Event{ID: 1, AggregateID: "42", Type: "OrderCreated"}
	require.NoError(t, d.Dispatch(ctx, event))
	require.Len(t, producer.messages, 1)

	headers := make(map[string]string)
	for _, h := range producer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Contains(t, headers["traceparent"], span.SpanContext().TraceID().String())
}

func TestRelayDrainMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{events: []Event{
		{ID: 1, AggregateID: "1", Type: "OrderCreated"},
		{ID: 2, AggregateID: "2", Type: "OrderCancelled"},
		{ID: 3, AggregateID: "3", Type: "OrderCreated"},
	}}
	producer := &fakeProducer{failKeys: map[string]error{"2": errors.New("broker unavailable")}}
	relay := NewRelay(slog.Default(), store, NewDispatcher(slog.Default(), producer, "order.events"), "relay-test")

	relay.drain(context.Background())

	assert.Equal(t, []int64{1, 3}, store.sent)
	require.Contains(t, store.failed, int64(2))
	assert.Contains(t, store.failed[2], "broker unavailable")
	assert.Len(t, producer.messages, 2)
}

func TestRelayDrainNoEvents(t *testing.T) {
	store := &fakeStore{}
	producer := &fakeProducer{}
	relay := NewRelay(slog.Default(), store, NewDispatcher(slog.Default(), producer, "order.events"), "relay-test")

	relay.drain(context.Background())

	assert.Empty(t, store.sent)
	assert.Empty(t, producer.messages)
}

func TestRelayRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	relay := NewRelay(slog.Default(), store, NewDispatcher(slog.Default(), &fakeProducer{}, "order.events"), "relay-test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
