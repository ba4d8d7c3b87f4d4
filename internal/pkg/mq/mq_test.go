package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) snapshot() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type fakeReader struct {
	ch        chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestKafkaHeaderCarrier(t *testing.T) {
	c := KafkaHeaderCarrier{}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "k=v")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
}

func TestProduceMessage_PropagatesTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "producer")
	defer span.End()

	w := &fakeWriter{}
	require.NoError(t, ProduceMessage(ctx, w, []byte("k"), []byte("v")))
	msgs := w.snapshot()
	require.Len(t, msgs, 1)

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), msgs[0].Headers))
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
}

func TestDeadLetter_Headers(t *testing.T) {
	msg := kafka.Message{Topic: "orders", Partition: 2, Offset: 41, Key: []byte("k"), Value: []byte("v")}
	dl := DeadLetter(msg, errors.New("bad payload"))

	h := HeaderMap(dl.Headers)
	assert.Equal(t, "orders", h[HeaderOriginalTopic])
	assert.Equal(t, "2", h[HeaderOriginalPartition])
	assert.Equal(t, "41", h[HeaderOriginalOffset])
	assert.Equal(t, "bad payload", h[HeaderExceptionMessage])
	assert.Equal(t, []byte("v"), dl.Value)
	assert.Empty(t, dl.Topic)
}

func TestConsumer_FailedMessageGoesToDLTAndIsCommitted(t *testing.T) {
	reader := &fakeReader{ch: make(chan kafka.Message, 2)}
	dlt := &fakeWriter{}

	c := NewConsumer("test", reader, func(ctx context.Context, msg kafka.Message) error {
		if string(msg.Value) == "poison" {
			return errors.New("cannot handle")
		}
		return nil
	}, NewFailureHandler(dlt))
	c.Start(context.Background())

	reader.ch <- kafka.Message{Offset: 1, Value: []byte("ok")}
	reader.ch <- kafka.Message{Offset: 2, Value: []byte("poison")}

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 2 }, time.Second, 5*time.Millisecond)
	c.Stop()

	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
	dead := dlt.snapshot()
	require.Len(t, dead, 1)
	assert.Equal(t, []byte("poison"), dead[0].Value)
}
