package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestPostJSON_PropagatesTraceAndBody(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var (
		gotTrace string
		gotBody  map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get("traceparent")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(tp.Tracer("test"))
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	require.NoError(t, c.PostJSON(ctx, srv.URL+"/send", map[string]string{"to": "a@example.com"}))
	assert.Contains(t, gotTrace, span.SpanContext().TraceID().String())
	assert.Equal(t, "a@example.com", gotBody["to"])
}

func TestPostJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(sdktrace.NewTracerProvider().Tracer("test"))
	err := c.PostJSON(context.Background(), srv.URL, struct{}{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.True(t, se.Retryable())
	assert.Contains(t, se.Body, "quota exceeded")
}
