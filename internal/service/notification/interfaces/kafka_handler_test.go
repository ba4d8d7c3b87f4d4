package interfaces

import (
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/notification/application"
	"bazaar/internal/service/notification/domain"
	"bazaar/internal/service/notification/infrastructure"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type gateway struct {
	mu     sync.Mutex
	status int
	got    []domain.Email
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var e domain.Email
	_ = json.NewDecoder(r.Body).Decode(&e)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.got = append(g.got, e)
	w.WriteHeader(g.status)
}

func newHandler(t *testing.T, g *gateway) mq.HandlerFunc {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	tracer := noop.NewTracerProvider().Tracer("test")
	renderer, err := infrastructure.NewTemplateRenderer("no-reply@bazaar.test")
	require.NoError(t, err)
	mailer := infrastructure.NewHTTPMailer(httpclient.NewClient(tracer), srv.URL+"/v1/send")
	return NewEventHandler(application.NewDeliverer(renderer, mailer, tracer).WithRetry(2, time.Millisecond))
}


func message(t *testing.T, e domain.Event) kafka.Message {
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Topic: "notifications", Key: []byte(e.To), Value: body}
}

func TestEventHandler_SendsThroughGateway(t *testing.T) {
	g := &gateway{status: http.StatusAccepted}
	handle := newHandler(t, g)

	err := handle(context.Background(), message(t, domain.Event{
		ID: "evt-1", Type: domain.StoreRejected, To: "owner@example.com", Name: "Corner Books",
		Data: map[string]string{"reason": "incomplete profile"},
	}))
	require.NoError(t, err)
	require.Len(t, g.got, 1)
	assert.Equal(t, "owner@example.com", g.got[0].To)
	assert.Equal(t, "no-reply@bazaar.test", g.got[0].From)
	assert.Contains(t, g.got[0].Body, "incomplete profile")
}

func TestEventHandler_ClientErrorIsPermanent(t *testing.T) {
	g := &gateway{status: http.StatusUnprocessableEntity}
	handle := newHandler(t, g)

	err := handle(context.Background(), message(t, domain.Event{ID: "evt-2", Type: domain.ContactReply, To: "bad"}))
	var perm *domain.PermanentError
	assert.ErrorAs(t, err, &perm)
	assert.Len(t, g.got, 1)
}

func TestEventHandler_ServerErrorIsRetried(t *testing.T) {
	g := &gateway{status: http.StatusBadGateway}
	handle := newHandler(t, g)

	err := handle(context.Background(), message(t, domain.Event{ID: "evt-3", Type: domain.ContactReply, To: "a@example.com"}))
	require.Error(t, err)
	assert.Len(t, g.got, 2)
}

func TestEventHandler_BadPayload(t *testing.T) {
	handle := newHandler(t, &gateway{status: http.StatusOK})
	err := handle(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.ErrorContains(t, err, "decode notification event")
}

func TestDeadLetterHandler_AlwaysAcknowledges(t *testing.T) {
	handle := NewDeadLetterHandler()
	assert.NoError(t, handle(context.Background(), kafka.Message{Key: []byte("k"), Value: []byte("v")}))
}
