package application

import (
	"bazaar/internal/service/notification/domain"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubRenderer struct{}

func (stubRenderer) Render(e domain.Event) (domain.Email, error) {
	if e.Type != domain.ContactReply {
		return domain.Email{}, domain.ErrUnknownEventType
	}
	return domain.Email{To: e.To, Subject: "re", Body: e.Data["reply"]}, nil
}

type flakyMailer struct {
	mu    sync.Mutex
	fails []error
	sent  []domain.Email
	calls int
}

func (m *flakyMailer) Send(_ context.Context, e domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.fails) > 0 {
		err := m.fails[0]
		m.fails = m.fails[1:]
		return err
	}
	m.sent = append(m.sent, e)
	return nil
}

func newDeliverer(m *flakyMailer) *Deliverer {
	return NewDeliverer(stubRenderer{}, m, noop.NewTracerProvider().Tracer("test")).WithRetry(3, time.Millisecond)
}

func replyEvent() domain.Event {
	return domain.Event{ID: "evt-1", Type: domain.ContactReply, To: "a@example.com", Data: map[string]string{"reply": "hello"}}
}

func TestDeliver_RetriesTransientFailures(t *testing.T) {
	m := &flakyMailer{fails: []error{errors.New("conn reset"), errors.New("timeout")}}

	require.NoError(t, newDeliverer(m).Deliver(context.Background(), replyEvent()))
	assert.Equal(t, 3, m.calls)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "hello", m.sent[0].Body)
}

func TestDeliver_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("gateway down")
	m := &flakyMailer{fails: []error{boom, boom, boom, boom}}

	err := newDeliverer(m).Deliver(context.Background(), replyEvent())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, m.calls)
}

func TestDeliver_PermanentFailureIsNotRetried(t *testing.T) {
	m := &flakyMailer{fails: []error{&domain.PermanentError{Err: errors.New("400 bad address")}}}

	err := newDeliverer(m).Deliver(context.Background(), replyEvent())
	var perm *domain.PermanentError
	assert.ErrorAs(t, err, &perm)
	assert.Equal(t, 1, m.calls)
}

func TestDeliver_InvalidEvents(t *testing.T) {
	m := &flakyMailer{}
	d := newDeliverer(m)

	err := d.Deliver(context.Background(), domain.Event{ID: "x", Type: domain.ContactReply})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	err = d.Deliver(context.Background(), domain.Event{ID: "y", Type: "digest", To: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrUnknownEventType)
	assert.Zero(t, m.calls)
}
