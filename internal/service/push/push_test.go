package push

import (
	"bazaar/internal/session"
	support "bazaar/internal/service/support/domain"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	hub      *Hub
	presence *RedisPresence
	issuer   *session.Issuer
	url      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	presence := NewRedisPresence(client, "node-a", time.Hour)
	hub := NewHub(presence)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	issuer := session.NewIssuer("test-secret-test-secret", time.Hour)
	mux := http.NewServeMux()
	NewGateway(hub, issuer, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &harness{hub: hub, presence: presence, issuer: issuer, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (h *harness) dial(t *testing.T, p session.Principal) *websocket.Conn {
	t.Helper()
	token, _, err := h.issuer.Issue(p)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(h.url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		nodes, _ := h.presence.Nodes(context.Background(), p.UserID)
		return len(nodes) == 1
	}, time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) support.ChatEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e support.ChatEvent
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestGateway_RoutesToOwnerAndAdmins(t *testing.T) {
	h := newHarness(t)
	alice := h.dial(t, session.Principal{UserID: "alice", Role: session.RoleShopper})
	bob := h.dial(t, session.Principal{UserID: "bob", Role: session.RoleShopper})
	admin := h.dial(t, session.Principal{UserID: "admin@bazaar.test", Role: session.RoleAdmin})

	require.NoError(t, h.hub.Publish(context.Background(), support.ChatEvent{
		Type: support.ChatMessageCreated, ConversationID: "c1", UserID: "alice", Sender: support.SideAdmin, Body: "hi",
	}))

	got := readEvent(t, alice)
	assert.Equal(t, "c1", got.ConversationID)
	assert.Equal(t, "hi", got.Body)
	assert.Equal(t, "alice", readEvent(t, admin).UserID)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob must not see alice's conversation")
}

func TestGateway_RejectsMissingOrBadToken(t *testing.T) {
	h := newHarness(t)

	_, resp, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(h.url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_DisconnectClearsPresence(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, session.Principal{UserID: "carol", Role: session.RoleShopper})

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		nodes, _ := h.presence.Nodes(context.Background(), "carol")
		return len(nodes) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatEventHandler(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, session.Principal{UserID: "dave", Role: session.RoleShopper})
	handle := NewChatEventHandler(h.hub)

	body, err := json.Marshal(support.ChatEvent{Type: support.ChatClosed, ConversationID: "c9", UserID: "dave"})
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), kafka.Message{Value: body}))
	assert.Equal(t, support.ChatClosed, readEvent(t, conn).Type)

	assert.Error(t, handle(context.Background(), kafka.Message{Value: []byte("nope")}))
}
