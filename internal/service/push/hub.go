// Package push 是 push-gateway 的核心：维护本节点的 websocket 连接，把聊天事件推给在线的顾客和管理员。
package push

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	support "bazaar/internal/service/support/domain"
	"context"
	"encoding/json"
	"errors"
)

// ErrHubStopped hub 的事件循环已经退出
var ErrHubStopped = errors.New("push hub stopped")

// Presence 记录用户连接在哪些网关节点上
type Presence interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

// Hub 所有连接的注册、注销和事件路由都在 Run 的单个 goroutine 里完成
type Hub struct {
	presence Presence

	register   chan *Client
	unregister chan *Client
	events     chan support.ChatEvent
	done       chan struct{}

	// userID -> 该用户在本节点上的所有连接（多标签页）
	users  map[string]map[*Client]struct{}
	admins map[*Client]struct{}
}

func NewHub(presence Presence) *Hub {
	return &Hub{
		presence:   presence,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan support.ChatEvent, 256),
		done:       make(chan struct{}),
		users:      make(map[string]map[*Client]struct{}),
		admins:     make(map[*Client]struct{}),
	}
}

// Run 阻塞直到 ctx 取消，退出时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	log := logger.Ctx(ctx)
	for {
		select {
		case <-ctx.Done():
			cleanup := context.WithoutCancel(ctx)
			for c := range h.admins {
				h.drop(cleanup, c)
			}
			for _, set := range h.users {
				for c := range set {
					h.drop(cleanup, c)
				}
			}
			log.Info().Msg("push hub stopped")
			return

		case c := <-h.register:
			if c.admin {
				h.admins[c] = struct{}{}
			} else {
				set, ok := h.users[c.userID]
				if !ok {
					set = make(map[*Client]struct{})
					h.users[c.userID] = set
				}
				set[c] = struct{}{}
			}
			metrics.PushConnections.Inc()
			if err := h.presence.Online(ctx, c.userID); err != nil {
				log.Warn().Err(err).Str("user_id", c.userID).Msg("failed to record presence")
			}
			log.Debug().Str("user_id", c.userID).Bool("admin", c.admin).Msg("client registered")

		case c := <-h.unregister:
			h.drop(ctx, c)

		case e := <-h.events:
			h.route(ctx, e)
		}
	}
}

// drop 注销连接；同一连接可能既被 readPump 注销又因缓冲区满被踢掉，只处理一次
func (h *Hub) drop(ctx context.Context, c *Client) {
	if c.admin {
		if _, ok := h.admins[c]; !ok {
			return
		}
		delete(h.admins, c)
	} else {
		set := h.users[c.userID]
		if _, ok := set[c]; !ok {
			return
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
	close(c.send)
	metrics.PushConnections.Dec()
	if err := h.presence.Offline(ctx, c.userID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", c.userID).Msg("failed to clear presence")
	}
}

// route 会话所属顾客的所有连接 + 全部管理员
func (h *Hub) route(ctx context.Context, e support.ChatEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to encode chat event")
		return
	}
	for c := range h.users[e.UserID] {
		h.push(ctx, c, payload)
	}
	for c := range h.admins {
		h.push(ctx, c, payload)
	}
}

// push 不阻塞 hub：客户端跟不上就断开它，让它重连后通过 HTTP 补拉
func (h *Hub) push(ctx context.Context, c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		logger.Ctx(ctx).Warn().Str("user_id", c.userID).Msg("client too slow, disconnecting")
		h.drop(ctx, c)
	}
}

// Publish 把事件交给 hub 路由
func (h *Hub) Publish(ctx context.Context, e support.ChatEvent) error {
	select {
	case h.events <- e:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
