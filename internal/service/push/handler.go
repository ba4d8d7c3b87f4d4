package push

import (
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/session"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// TokenParser 由 session.Issuer 实现
type TokenParser interface {
	Parse(token string) (session.Principal, error)
}

// Gateway 把 HTTP 请求升级为 websocket 并注册到 hub
type Gateway struct {
	hub      *Hub
	tokens   TokenParser
	upgrader websocket.Upgrader
}

// NewGateway allowedOrigins 为空时只允许同源
func NewGateway(hub *Hub, tokens TokenParser, allowedOrigins []string) *Gateway {
	g := &Gateway{hub: hub, tokens: tokens, upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[strings.TrimRight(o, "/")] = true
		}
		g.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
	return g
}

func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", g.serveWS)
}

// 浏览器的 websocket 不能带自定义头，所以也接受 ?token=
func tokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if c, err := r.Cookie(session.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		httpx.WriteError(w, r, session.ErrLoginRequired)
		return
	}
	p, err := g.tokens.Parse(token)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写了响应
		logger.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{hub: g.hub, conn: conn, send: make(chan []byte, 64), userID: p.UserID, admin: p.Role == session.RoleAdmin}
	if !g.hub.add(c) {
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
