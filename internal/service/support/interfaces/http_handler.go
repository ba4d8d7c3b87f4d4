package interfaces

import (
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/support/application"
	"bazaar/internal/service/support/domain"
	"bazaar/internal/session"
	"net/http"
)

// SupportHandler 联系表单和客服会话的 HTTP 处理器
type SupportHandler struct {
	contacts     *application.Contacts
	chat         *application.Chat
	defaultLimit int
	maxLimit     int
}

func NewSupportHandler(contacts *application.Contacts, chat *application.Chat, defaultLimit, maxLimit int) *SupportHandler {
	return &SupportHandler{contacts: contacts, chat: chat, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *SupportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/contact", h.handleSubmitContact)

	mux.HandleFunc("POST /api/support/conversations", session.RequireShopper(h.handleOpen))
	mux.HandleFunc("GET /api/support/conversations", session.RequireShopper(h.handleListConversations))
	mux.HandleFunc("GET /api/support/conversations/{id}/messages", session.RequireShopper(h.handleListMessages))
	mux.HandleFunc("POST /api/support/conversations/{id}/messages", session.RequireShopper(h.handleSend))
	mux.HandleFunc("POST /api/support/conversations/{id}/read", session.RequireShopper(h.handleRead))
	mux.HandleFunc("POST /api/support/conversations/{id}/close", session.RequireShopper(h.handleClose))

	mux.HandleFunc("GET /api/admin/contacts", session.RequireAdmin(h.handleListContacts))
	mux.HandleFunc("GET /api/admin/contacts/summary", session.RequireAdmin(h.handleContactSummary))
	mux.HandleFunc("POST /api/admin/contacts/{id}/reply", session.RequireAdmin(h.handleReplyContact))
	mux.HandleFunc("POST /api/admin/contacts/{id}/close", session.RequireAdmin(h.handleCloseContact))

	mux.HandleFunc("GET /api/admin/conversations", session.RequireAdmin(h.handleListConversations))
	mux.HandleFunc("GET /api/admin/conversations/{id}/messages", session.RequireAdmin(h.handleListMessages))
	mux.HandleFunc("POST /api/admin/conversations/{id}/messages", session.RequireAdmin(h.handleSend))
	mux.HandleFunc("POST /api/admin/conversations/{id}/read", session.RequireAdmin(h.handleRead))
	mux.HandleFunc("POST /api/admin/conversations/{id}/close", session.RequireAdmin(h.handleClose))
}

// actor 管理员以客服身份出现，其他角色都是顾客一方
func actor(r *http.Request) application.Actor {
	p := session.FromContext(r.Context())
	if p.Role == session.RoleAdmin {
		return application.Actor{UserID: p.UserID, Side: domain.SideAdmin}
	}
	return application.Actor{UserID: p.UserID, Side: domain.SideShopper}
}

func (h *SupportHandler) page(r *http.Request) (httpx.Page, application.PageRequest) {
	p := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	return p, application.PageRequest{Offset: p.Offset(), Limit: p.Limit}
}

func paged[T any](p httpx.Page, res application.Page[T]) httpx.Paged[T] {
	return httpx.Paged[T]{Items: res.Items, Total: res.Total, Page: p.Page, Limit: p.Limit}
}

func (h *SupportHandler) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req application.ContactInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.contacts.Submit(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "thanks, we will get back to you soon")
}

func (h *SupportHandler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.contacts.List(r.Context(), domain.ContactStatus(r.URL.Query().Get("status")), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *SupportHandler) handleContactSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.contacts.Summary(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, counts)
}

func (h *SupportHandler) handleReplyContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reply string `json:"reply"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.contacts.Reply(r.Context(), r.PathValue("id"), session.FromContext(r.Context()).UserID, req.Reply)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "reply sent")
}

func (h *SupportHandler) handleCloseContact(w http.ResponseWriter, r *http.Request) {
	v, err := h.contacts.Close(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *SupportHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.chat.OpenConversation(r.Context(), session.FromContext(r.Context()).UserID, req.Subject, req.Message)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "conversation opened")
}

func (h *SupportHandler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.chat.ListConversations(r.Context(), actor(r), domain.ConversationStatus(r.URL.Query().Get("status")), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *SupportHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.chat.ListMessages(r.Context(), actor(r), r.PathValue("id"), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *SupportHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.chat.SendMessage(r.Context(), actor(r), r.PathValue("id"), req.Body)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "message sent")
}

func (h *SupportHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.chat.MarkRead(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, map[string]int64{"marked": n})
}

func (h *SupportHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	v, err := h.chat.CloseConversation(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}
