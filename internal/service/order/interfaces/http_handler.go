package interfaces

import (
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/order/application"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/session"
	"net/http"
)

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	orders       *application.Orders
	defaultLimit int
	maxLimit     int
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(orders *application.Orders, defaultLimit, maxLimit int) *OrderHandler {
	return &OrderHandler{orders: orders, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", session.RequireShopper(h.handlePlace))
	mux.HandleFunc("GET /api/orders", session.RequireShopper(h.handleListMine))
	mux.HandleFunc("GET /api/orders/{id}", session.RequireShopper(h.handleGetMine))
	mux.HandleFunc("POST /api/orders/{id}/cancel", session.RequireShopper(h.handleCancel))

	mux.HandleFunc("GET /api/store/orders", session.RequireStoreOwner(h.handleListStore))
	mux.HandleFunc("POST /api/store/orders/{id}/status", session.RequireStoreOwner(h.handleUpdateStatus))
}

func (h *OrderHandler) page(r *http.Request) (httpx.Page, application.PageRequest) {
	p := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	return p, application.PageRequest{Offset: p.Offset(), Limit: p.Limit}
}

func paged(p httpx.Page, res application.Page[application.OrderView]) httpx.Paged[application.OrderView] {
	return httpx.Paged[application.OrderView]{Items: res.Items, Total: res.Total, Page: p.Page, Limit: p.Limit}
}

func (h *OrderHandler) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req application.PlaceOrderInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.orders.PlaceOrder(r.Context(), session.FromContext(r.Context()).UserID, req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "order placed")
}

func (h *OrderHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.orders.ListMyOrders(r.Context(), session.FromContext(r.Context()).UserID,
		domain.Status(r.URL.Query().Get("status")), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *OrderHandler) handleGetMine(w http.ResponseWriter, r *http.Request) {
	v, err := h.orders.GetMyOrder(r.Context(), session.FromContext(r.Context()).UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	v, err := h.orders.CancelOrder(r.Context(), session.FromContext(r.Context()).UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "order cancelled")
}

func (h *OrderHandler) handleListStore(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.orders.ListStoreOrders(r.Context(), session.CurrentStoreID(r.Context()),
		domain.Status(r.URL.Query().Get("status")), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.orders.UpdateStatus(r.Context(), session.CurrentStoreID(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}
