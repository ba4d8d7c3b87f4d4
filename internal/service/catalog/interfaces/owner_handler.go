package interfaces

import (
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/session"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// 店主后台，店铺 id 一律取自会话，不信任请求参数
func (h *CatalogHandler) registerOwnerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/store/me", session.RequireStoreOwner(h.handleOwnerStore))
	mux.HandleFunc("GET /api/store/products", session.RequireStoreOwner(h.handleOwnerProducts))
	mux.HandleFunc("POST /api/store/products", session.RequireStoreOwner(h.handleSubmitProduct))
	mux.HandleFunc("POST /api/store/products/resubmit", session.RequireStoreOwner(h.handleResubmitProduct))
	mux.HandleFunc("PATCH /api/store/products/{id}/price", session.RequireStoreOwner(h.handleUpdatePrice))
	mux.HandleFunc("POST /api/store/products/{id}/stock", session.RequireStoreOwner(h.handleAdjustStock))
	mux.HandleFunc("GET /api/store/coupons", session.RequireStoreOwner(h.handleOwnerCoupons))
	mux.HandleFunc("POST /api/store/coupons", session.RequireStoreOwner(h.handleCreateStoreCoupon))
	mux.HandleFunc("PATCH /api/store/coupons/{id}/active", session.RequireStoreOwner(h.handleToggleStoreCoupon))
}

func (h *CatalogHandler) handleOwnerStore(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.OwnerStore(r.Context(), session.CurrentStoreID(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *CatalogHandler) handleOwnerProducts(w http.ResponseWriter, r *http.Request) {
	status, err := reviewStatusParam(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, pr := h.page(r)
	res, err := h.catalog.ListOwnerProducts(r.Context(), session.CurrentStoreID(r.Context()), status, pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

type submitProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	MRP           decimal.Decimal `json:"mrp"`
	Category      string          `json:"category"`
	Images        []string        `json:"images"`
	StockQuantity int             `json:"stockQuantity"`
}

func (h *CatalogHandler) handleSubmitProduct(w http.ResponseWriter, r *http.Request) {
	var req submitProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.SubmitProduct(r.Context(), session.CurrentStoreID(r.Context()), domain.NewProductInput(req))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "product submitted for review")
}

func (h *CatalogHandler) handleResubmitProduct(w http.ResponseWriter, r *http.Request) {
	var req resubmitRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.ResubmitProduct(r.Context(), session.CurrentStoreID(r.Context()), strings.TrimSpace(req.EntityID))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "product resubmitted for review")
}

func (h *CatalogHandler) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.inventory.UpdatePrice(r.Context(), session.CurrentStoreID(r.Context()), r.PathValue("id"), req.Price)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *CatalogHandler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation string `json:"operation"`
		Quantity  int    `json:"quantity"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.inventory.AdjustStock(r.Context(), session.CurrentStoreID(r.Context()), r.PathValue("id"),
		domain.StockOp(req.Operation), req.Quantity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *CatalogHandler) handleOwnerCoupons(w http.ResponseWriter, r *http.Request) {
	status, err := reviewStatusParam(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, pr := h.page(r)
	res, err := h.catalog.ListOwnerCoupons(r.Context(), session.CurrentStoreID(r.Context()), status, pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *CatalogHandler) handleCreateStoreCoupon(w http.ResponseWriter, r *http.Request) {
	var req discountBody
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.CreateStoreCoupon(r.Context(), session.CurrentStoreID(r.Context()), domain.NewStoreCouponInput{
		Code:        req.Code,
		Description: req.Description,
		Terms:       req.terms(),
		ForNewUser:  req.ForNewUser,
		ForMember:   req.ForMember,
		UsageLimit:  req.UsageLimit,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "coupon submitted for review")
}

func (h *CatalogHandler) handleToggleStoreCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.SetStoreCouponActive(r.Context(), session.CurrentStoreID(r.Context()), r.PathValue("id"), req.IsActive)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}
