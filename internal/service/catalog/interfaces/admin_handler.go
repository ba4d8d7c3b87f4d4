package interfaces

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/session"
	"net/http"
	"strings"
)

func (h *CatalogHandler) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/summary", session.RequireAdmin(h.handleSummary))
	mux.HandleFunc("GET /api/admin/stores", session.RequireAdmin(h.handleAdminStores))
	mux.HandleFunc("POST /api/admin/stores/review", session.RequireAdmin(h.handleReviewStore))
	mux.HandleFunc("POST /api/admin/stores/suspend", session.RequireAdmin(h.handleSuspendStore))
	mux.HandleFunc("POST /api/admin/stores/reinstate", session.RequireAdmin(h.handleReinstateStore))
	mux.HandleFunc("GET /api/admin/products", session.RequireAdmin(h.handleAdminProducts))
	mux.HandleFunc("POST /api/admin/products/review", session.RequireAdmin(h.handleReviewProduct))
	mux.HandleFunc("GET /api/admin/store-coupons", session.RequireAdmin(h.handleAdminStoreCoupons))
	mux.HandleFunc("POST /api/admin/store-coupons/review", session.RequireAdmin(h.handleReviewStoreCoupon))
	mux.HandleFunc("GET /api/admin/coupons", session.RequireAdmin(h.handleAdminCoupons))
	mux.HandleFunc("POST /api/admin/coupons", session.RequireAdmin(h.handleCreateCoupon))
	mux.HandleFunc("PATCH /api/admin/coupons/{code}/active", session.RequireAdmin(h.handleToggleCoupon))
}

func (h *CatalogHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.catalog.AdminSummary(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, sum)
}

func (h *CatalogHandler) handleAdminStores(w http.ResponseWriter, r *http.Request) {
	status := domain.StoreStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.StoreStatusPending, domain.StoreStatusApproved, domain.StoreStatusRejected, domain.StoreStatusSuspended:
	default:
		httpx.WriteError(w, r, apperr.Validation("invalid_status_filter", "unknown store status"))
		return
	}
	p, pr := h.page(r)
	res, err := h.catalog.ListStores(r.Context(), domain.StoreFilter{
		Status: status,
		Search: r.URL.Query().Get("search"),
		Offset: pr.Offset,
		Limit:  pr.Limit,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *CatalogHandler) handleReviewStore(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.ReviewStore(r.Context(), req.entityID(), req.Status, req.note())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "store "+string(v.Status))
}

func (h *CatalogHandler) handleSuspendStore(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.SuspendStore(r.Context(), req.entityID())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "store suspended")
}

func (h *CatalogHandler) handleReinstateStore(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.ReinstateStore(r.Context(), req.entityID())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "store reinstated")
}

func (h *CatalogHandler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	status, err := reviewStatusParam(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, pr := h.page(r)
	res, err := h.catalog.ListProducts(r.Context(), domain.ProductFilter{
		StoreID:  r.URL.Query().Get("storeId"),
		Status:   status,
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Offset:   pr.Offset,
		Limit:    pr.Limit,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *CatalogHandler) handleReviewProduct(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.ReviewProduct(r.Context(), req.entityID(), req.Status, session.FromContext(r.Context()).UserID, req.note())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "product "+string(v.Status))
}

func (h *CatalogHandler) handleAdminStoreCoupons(w http.ResponseWriter, r *http.Request) {
	status, err := reviewStatusParam(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, pr := h.page(r)
	res, err := h.catalog.ListStoreCoupons(r.Context(), domain.StoreCouponFilter{
		StoreID: r.URL.Query().Get("storeId"),
		Status:  status,
		Offset:  pr.Offset,
		Limit:   pr.Limit,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *CatalogHandler) handleReviewStoreCoupon(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.workflow.ReviewStoreCoupon(r.Context(), req.entityID(), req.Status, session.FromContext(r.Context()).UserID, req.note())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, "coupon "+string(v.Status))
}

func (h *CatalogHandler) handleAdminCoupons(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.coupons.ListPlatformCoupons(r.Context(), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

type createCouponRequest struct {
	discountBody
	IsPublic bool   `json:"isPublic"`
	Audience string `json:"audience"`
}

func (h *CatalogHandler) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.coupons.CreatePlatformCoupon(r.Context(), domain.NewCouponInput{
		Code:        req.Code,
		Description: req.Description,
		Terms:       req.terms(),
		ForNewUser:  req.ForNewUser,
		ForMember:   req.ForMember,
		IsPublic:    req.IsPublic,
		Audience:    req.Audience,
		UsageLimit:  req.UsageLimit,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "coupon created")
}

func (h *CatalogHandler) handleToggleCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.coupons.SetPlatformCouponActive(r.Context(), r.PathValue("code"), req.IsActive); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"code": strings.ToUpper(r.PathValue("code")), "isActive": req.IsActive})
}
