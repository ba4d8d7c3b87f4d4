package interfaces

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/catalog/application"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/session"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogHandler 封装了店铺、商品和优惠券相关的全部 HTTP 接口
type CatalogHandler struct {
	workflow  *application.Workflow
	inventory *application.Inventory
	catalog   *application.Catalog
	coupons   *application.Coupons
	accounts  *application.StoreAccounts

	defaultLimit int
	maxLimit     int
	secureCookie bool
}

// Services 处理器依赖的应用服务
type Services struct {
	Workflow  *application.Workflow
	Inventory *application.Inventory
	Catalog   *application.Catalog
	Coupons   *application.Coupons
	Accounts  *application.StoreAccounts
}

// NewCatalogHandler 创建一个新的 HTTP 处理器实例
func NewCatalogHandler(s Services, defaultLimit, maxLimit int, secureCookie bool) *CatalogHandler {
	return &CatalogHandler{
		workflow: s.Workflow, inventory: s.Inventory, catalog: s.Catalog, coupons: s.Coupons, accounts: s.Accounts,
		defaultLimit: defaultLimit, maxLimit: maxLimit, secureCookie: secureCookie,
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	// 公开接口
	mux.HandleFunc("POST /api/admin/login", h.handleAdminLogin)
	mux.HandleFunc("POST /api/store/login", h.handleStoreLogin)
	mux.HandleFunc("POST /api/store/password/forgot", h.handleForgotPassword)
	mux.HandleFunc("POST /api/store/password/reset", h.handleResetPassword)
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /api/categories", h.handleCategories)
	mux.HandleFunc("GET /api/stores/{username}", h.handleGetStore)
	mux.HandleFunc("GET /api/coupons", h.handleAvailableCoupons)

	// 顾客
	mux.HandleFunc("POST /api/store/apply", session.RequireShopper(h.handleApplyForStore))
	mux.HandleFunc("POST /api/coupons/apply", session.RequireShopper(h.handleApplyCoupon))

	h.registerOwnerRoutes(mux)
	h.registerAdminRoutes(mux)
}

func (h *CatalogHandler) page(r *http.Request) (httpx.Page, application.PageRequest) {
	p := httpx.ParsePage(r, h.defaultLimit, h.maxLimit)
	return p, application.PageRequest{Offset: p.Offset(), Limit: p.Limit}
}

func paged[T any](p httpx.Page, res application.Page[T]) httpx.Paged[T] {
	return httpx.Paged[T]{Items: res.Items, Total: res.Total, Page: p.Page, Limit: p.Limit}
}

func reviewStatusParam(r *http.Request) (domain.ReviewStatus, error) {
	s := domain.ReviewStatus(r.URL.Query().Get("status"))
	switch s {
	case "", domain.ReviewPending, domain.ReviewApproved, domain.ReviewRejected:
		return s, nil
	}
	return "", apperr.Validation("invalid_status_filter", "status must be pending, approved or rejected")
}

// entityRequest 审核和状态变更的请求体: {entityId, status, reason}。
// 也接受 id / storeId / productId / couponId 和 adminNote 的写法
type entityRequest struct {
	EntityID  string `json:"entityId"`
	ID        string `json:"id"`
	StoreID   string `json:"storeId"`
	ProductID string `json:"productId"`
	CouponID  string `json:"couponId"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	AdminNote string `json:"adminNote"`
}

func (e entityRequest) entityID() string {
	for _, id := range []string{e.EntityID, e.ID, e.StoreID, e.ProductID, e.CouponID} {
		if id != "" {
			return id
		}
	}
	return ""
}

func (e entityRequest) note() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.AdminNote
}

// resubmitRequest 重新提交只接受商品 id，审核字段由管理员填写
type resubmitRequest struct {
	EntityID string `json:"entityId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *CatalogHandler) writeLogin(w http.ResponseWriter, res application.LoginResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.OK(w, res)
}

func (h *CatalogHandler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.accounts.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

func (h *CatalogHandler) handleStoreLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.accounts.StoreLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

func (h *CatalogHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nil, "if a store uses this email, a reset link has been sent")
}

func (h *CatalogHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nil, "password updated")
}

func (h *CatalogHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.catalog.ListPublicProducts(r.Context(), application.PublicQuery{
		Category:    r.URL.Query().Get("category"),
		Search:      r.URL.Query().Get("search"),
		PageRequest: pr,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, paged(p, res))
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.GetPublicProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *CatalogHandler) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	httpx.OK(w, cats)
}

func (h *CatalogHandler) handleGetStore(w http.ResponseWriter, r *http.Request) {
	p, pr := h.page(r)
	res, err := h.catalog.GetPublicStore(r.Context(), r.PathValue("username"), pr)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"store": res.Store, "products": paged(p, res.Products)})
}

func (h *CatalogHandler) handleAvailableCoupons(w http.ResponseWriter, r *http.Request) {
	// 游客只能看到公开券
	list, err := h.coupons.ListAvailableCoupons(r.Context(), session.FromContext(r.Context()).UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, list)
}

type applyForStoreRequest struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
}

func (h *CatalogHandler) handleApplyForStore(w http.ResponseWriter, r *http.Request) {
	var req applyForStoreRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.accounts.ApplyForStore(r.Context(), session.FromContext(r.Context()).UserID, application.ApplyInput(req))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "your application is pending review")
}

type applyCouponRequest struct {
	StoreID  string          `json:"storeId"`
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (h *CatalogHandler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q, err := h.coupons.ApplyCoupon(r.Context(), application.ApplyRequest{
		UserID:   session.FromContext(r.Context()).UserID,
		StoreID:  req.StoreID,
		Code:     req.Code,
		Subtotal: req.Subtotal,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, q)
}

// discountBody 店铺券和平台券共用的折扣条款字段
type discountBody struct {
	Code              string           `json:"code"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discountType"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	MinOrderAmount    decimal.Decimal  `json:"minOrderAmount"`
	ForNewUser        bool             `json:"forNewUser"`
	ForMember         bool             `json:"forMember"`
	UsageLimit        int              `json:"usageLimit"`
	ExpiresAt         time.Time        `json:"expiresAt"`
}

func (b discountBody) terms() domain.DiscountTerms {
	return domain.DiscountTerms{
		Type:              domain.DiscountType(b.DiscountType),
		Value:             b.DiscountValue,
		MaxDiscountAmount: b.MaxDiscountAmount,
		MinOrderAmount:    b.MinOrderAmount,
	}
}
