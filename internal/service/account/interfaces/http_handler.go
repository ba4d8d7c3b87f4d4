package interfaces

import (
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/account/application"
	"bazaar/internal/session"
	"net/http"
)

// AccountHandler 顾客账号、地址簿、支付方式以及管理员的会员设置
type AccountHandler struct {
	users        *application.Users
	book         *application.AddressBook
	secureCookie bool
}

func NewAccountHandler(users *application.Users, book *application.AddressBook, secureCookie bool) *AccountHandler {
	return &AccountHandler{users: users, book: book, secureCookie: secureCookie}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)

	mux.HandleFunc("GET /api/account/me", session.RequireShopper(h.handleMe))
	mux.HandleFunc("GET /api/account/addresses", session.RequireShopper(h.handleListAddresses))
	mux.HandleFunc("POST /api/account/addresses", session.RequireShopper(h.handleAddAddress))
	mux.HandleFunc("POST /api/account/addresses/{id}/default", session.RequireShopper(h.handleDefaultAddress))
	mux.HandleFunc("DELETE /api/account/addresses/{id}", session.RequireShopper(h.handleDeleteAddress))
	mux.HandleFunc("GET /api/account/payment-methods", session.RequireShopper(h.handleListPaymentMethods))
	mux.HandleFunc("POST /api/account/payment-methods", session.RequireShopper(h.handleAddPaymentMethod))
	mux.HandleFunc("POST /api/account/payment-methods/{id}/default", session.RequireShopper(h.handleDefaultPaymentMethod))
	mux.HandleFunc("DELETE /api/account/payment-methods/{id}", session.RequireShopper(h.handleDeletePaymentMethod))

	mux.HandleFunc("POST /api/admin/users/{id}/membership", session.RequireAdmin(h.handleMembership))
}

func userID(r *http.Request) string { return session.FromContext(r.Context()).UserID }

func (h *AccountHandler) setSession(w http.ResponseWriter, res application.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.setSession(w, res)
	httpx.WriteJSON(w, http.StatusCreated, res, "welcome to bazaar")
}

func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.setSession(w, res)
	httpx.OK(w, res)
}

// handleLogout 清除 cookie，token 本身无状态
func (h *AccountHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.secureCookie})
	httpx.WriteJSON(w, http.StatusOK, nil, "signed out")
}

func (h *AccountHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	v, err := h.users.Profile(r.Context(), userID(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}

func (h *AccountHandler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.book.ListAddresses(r.Context(), userID(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, list)
}

func (h *AccountHandler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var req application.AddressInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.book.AddAddress(r.Context(), userID(r), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "address saved")
}

func (h *AccountHandler) handleDefaultAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.book.SetDefaultAddress(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")}, "default address updated")
}

func (h *AccountHandler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.book.DeleteAddress(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nil, "address deleted")
}

func (h *AccountHandler) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	list, err := h.book.ListPaymentMethods(r.Context(), userID(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, list)
}

func (h *AccountHandler) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req application.PaymentMethodInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.book.AddPaymentMethod(r.Context(), userID(r), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v, "payment method saved")
}

func (h *AccountHandler) handleDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.book.SetDefaultPaymentMethod(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")}, "default payment method updated")
}

func (h *AccountHandler) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.book.DeletePaymentMethod(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nil, "payment method deleted")
}

func (h *AccountHandler) handleMembership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsMember bool `json:"isMember"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v, err := h.users.SetMembership(r.Context(), r.PathValue("id"), req.IsMember)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.OK(w, v)
}
