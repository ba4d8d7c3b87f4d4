package session

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/pkg/logger"
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CookieName 浏览器端保存 token 的 cookie
const CookieName = "bazaar_session"

var (
	ErrLoginRequired = apperr.New(apperr.ErrUnauthorized, "login_required", "please sign in to continue")
	ErrWrongRole     = apperr.New(apperr.ErrForbidden, "forbidden", "you do not have access to this resource")
	ErrStoreGone     = apperr.New(apperr.ErrUnauthorized, "store_not_found", "the store for this session no longer exists")
)

// StoreStatusReader 读取店铺的实时状态
type StoreStatusReader interface {
	StoreStatus(ctx context.Context, storeID string) (status string, active bool, err error)
}

// Middleware 解析 token 并把调用方放入 ctx。
// 没有 token 视为游客；token 无效返回 401。店主请求会重新读取店铺的实时状态。
func Middleware(issuer *Issuer, stores StoreStatusReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Guest)))
				return
			}

			p, err := issuer.Parse(raw)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}

			if p.Role == RoleStoreOwner {
				status, active, err := stores.StoreStatus(r.Context(), p.StoreID)
				if err != nil {
					if errors.Is(err, apperr.ErrNotFound) {
						httpx.WriteError(w, r, ErrStoreGone)
						return
					}
					httpx.WriteError(w, r, err)
					return
				}
				p.StoreStatus, p.StoreActive = status, active
			}

			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String("session.role", string(p.Role)),
				attribute.String("session.user_id", p.UserID),
			)
			logger.Ctx(r.Context()).Debug().Str("role", string(p.Role)).Str("user_id", p.UserID).Msg("session resolved")

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Require 只允许给定角色访问；游客得到 401，其它角色得到 403
func Require(h http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := CurrentRole(r.Context())
		if role == RoleGuest {
			httpx.WriteError(w, r, ErrLoginRequired)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				h(w, r)
				return
			}
		}
		httpx.WriteError(w, r, ErrWrongRole)
	}
}

func RequireAdmin(h http.HandlerFunc) http.HandlerFunc      { return Require(h, RoleAdmin) }
func RequireStoreOwner(h http.HandlerFunc) http.HandlerFunc { return Require(h, RoleStoreOwner) }

// RequireShopper 店主也可以以顾客身份购物
func RequireShopper(h http.HandlerFunc) http.HandlerFunc {
	return Require(h, RoleShopper, RoleStoreOwner)
}
