// Package session 是唯一的会话与角色上下文：一个签名 token 方案覆盖顾客、店主和管理员。
package session

import (
	"context"
)

// Role 调用方角色
type Role string

const (
	RoleGuest      Role = "guest"
	RoleShopper    Role = "shopper"
	RoleStoreOwner Role = "store_owner"
	RoleAdmin      Role = "admin"
)

// Valid 判断是否是可以签发 token 的角色
func (r Role) Valid() bool {
	switch r {
	case RoleShopper, RoleStoreOwner, RoleAdmin:
		return true
	}
	return false
}

// Principal 当前请求的调用方
type Principal struct {
	UserID string
	Role   Role
	// 只有店主才有
	StoreID string
	// 店主请求时由中间件从数据库重新读取，token 中的快照只作兜底
	StoreStatus string
	StoreActive bool
}

// Guest 未登录调用方
var Guest = Principal{Role: RoleGuest}

type principalKey struct{}

// WithPrincipal 把调用方放入 ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext 取出调用方，没有时返回 Guest
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Guest
}

// CurrentRole 当前调用方的角色
func CurrentRole(ctx context.Context) Role {
	return FromContext(ctx).Role
}

// CurrentStoreID 当前店主的店铺 id，非店主返回空串
func CurrentStoreID(ctx context.Context) string {
	p := FromContext(ctx)
	if p.Role != RoleStoreOwner {
		return ""
	}
	return p.StoreID
}
