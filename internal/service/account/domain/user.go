// Package domain 账户: 顾客、收货地址、已保存的支付方式
package domain

import "time"

// User 顾客账号。店主也是顾客，店铺通过 Store.UserID 关联
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsMember     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
