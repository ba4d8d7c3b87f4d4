package domain

import (
	"regexp"
	"strings"
	"time"
)

// MaxSavedEntries 每个用户最多保存的地址 / 支付方式数量
const MaxSavedEntries = 20

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}[0-9]$`)

// Address 收货地址。一旦用户有了地址，就恰好有一个默认地址
type Address struct {
	ID         string
	UserID     string
	Label      string // home / work ...
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Normalize 去掉首尾空白并校验必填字段
func (a *Address) Normalize() error {
	for _, f := range []*string{&a.Label, &a.Recipient, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country} {
		*f = strings.TrimSpace(*f)
	}
	if a.Recipient == "" || a.Phone == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return ErrIncompleteAddress
	}
	if !phonePattern.MatchString(a.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

// Snapshot 下单时写入订单的单行地址
func (a *Address) Snapshot() string {
	parts := []string{a.Recipient, a.Phone, a.Line1}
	for _, p := range []string{a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
