package domain

import (
	order "bazaar/internal/service/order/domain"
	"regexp"
	"strings"
	"time"
)

var (
	last4Pattern = regexp.MustCompile(`^[0-9]{4}$`)
	upiPattern   = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,64}@[a-zA-Z]{2,32}$`)
)

// SavedPaymentMethod 已保存的支付方式，只保存脱敏信息
type SavedPaymentMethod struct {
	ID        string
	UserID    string
	Method    order.PaymentMethod // CARD / UPI
	Label     string
	Brand     string // CARD
	Last4     string // CARD
	ExpMonth  int    // CARD
	ExpYear   int    // CARD
	UPIHandle string // UPI
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize 规范化支付方式并按类型校验
func (m *SavedPaymentMethod) Normalize(raw string, now time.Time) error {
	method, ok := order.NormalizePaymentMethod(raw)
	if !ok || method == order.PaymentCOD {
		return ErrUnsupportedMethod
	}
	m.Method = method
	m.Label = strings.TrimSpace(m.Label)

	switch method {
	case order.PaymentCard:
		m.Brand = strings.TrimSpace(m.Brand)
		m.UPIHandle = ""
		if m.Brand == "" || !last4Pattern.MatchString(m.Last4) || m.ExpMonth < 1 || m.ExpMonth > 12 {
			return ErrInvalidCardDetails
		}
		// 当月月底之前都有效
		if m.ExpYear < now.Year() || (m.ExpYear == now.Year() && m.ExpMonth < int(now.Month())) {
			return ErrInvalidCardDetails
		}
	case order.PaymentUPI:
		m.UPIHandle = strings.ToLower(strings.TrimSpace(m.UPIHandle))
		m.Brand, m.Last4, m.ExpMonth, m.ExpYear = "", "", 0, 0
		if !upiPattern.MatchString(m.UPIHandle) {
			return ErrInvalidUPIHandle
		}
	}
	return nil
}
