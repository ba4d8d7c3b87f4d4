package domain

import "strings"

// PaymentMethod 订单支付方式，只保留三种规范值
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
)

// 历史数据里出现过的写法
var legacyPaymentMethods = map[string]PaymentMethod{
	"cod":              PaymentCOD,
	"cash":             PaymentCOD,
	"cash_on_delivery": PaymentCOD,
	"card":             PaymentCard,
	"credit_card":      PaymentCard,
	"debit_card":       PaymentCard,
	"online":           PaymentCard,
	"stripe":           PaymentCard,
	"razorpay":         PaymentCard,
	"upi":              PaymentUPI,
	"gpay":             PaymentUPI,
	"phonepe":          PaymentUPI,
}

// NormalizePaymentMethod 把任意写法映射到规范值，大小写、空格和连字符不敏感
func NormalizePaymentMethod(raw string) (PaymentMethod, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	m, ok := legacyPaymentMethods[key]
	return m, ok
}

// Canonical 是否已经是规范值
func (m PaymentMethod) Canonical() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI:
		return true
	}
	return false
}
