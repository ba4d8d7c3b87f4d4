package infrastructure

import (
	"bazaar/internal/service/account/domain"
	order "bazaar/internal/service/order/domain"
	"time"
)

// UserModel 对应 users 表
type UserModel struct {
	ID           string `gorm:"primaryKey;type:char(36)"`
	Name         string `gorm:"type:varchar(120);not null"`
	Email        string `gorm:"type:varchar(190);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password;type:varchar(100);not null"`
	IsMember     bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

// AddressModel 对应 addresses 表
type AddressModel struct {
	ID         string `gorm:"primaryKey;type:char(36)"`
	UserID     string `gorm:"type:char(36);index:idx_address_user;not null"`
	Label      string `gorm:"type:varchar(40)"`
	Recipient  string `gorm:"type:varchar(120);not null"`
	Phone      string `gorm:"type:varchar(24);not null"`
	Line1      string `gorm:"type:varchar(255);not null"`
	Line2      string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(80);not null"`
	State      string `gorm:"type:varchar(80)"`
	PostalCode string `gorm:"type:varchar(16);not null"`
	Country    string `gorm:"type:varchar(60);not null"`
	IsDefault  bool   `gorm:"not null;index:idx_address_user"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AddressModel) TableName() string { return "addresses" }

// PaymentMethodModel 对应 saved_payment_methods 表
type PaymentMethodModel struct {
	ID        string              `gorm:"primaryKey;type:char(36)"`
	UserID    string              `gorm:"type:char(36);index:idx_payment_user;not null"`
	Method    order.PaymentMethod `gorm:"type:varchar(8);not null"`
	Label     string              `gorm:"type:varchar(40)"`
	Brand     string              `gorm:"type:varchar(20)"`
	Last4     string              `gorm:"column:last4;type:char(4)"`
	ExpMonth  int
	ExpYear   int
	UPIHandle string `gorm:"column:upi_handle;type:varchar(100)"`
	IsDefault bool   `gorm:"not null;index:idx_payment_user"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PaymentMethodModel) TableName() string { return "saved_payment_methods" }

// Models 需要迁移的全部模型
func Models() []any {
	return []any{&UserModel{}, &AddressModel{}, &PaymentMethodModel{}}
}

func toDomainUser(m *UserModel) *domain.User {
	return &domain.User{
		ID: m.ID, Name: m.Name, Email: m.Email, PasswordHash: m.PasswordHash,
		IsMember: m.IsMember, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *UserModel {
	return &UserModel{
		ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		IsMember: u.IsMember, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func toDomainAddress(m *AddressModel) *domain.Address {
	return &domain.Address{
		ID: m.ID, UserID: m.UserID, Label: m.Label, Recipient: m.Recipient, Phone: m.Phone,
		Line1: m.Line1, Line2: m.Line2, City: m.City, State: m.State, PostalCode: m.PostalCode,
		Country: m.Country, IsDefault: m.IsDefault, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainAddress(a *domain.Address) *AddressModel {
	return &AddressModel{
		ID: a.ID, UserID: a.UserID, Label: a.Label, Recipient: a.Recipient, Phone: a.Phone,
		Line1: a.Line1, Line2: a.Line2, City: a.City, State: a.State, PostalCode: a.PostalCode,
		Country: a.Country, IsDefault: a.IsDefault, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func toDomainPaymentMethod(m *PaymentMethodModel) *domain.SavedPaymentMethod {
	return &domain.SavedPaymentMethod{
		ID: m.ID, UserID: m.UserID, Method: m.Method, Label: m.Label, Brand: m.Brand, Last4: m.Last4,
		ExpMonth: m.ExpMonth, ExpYear: m.ExpYear, UPIHandle: m.UPIHandle, IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainPaymentMethod(p *domain.SavedPaymentMethod) *PaymentMethodModel {
	return &PaymentMethodModel{
		ID: p.ID, UserID: p.UserID, Method: p.Method, Label: p.Label, Brand: p.Brand, Last4: p.Last4,
		ExpMonth: p.ExpMonth, ExpYear: p.ExpYear, UPIHandle: p.UPIHandle, IsDefault: p.IsDefault,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}
