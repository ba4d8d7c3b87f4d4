package application

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/account/domain"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AddressBook 收货地址和已保存支付方式。
// 不变量: 用户只要有一行数据，就恰好有一行是默认项。
// 所有改动默认项的操作都在一个事务里先锁用户行，再“清除全部默认 -> 设置一个”。
type AddressBook struct {
	tx        domain.Transactor
	users     domain.UserRepository
	addresses domain.AddressRepository
	methods   domain.PaymentMethodRepository
	tracer    trace.Tracer

	now   func() time.Time
	newID func() string
}

func NewAddressBook(tx domain.Transactor, users domain.UserRepository, addresses domain.AddressRepository,
	methods domain.PaymentMethodRepository, tracer trace.Tracer) *AddressBook {
	return &AddressBook{
		tx: tx, users: users, addresses: addresses, methods: methods, tracer: tracer,
		now: time.Now, newID: uuid.NewString,
	}
}

// add 在事务中插入一行；第一行或 makeDefault 时成为默认项
func (b *AddressBook) add(ctx context.Context, userID string, set domain.DefaultSet, makeDefault bool,
	create func(ctx context.Context, isDefault bool) error) error {
	return b.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := b.users.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		n, err := set.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if n >= domain.MaxSavedEntries {
			return domain.ErrTooManySavedEntries
		}
		isDefault := n == 0 || makeDefault
		if isDefault && n > 0 {
			if err := set.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return create(ctx, isDefault)
	})
}

// setDefault 原子地“清除全部默认 -> 设置一个”
func (b *AddressBook) setDefault(ctx context.Context, userID, id string, set domain.DefaultSet) error {
	return b.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := b.users.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		if err := set.ClearDefault(ctx, userID); err != nil {
			return err
		}
		// 不存在时返回 not found，事务回滚，原默认项保持不变
		return set.MarkDefault(ctx, userID, id)
	})
}

// remove 删除一行；删掉的是默认项时把最近创建的一行提升为默认
func (b *AddressBook) remove(ctx context.Context, userID, id string, set domain.DefaultSet) error {
	return b.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := b.users.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		wasDefault, err := set.Delete(ctx, userID, id)
		if err != nil || !wasDefault {
			return err
		}
		next, err := set.LatestID(ctx, userID)
		if err != nil || next == "" {
			return err
		}
		return set.MarkDefault(ctx, userID, next)
	})
}

// AddressInput 新增地址
type AddressInput struct {
	Label       string `json:"label"`
	Recipient   string `json:"recipient"`
	Phone       string `json:"phone"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	MakeDefault bool   `json:"makeDefault"`
}

// AddressView 对外的地址
type AddressView struct {
	ID         string    `json:"id"`
	Label      string    `json:"label,omitempty"`
	Recipient  string    `json:"recipient"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toAddressView(a *domain.Address) AddressView {
	return AddressView{
		ID: a.ID, Label: a.Label, Recipient: a.Recipient, Phone: a.Phone, Line1: a.Line1, Line2: a.Line2,
		City: a.City, State: a.State, PostalCode: a.PostalCode, Country: a.Country,
		IsDefault: a.IsDefault, CreatedAt: a.CreatedAt,
	}
}

// AddAddress 新增地址，第一个地址自动成为默认地址
func (b *AddressBook) AddAddress(ctx context.Context, userID string, in AddressInput) (AddressView, error) {
	ctx, span := b.tracer.Start(ctx, "addressBook.AddAddress")
	defer span.End()

	now := b.now()
	a := &domain.Address{
		ID: b.newID(), UserID: userID, Label: in.Label, Recipient: in.Recipient, Phone: in.Phone,
		Line1: in.Line1, Line2: in.Line2, City: in.City, State: in.State, PostalCode: in.PostalCode,
		Country: in.Country, CreatedAt: now, UpdatedAt: now,
	}
	if err := a.Normalize(); err != nil {
		return AddressView{}, fail(span, err)
	}
	err := b.add(ctx, userID, b.addresses, in.MakeDefault, func(ctx context.Context, isDefault bool) error {
		a.IsDefault = isDefault
		return b.addresses.Create(ctx, a)
	})
	if err != nil {
		return AddressView{}, fail(span, err)
	}
	return toAddressView(a), nil
}

// ListAddresses 默认地址在前
func (b *AddressBook) ListAddresses(ctx context.Context, userID string) ([]AddressView, error) {
	list, err := b.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AddressView, 0, len(list))
	for _, a := range list {
		out = append(out, toAddressView(a))
	}
	return out, nil
}

// SetDefaultAddress 把指定地址设为默认
func (b *AddressBook) SetDefaultAddress(ctx context.Context, userID, id string) error {
	ctx, span := b.tracer.Start(ctx, "addressBook.SetDefaultAddress")
	defer span.End()
	span.SetAttributes(attribute.String("address.id", id))

	if err := b.setDefault(ctx, userID, id, b.addresses); err != nil {
		return fail(span, err)
	}
	return nil
}

// DeleteAddress 删除地址
func (b *AddressBook) DeleteAddress(ctx context.Context, userID, id string) error {
	ctx, span := b.tracer.Start(ctx, "addressBook.DeleteAddress")
	defer span.End()

	if err := b.remove(ctx, userID, id, b.addresses); err != nil {
		return fail(span, err)
	}
	logger.Ctx(ctx).Debug().Str("user_id", userID).Str("address_id", id).Msg("address deleted")
	return nil
}

// PaymentMethodInput 新增支付方式，只接收脱敏字段
type PaymentMethodInput struct {
	Method      string `json:"method"`
	Label       string `json:"label"`
	Brand       string `json:"brand"`
	Last4       string `json:"last4"`
	ExpMonth    int    `json:"expMonth"`
	ExpYear     int    `json:"expYear"`
	UPIHandle   string `json:"upiHandle"`
	MakeDefault bool   `json:"makeDefault"`
}

// PaymentMethodView 对外的支付方式
type PaymentMethodView struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Label     string    `json:"label,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Last4     string    `json:"last4,omitempty"`
	ExpMonth  int       `json:"expMonth,omitempty"`
	ExpYear   int       `json:"expYear,omitempty"`
	UPIHandle string    `json:"upiHandle,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPaymentMethodView(m *domain.SavedPaymentMethod) PaymentMethodView {
	return PaymentMethodView{
		ID: m.ID, Method: string(m.Method), Label: m.Label, Brand: m.Brand, Last4: m.Last4,
		ExpMonth: m.ExpMonth, ExpYear: m.ExpYear, UPIHandle: m.UPIHandle,
		IsDefault: m.IsDefault, CreatedAt: m.CreatedAt,
	}
}

// AddPaymentMethod 保存支付方式，第一个自动成为默认
func (b *AddressBook) AddPaymentMethod(ctx context.Context, userID string, in PaymentMethodInput) (PaymentMethodView, error) {
	ctx, span := b.tracer.Start(ctx, "addressBook.AddPaymentMethod")
	defer span.End()

	now := b.now()
	m := &domain.SavedPaymentMethod{
		ID: b.newID(), UserID: userID, Label: in.Label, Brand: in.Brand, Last4: in.Last4,
		ExpMonth: in.ExpMonth, ExpYear: in.ExpYear, UPIHandle: in.UPIHandle, CreatedAt: now, UpdatedAt: now,
	}
	if err := m.Normalize(in.Method, now); err != nil {
		return PaymentMethodView{}, fail(span, err)
	}
	err := b.add(ctx, userID, b.methods, in.MakeDefault, func(ctx context.Context, isDefault bool) error {
		m.IsDefault = isDefault
		return b.methods.Create(ctx, m)
	})
	if err != nil {
		return PaymentMethodView{}, fail(span, err)
	}
	return toPaymentMethodView(m), nil
}

func (b *AddressBook) ListPaymentMethods(ctx context.Context, userID string) ([]PaymentMethodView, error) {
	list, err := b.methods.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentMethodView, 0, len(list))
	for _, m := range list {
		out = append(out, toPaymentMethodView(m))
	}
	return out, nil
}

func (b *AddressBook) SetDefaultPaymentMethod(ctx context.Context, userID, id string) error {
	ctx, span := b.tracer.Start(ctx, "addressBook.SetDefaultPaymentMethod")
	defer span.End()
	span.SetAttributes(attribute.String("payment_method.id", id))

	if err := b.setDefault(ctx, userID, id, b.methods); err != nil {
		return fail(span, err)
	}
	return nil
}

func (b *AddressBook) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	ctx, span := b.tracer.Start(ctx, "addressBook.DeletePaymentMethod")
	defer span.End()

	if err := b.remove(ctx, userID, id, b.methods); err != nil {
		return fail(span, err)
	}
	return nil
}

// ShippingAddress 下单时的地址快照；addressID 为空时取默认地址
func (b *AddressBook) ShippingAddress(ctx context.Context, userID, addressID string) (string, error) {
	var (
		a   *domain.Address
		err error
	)
	if addressID == "" {
		a, err = b.addresses.FindDefault(ctx, userID)
	} else {
		a, err = b.addresses.FindByID(ctx, userID, addressID)
	}
	if err != nil {
		return "", err
	}
	return a.Snapshot(), nil
}

// LockBuyer 必须在调用方的事务中调用，锁持有到事务结束
func (b *AddressBook) LockBuyer(ctx context.Context, userID string) error {
	return b.users.LockForUpdate(ctx, userID)
}

// DefaultPaymentMethod 默认支付方式，没有保存过时返回空串
func (b *AddressBook) DefaultPaymentMethod(ctx context.Context, userID string) (string, error) {
	m, err := b.methods.FindDefault(ctx, userID)
	if errors.Is(err, domain.ErrPaymentMethodNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(m.Method), nil
}
