package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/dispatch"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/session"
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid_credentials", "email or password is incorrect")
	ErrWeakPassword       = apperr.Validation("weak_password", "password must be at least 8 characters")
	ErrInvalidUsername    = apperr.Validation("invalid_username", "username must be 3-30 lowercase letters, digits, '-' or '_'")
	ErrInvalidEmail       = apperr.Validation("invalid_email", "email address is not valid")
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,29}$`)

// TokenIssuer 签发会话 token
type TokenIssuer interface {
	Issue(p session.Principal) (string, time.Time, error)
}

// LoginGuard 登录失败计数
type LoginGuard interface {
	Check(ctx context.Context, role session.Role, account string) error
	RecordFailure(ctx context.Context, role session.Role, account string) error
	Reset(ctx context.Context, role session.Role, account string) error
}

// AdminCredentials 平台管理员账号，来自配置
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// StoreAccounts 店铺申请、店主 / 管理员登录、店主找回密码
type StoreAccounts struct {
	stores   domain.StoreRepository
	notifier domain.Notifier
	issuer   TokenIssuer
	guard    LoginGuard
	admin    AdminCredentials
	resetTTL time.Duration
	tracer   trace.Tracer

	dispatch dispatch.Group
	now      func() time.Time
	newID    func() string
}

func NewStoreAccounts(stores domain.StoreRepository, notifier domain.Notifier, issuer TokenIssuer, guard LoginGuard,
	admin AdminCredentials, resetTTL time.Duration, tracer trace.Tracer) *StoreAccounts {
	return &StoreAccounts{
		stores: stores, notifier: notifier, issuer: issuer, guard: guard,
		admin: admin, resetTTL: resetTTL, tracer: tracer,
		now: time.Now, newID: uuid.NewString,
	}
}

// Wait 等待进行中的重置邮件发送完毕
func (a *StoreAccounts) Wait() { a.dispatch.Wait() }

// HashPassword bcrypt 哈希
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ApplyInput 顾客申请开店
type ApplyInput struct {
	Name        string
	Username    string
	Email       string
	Password    string
	Description string
	Logo        string
	Address     string
	Contact     string
}

// ApplyForStore 顾客申请开店，每个用户只能有一个店铺，新店铺处于 pending
func (a *StoreAccounts) ApplyForStore(ctx context.Context, userID string, in ApplyInput) (StoreView, error) {
	ctx, span := a.tracer.Start(ctx, "accounts.ApplyForStore")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return StoreView{}, fail(span, apperr.Validation("invalid_name", "store name is required"))
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if !usernamePattern.MatchString(username) {
		return StoreView{}, fail(span, ErrInvalidUsername)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return StoreView{}, fail(span, err)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return StoreView{}, fail(span, err)
	}

	if _, err := a.stores.FindByUserID(ctx, userID); err == nil {
		return StoreView{}, fail(span, domain.ErrAlreadyHasStore)
	} else if !errors.Is(err, domain.ErrStoreNotFound) {
		return StoreView{}, fail(span, err)
	}

	now := a.now()
	s := &domain.Store{
		ID:           a.newID(),
		UserID:       userID,
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Description:  strings.TrimSpace(in.Description),
		Logo:         strings.TrimSpace(in.Logo),
		Address:      strings.TrimSpace(in.Address),
		Contact:      strings.TrimSpace(in.Contact),
		Status:       domain.StoreStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.stores.Create(ctx, s); err != nil {
		return StoreView{}, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("store_id", s.ID).Str("user_id", userID).Msg("store application received")
	return toStoreView(s), nil
}

// LoginResult 登录成功后的 token
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Role      string     `json:"role"`
	Store     *StoreView `json:"store,omitempty"`
}

// StoreLogin 店主登录。未通过审核的店铺也可以登录查看状态，经营类操作由店铺状态把关
func (a *StoreAccounts) StoreLogin(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := a.tracer.Start(ctx, "accounts.StoreLogin")
	defer span.End()

	account := strings.ToLower(strings.TrimSpace(email))
	if err := a.guard.Check(ctx, session.RoleStoreOwner, account); err != nil {
		return LoginResult{}, fail(span, err)
	}
	s, err := a.stores.FindByEmail(ctx, account)
	if err != nil && !errors.Is(err, domain.ErrStoreNotFound) {
		return LoginResult{}, fail(span, err)
	}
	if s == nil || bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) != nil {
		if err := a.guard.RecordFailure(ctx, session.RoleStoreOwner, account); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("record login failure")
		}
		return LoginResult{}, fail(span, ErrInvalidCredentials)
	}
	_ = a.guard.Reset(ctx, session.RoleStoreOwner, account)

	token, exp, err := a.issuer.Issue(session.Principal{
		UserID:      s.UserID,
		Role:        session.RoleStoreOwner,
		StoreID:     s.ID,
		StoreStatus: string(s.Status),
		StoreActive: s.IsActive,
	})
	if err != nil {
		return LoginResult{}, fail(span, err)
	}
	v := toStoreView(s)
	return LoginResult{Token: token, ExpiresAt: exp, Role: string(session.RoleStoreOwner), Store: &v}, nil
}

// AdminLogin 平台管理员登录，账号来自配置
func (a *StoreAccounts) AdminLogin(ctx context.Context, email, password string) (LoginResult, error) {
	account := strings.ToLower(strings.TrimSpace(email))
	if err := a.guard.Check(ctx, session.RoleAdmin, account); err != nil {
		return LoginResult{}, err
	}
	if a.admin.PasswordHash == "" || account != strings.ToLower(a.admin.Email) ||
		bcrypt.CompareHashAndPassword([]byte(a.admin.PasswordHash), []byte(password)) != nil {
		if err := a.guard.RecordFailure(ctx, session.RoleAdmin, account); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("record login failure")
		}
		return LoginResult{}, ErrInvalidCredentials
	}
	_ = a.guard.Reset(ctx, session.RoleAdmin, account)

	token, exp, err := a.issuer.Issue(session.Principal{UserID: account, Role: session.RoleAdmin})
	if err != nil {
		return LoginResult{}, err
	}
	logger.Ctx(ctx).Info().Str("admin", account).Msg("admin signed in")
	return LoginResult{Token: token, ExpiresAt: exp, Role: string(session.RoleAdmin)}, nil
}

// RequestPasswordReset 生成重置 token 并异步发送邮件。
// 邮箱不存在时同样返回成功，不泄露哪些邮箱开过店
func (a *StoreAccounts) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := a.tracer.Start(ctx, "accounts.RequestPasswordReset")
	defer span.End()

	s, err := a.stores.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil
	}
	if err != nil {
		return fail(span, err)
	}
	token := strings.ReplaceAll(a.newID()+a.newID(), "-", "")
	expiry := a.now().Add(a.resetTTL)
	if err := a.stores.UpdateResetToken(ctx, s.ID, token, &expiry); err != nil {
		return fail(span, err)
	}
	a.dispatch.Go(ctx, "password_reset", func(ctx context.Context) error {
		return a.notifier.NotifyPasswordReset(ctx, s, token, expiry)
	})
	return nil
}

// ResetPassword 校验 token 后写入新密码，token 随之失效
func (a *StoreAccounts) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx, span := a.tracer.Start(ctx, "accounts.ResetPassword")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return fail(span, domain.ErrInvalidResetToken)
	}
	s, err := a.stores.FindByResetToken(ctx, token)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return fail(span, domain.ErrInvalidResetToken)
	}
	if err != nil {
		return fail(span, err)
	}
	if !s.ResetTokenValid(token, a.now()) {
		return fail(span, domain.ErrInvalidResetToken)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fail(span, err)
	}
	if err := a.stores.UpdatePassword(ctx, s.ID, hash); err != nil {
		return fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("store_id", s.ID).Msg("store password reset")
	return nil
}

// StoreStatus 实现 session.StoreStatusReader，每个店主请求都读取实时状态
func (a *StoreAccounts) StoreStatus(ctx context.Context, storeID string) (string, bool, error) {
	s, err := a.stores.FindByID(ctx, storeID)
	if err != nil {
		return "", false, err
	}
	return string(s.Status), s.IsActive, nil
}
