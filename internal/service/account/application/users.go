// Package application 账户用例: 注册登录、会员、地址簿和支付方式
package application

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/account/domain"
	"bazaar/internal/session"
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid_credentials", "email or password is incorrect")
	ErrWeakPassword       = apperr.Validation("weak_password", "password must be at least 8 characters")
	ErrInvalidEmail       = apperr.Validation("invalid_email", "email address is not valid")
)

const minPasswordLength = 8

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

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// UserView 对外的账号信息，不含密码
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsMember  bool      `json:"isMember"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u *domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, IsMember: u.IsMember, CreatedAt: u.CreatedAt}
}

// AuthResult 注册 / 登录成功后的 token
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
	User      UserView  `json:"user"`
}

// Users 顾客注册、登录和会员管理
type Users struct {
	users  domain.UserRepository
	issuer TokenIssuer
	guard  LoginGuard
	tracer trace.Tracer

	now   func() time.Time
	newID func() string
}

func NewUsers(users domain.UserRepository, issuer TokenIssuer, guard LoginGuard, tracer trace.Tracer) *Users {
	return &Users{users: users, issuer: issuer, guard: guard, tracer: tracer, now: time.Now, newID: uuid.NewString}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register 创建顾客账号并直接登录
func (s *Users) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Register")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return AuthResult{}, fail(span, domain.ErrInvalidName)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return AuthResult{}, fail(span, err)
	}
	if len(password) < minPasswordLength {
		return AuthResult{}, fail(span, ErrWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fail(span, err)
	}

	now := s.now()
	u := &domain.User{ID: s.newID(), Name: name, Email: email, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now}
	if err := s.users.Create(ctx, u); err != nil {
		return AuthResult{}, fail(span, err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	logger.Ctx(ctx).Info().Str("user_id", u.ID).Msg("user registered")
	return s.issue(u)
}

// Login 顾客登录，失败次数受 LoginGuard 限制
func (s *Users) Login(ctx context.Context, email, password string) (AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "users.Login")
	defer span.End()

	account := strings.ToLower(strings.TrimSpace(email))
	if err := s.guard.Check(ctx, session.RoleShopper, account); err != nil {
		return AuthResult{}, fail(span, err)
	}
	u, err := s.users.FindByEmail(ctx, account)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return AuthResult{}, fail(span, err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		if err := s.guard.RecordFailure(ctx, session.RoleShopper, account); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("record login failure")
		}
		return AuthResult{}, fail(span, ErrInvalidCredentials)
	}
	_ = s.guard.Reset(ctx, session.RoleShopper, account)
	return s.issue(u)
}

func (s *Users) issue(u *domain.User) (AuthResult, error) {
	token, exp, err := s.issuer.Issue(session.Principal{UserID: u.ID, Role: session.RoleShopper})
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, ExpiresAt: exp, Role: string(session.RoleShopper), User: toUserView(u)}, nil
}

// Profile 当前用户信息
func (s *Users) Profile(ctx context.Context, userID string) (UserView, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return toUserView(u), nil
}

// SetMembership 管理员开通或取消会员
func (s *Users) SetMembership(ctx context.Context, userID string, member bool) (UserView, error) {
	ctx, span := s.tracer.Start(ctx, "users.SetMembership")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Bool("user.member", member))

	if err := s.users.SetMember(ctx, userID, member); err != nil {
		return UserView{}, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("user_id", userID).Bool("member", member).Msg("membership updated")
	return s.Profile(ctx, userID)
}
