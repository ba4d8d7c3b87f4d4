package session

import (
	"bazaar/internal/pkg/apperr"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const issuerName = "bazaar"

var ErrInvalidToken = apperr.New(apperr.ErrUnauthorized, "invalid_token", "session token is invalid or expired")

// Claims token 载荷，Subject 为用户 id
type Claims struct {
	Role        Role   `json:"role"`
	StoreID     string `json:"storeId,omitempty"`
	StoreStatus string `json:"storeStatus,omitempty"`
	jwt.RegisteredClaims
}

// Issuer 使用 HS256 签发和校验 token
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 为调用方签发 token
func (i *Issuer) Issue(p Principal) (string, time.Time, error) {
	if !p.Role.Valid() {
		return "", time.Time{}, errors.Errorf("cannot issue token for role %q", p.Role)
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Role:        p.Role,
		StoreID:     p.StoreID,
		StoreStatus: p.StoreStatus,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Parse 校验签名、过期时间和签发方，返回调用方
func (i *Issuer) Parse(token string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !claims.Role.Valid() || claims.Subject == "" {
		return Guest, ErrInvalidToken
	}
	if claims.Role == RoleStoreOwner && claims.StoreID == "" {
		return Guest, ErrInvalidToken
	}
	return Principal{
		UserID:      claims.Subject,
		Role:        claims.Role,
		StoreID:     claims.StoreID,
		StoreStatus: claims.StoreStatus,
	}, nil
}
