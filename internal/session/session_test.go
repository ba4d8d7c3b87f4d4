package session

import (
	"bazaar/internal/pkg/apperr"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStores struct {
	status string
	active bool
	err    error
	calls  int
}

func (s *stubStores) StoreStatus(context.Context, string) (string, bool, error) {
	s.calls++
	return s.status, s.active, s.err
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, exp, err := iss.Issue(Principal{UserID: "u1", Role: RoleStoreOwner, StoreID: "s1", StoreStatus: "approved"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	p, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, RoleStoreOwner, p.Role)
	assert.Equal(t, "s1", p.StoreID)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)

	_, _, err := iss.Issue(Principal{UserID: "u1", Role: RoleGuest})
	assert.Error(t, err)

	tok, _, err := NewIssuer("other-secret", time.Hour).Issue(Principal{UserID: "u1", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err = expired.Issue(Principal{UserID: "u1", Role: RoleShopper})
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	stores := &stubStores{status: "suspended", active: false}

	var seen Principal
	h := Middleware(iss, stores)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no token is guest", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, RoleGuest, seen.Role)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store owner status is re-read", func(t *testing.T) {
		// token 里的快照还是 approved
		tok, _, err := iss.Issue(Principal{UserID: "u1", Role: RoleStoreOwner, StoreID: "s1", StoreStatus: "approved"})
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "suspended", seen.StoreStatus)
		assert.False(t, seen.StoreActive)
		assert.Equal(t, 1, stores.calls)
	})

	t.Run("deleted store is 401", func(t *testing.T) {
		stores.err = apperr.New(apperr.ErrNotFound, "store_not_found", "store not found")
		defer func() { stores.err = nil }()
		tok, _, err := iss.Issue(Principal{UserID: "u1", Role: RoleStoreOwner, StoreID: "s1"})
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequire(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	cases := []struct {
		role Role
		want int
	}{
		{RoleGuest, http.StatusUnauthorized},
		{RoleShopper, http.StatusForbidden},
		{RoleStoreOwner, http.StatusForbidden},
		{RoleAdmin, http.StatusOK},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithPrincipal(r.Context(), Principal{UserID: "x", Role: c.role}))
		w := httptest.NewRecorder()
		RequireAdmin(ok)(w, r)
		assert.Equal(t, c.want, w.Code, string(c.role))
	}
}

func TestCurrentStoreID(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{UserID: "u", Role: RoleShopper, StoreID: "leaked"})
	assert.Empty(t, CurrentStoreID(ctx))
	ctx = WithPrincipal(context.Background(), Principal{UserID: "u", Role: RoleStoreOwner, StoreID: "s9"})
	assert.Equal(t, "s9", CurrentStoreID(ctx))
	assert.Equal(t, RoleGuest, CurrentRole(context.Background()))
}

func TestLoginLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	l := NewLoginLimiter(client, 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, RoleShopper, "a@example.com"))
		require.NoError(t, l.RecordFailure(ctx, RoleShopper, "A@example.com "))
	}
	assert.ErrorIs(t, l.Check(ctx, RoleShopper, "a@example.com"), ErrTooManyAttempts)
	// 不同角色独立计数
	assert.NoError(t, l.Check(ctx, RoleAdmin, "a@example.com"))

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, l.Check(ctx, RoleShopper, "a@example.com"))

	require.NoError(t, l.RecordFailure(ctx, RoleShopper, "a@example.com"))
	require.NoError(t, l.Reset(ctx, RoleShopper, "a@example.com"))
	assert.NoError(t, l.Check(ctx, RoleShopper, "a@example.com"))
}
