package interfaces

import (
	"bazaar/internal/pkg/database/dbtest"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/catalog/application"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/catalog/infrastructure"
	"bazaar/internal/service/catalog/infrastructure/rule"
	"bazaar/internal/session"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type nopNotifier struct{}

func (nopNotifier) NotifyStoreApproved(context.Context, *domain.Store) error { return nil }
func (nopNotifier) NotifyStoreRejected(context.Context, *domain.Store, string) error {
	return nil
}
func (nopNotifier) NotifyPasswordReset(context.Context, *domain.Store, string, time.Time) error {
	return nil
}

type noBuyers struct{}

func (noBuyers) Buyer(_ context.Context, userID string) (domain.Buyer, error) {
	return domain.Buyer{UserID: userID}, nil
}

type server struct {
	handler  http.Handler
	issuer   *session.Issuer
	stores   *infrastructure.GormStoreRepository
	workflow *application.Workflow
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := dbtest.Open(t, infrastructure.Models()...)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracer := noop.NewTracerProvider().Tracer("test")
	evaluator, err := rule.NewCELAudienceEvaluator()
	require.NoError(t, err)

	stores := infrastructure.NewGormStoreRepository(db)
	products := infrastructure.NewGormProductRepository(db)
	coupons := infrastructure.NewGormCouponRepository(db)
	cache := infrastructure.NewRedisListingCache(client, time.Minute)
	issuer := session.NewIssuer("handler-test-secret", time.Hour)

	workflow := application.NewWorkflow(stores, products, coupons, cache, nopNotifier{}, tracer)
	accounts := application.NewStoreAccounts(stores, nopNotifier{}, issuer, session.NewLoginLimiter(client, 3, time.Minute),
		application.AdminCredentials{Email: "root@bazaar.test"}, time.Hour, tracer)
	t.Cleanup(func() {
		workflow.Wait()
		accounts.Wait()
	})

	mux := http.NewServeMux()
	NewCatalogHandler(Services{
		Workflow:  workflow,
		Inventory: application.NewInventory(products, cache, tracer),
		Catalog:   application.NewCatalog(stores, products, coupons, cache, tracer),
		Coupons:   application.NewCoupons(coupons, noBuyers{}, evaluator, tracer),
		Accounts:  accounts,
	}, 20, 100, false).RegisterRoutes(mux)

	return &server{
		handler:  session.Middleware(issuer, accounts)(mux),
		issuer:   issuer,
		stores:   stores,
		workflow: workflow,
	}
}

func (s *server) seedStore(t *testing.T, id string, status domain.StoreStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.stores.Create(context.Background(), &domain.Store{
		ID: id, UserID: "owner-" + id, Name: "Store " + id, Username: "shop-" + id,
		Email: id + "@shop.test", PasswordHash: "x",
		Status: status, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *server) token(t *testing.T, p session.Principal) string {
	t.Helper()
	tok, _, err := s.issuer.Issue(p)
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, httpx.Envelope) {
	t.Helper()
	var rd *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(raw))
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestCatalogHandler_Guards(t *testing.T) {
	s := newServer(t)
	shopper := s.token(t, session.Principal{UserID: "u1", Role: session.RoleShopper})

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{"guest on owner route", http.MethodGet, "/api/store/me", "", http.StatusUnauthorized, "login_required"},
		{"shopper on admin route", http.MethodGet, "/api/admin/summary", shopper, http.StatusForbidden, "forbidden"},
		{"shopper on owner route", http.MethodGet, "/api/store/products", shopper, http.StatusForbidden, "forbidden"},
		{"garbage token", http.MethodGet, "/api/products", "not-a-token", http.StatusUnauthorized, "invalid_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Error)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestCatalogHandler_PublicListingEnvelope(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, http.MethodGet, "/api/products?page=1&limit=5", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
}

func TestCatalogHandler_ReviewStoreTwiceConflicts(t *testing.T) {
	s := newServer(t)
	s.seedStore(t, "s-new", domain.StoreStatusPending)
	admin := s.token(t, session.Principal{UserID: "root@bazaar.test", Role: session.RoleAdmin})
	body := map[string]string{"entityId": "s-new", "status": "approved"}

	status, env := s.do(t, http.MethodPost, "/api/admin/stores/review", admin, body)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.True(t, env.Success)

	status, env = s.do(t, http.MethodPost, "/api/admin/stores/review", admin, body)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
}

func TestCatalogHandler_CrossTenantIsNotFound(t *testing.T) {
	s := newServer(t)
	s.seedStore(t, "s-a", domain.StoreStatusApproved)
	s.seedStore(t, "s-b", domain.StoreStatusApproved)

	p, err := s.workflow.SubmitProduct(context.Background(), "s-b", domain.NewProductInput{
		Name: "Kettle", Category: "Kitchen", Price: decimal.NewFromInt(899), StockQuantity: 4,
	})
	require.NoError(t, err)

	ownerA := s.token(t, session.Principal{UserID: "owner-s-a", Role: session.RoleStoreOwner, StoreID: "s-a",
		StoreStatus: string(domain.StoreStatusApproved), StoreActive: true})
	ownerB := s.token(t, session.Principal{UserID: "owner-s-b", Role: session.RoleStoreOwner, StoreID: "s-b",
		StoreStatus: string(domain.StoreStatusApproved), StoreActive: true})

	status, env := s.do(t, http.MethodPatch, "/api/store/products/"+p.ID+"/price", ownerA, map[string]string{"price": "799"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	status, env = s.do(t, http.MethodPatch, "/api/store/products/"+p.ID+"/price", ownerB, map[string]string{"price": "799"})
	assert.Equal(t, http.StatusOK, status, env.Message)
	assert.True(t, env.Success)
}

func TestCatalogHandler_ResubmitTakesOnlyEntityID(t *testing.T) {
	s := newServer(t)
	s.seedStore(t, "s-a", domain.StoreStatusApproved)
	ctx := context.Background()

	p, err := s.workflow.SubmitProduct(ctx, "s-a", domain.NewProductInput{
		Name: "Kettle", Category: "Kitchen", Price: decimal.NewFromInt(899), StockQuantity: 4,
	})
	require.NoError(t, err)
	_, err = s.workflow.ReviewProduct(ctx, p.ID, "rejected", "admin", "blurry photos")
	require.NoError(t, err)

	owner := s.token(t, session.Principal{UserID: "owner-s-a", Role: session.RoleStoreOwner, StoreID: "s-a",
		StoreStatus: string(domain.StoreStatusApproved), StoreActive: true})

	for _, body := range []map[string]string{
		{"entityId": p.ID, "status": "approved"},
		{"entityId": p.ID, "adminNote": "looks fine"},
		{"entityId": p.ID, "reason": "fixed"},
	} {
		status, env := s.do(t, http.MethodPost, "/api/store/products/resubmit", owner, body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_body", env.Error)
	}

	status, env := s.do(t, http.MethodPost, "/api/store/products/resubmit", owner, map[string]string{"entityId": p.ID})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.True(t, env.Success)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pending", data["status"])
}
