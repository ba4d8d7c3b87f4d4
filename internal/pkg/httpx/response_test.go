package httpx

import (
	"bazaar/internal/pkg/apperr"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.New(apperr.ErrUnauthorized, "no_session", "login required"), http.StatusUnauthorized},
		{apperr.New(apperr.ErrForbidden, "store_inactive", "store inactive"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", apperr.New(apperr.ErrNotFound, "product_not_found", "product not found")), http.StatusNotFound},
		{apperr.New(apperr.ErrInvalidTransition, "state_changed", "state changed"), http.StatusConflict},
		{apperr.Validation("invalid_price", "price must be positive"), http.StatusBadRequest},
		{fmt.Errorf("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, StatusFor(c.err), c.err.Error())
	}
}

func TestWriteError_Envelope(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/admin/products/review", nil)

	w := httptest.NewRecorder()
	WriteError(w, r, apperr.New(apperr.ErrInvalidTransition, "state_changed", "product was reviewed concurrently"))
	require.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "state_changed", body.Error)
	assert.Equal(t, "product was reviewed concurrently", body.Message)

	// 内部错误不泄漏细节
	w = httptest.NewRecorder()
	WriteError(w, r, fmt.Errorf("Error 1045: Access denied for user 'root'"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "Access denied")
	assert.Contains(t, w.Body.String(), `"error":"internal_error"`)
}

func TestDecode(t *testing.T) {
	var dst struct {
		EntityID string `json:"entityId"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"entityId":"p1"}`))
	require.NoError(t, Decode(r, &dst))
	assert.Equal(t, "p1", dst.EntityID)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"entityId":"p1","extra":1}`))
	assert.ErrorIs(t, Decode(r, &dst), apperr.ErrValidation)
}

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	p := ParsePage(r, 20, 100)
	assert.Equal(t, Page{Page: 3, Limit: 100}, p)
	assert.Equal(t, 200, p.Offset())

	r = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil)
	assert.Equal(t, Page{Page: 1, Limit: 20}, ParsePage(r, 20, 100))
}

func TestParsePage_HugePageIsClamped(t *testing.T) {
	for _, raw := range []string{"9223372036854775807", "92233720368547758", "10001"} {
		t.Run(raw, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?limit=100&page="+raw, nil)
			p := ParsePage(r, 20, 100)
			assert.Equal(t, MaxPage, p.Page)
			assert.Equal(t, (MaxPage-1)*100, p.Offset())
		})
	}

	// 手工构造的 Page 也不会得到负数 OFFSET
	assert.Equal(t, (MaxPage-1)*50, Page{Page: math.MaxInt, Limit: 50}.Offset())
	assert.Zero(t, Page{Page: 0, Limit: 50}.Offset())
}
