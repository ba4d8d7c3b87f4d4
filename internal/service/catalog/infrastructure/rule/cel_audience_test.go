package rule

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELAudienceEvaluator(t *testing.T) {
	ev, err := NewCELAudienceEvaluator()
	require.NoError(t, err)

	loyal := domain.AudienceFact{UserID: "u1", OrderCount: 5, IsMember: false, Subtotal: 1200}
	fresh := domain.AudienceFact{UserID: "u2", OrderCount: 0, IsMember: true, Subtotal: 300}

	cases := []struct {
		expr  string
		loyal bool
		fresh bool
	}{
		{"", true, true},
		{"order_count >= 3 && !is_member", true, false},
		{"is_member", false, true},
		{"subtotal > 1000.0", true, false},
		{`user_id in ["u2", "u9"]`, false, true},
	}
	for _, c := range cases {
		got, err := ev.Matches(c.expr, loyal)
		require.NoError(t, err, c.expr)
		assert.Equal(t, c.loyal, got, c.expr)

		got, err = ev.Matches(c.expr, fresh)
		require.NoError(t, err, c.expr)
		assert.Equal(t, c.fresh, got, c.expr)
	}
}

func TestCELAudienceEvaluator_Validate(t *testing.T) {
	ev, err := NewCELAudienceEvaluator()
	require.NoError(t, err)

	assert.NoError(t, ev.Validate("order_count == 0"))
	assert.ErrorIs(t, ev.Validate("order_count +"), apperr.ErrValidation)
	assert.ErrorIs(t, ev.Validate("order_count + 1"), apperr.ErrValidation)
	assert.ErrorIs(t, ev.Validate("unknown_var > 1"), apperr.ErrValidation)
}
