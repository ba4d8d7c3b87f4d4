package domain

import (
	order "bazaar/internal/service/order/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_Normalize(t *testing.T) {
	a := Address{Recipient: " Asha ", Phone: "+91 98765-43210", Line1: "1 Main St ", City: "Pune", PostalCode: "411001", Country: "IN"}
	require.NoError(t, a.Normalize())
	assert.Equal(t, "Asha", a.Recipient)
	assert.Equal(t, "Asha, +91 98765-43210, 1 Main St, Pune, 411001, IN", a.Snapshot())

	missing := a
	missing.City = "   "
	assert.ErrorIs(t, missing.Normalize(), ErrIncompleteAddress)

	badPhone := a
	badPhone.Phone = "call me"
	assert.ErrorIs(t, badPhone.Normalize(), ErrInvalidPhone)
}

func TestSavedPaymentMethod_Normalize(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	card := SavedPaymentMethod{Brand: "Visa", Last4: "4242", ExpMonth: 6, ExpYear: 2026, UPIHandle: "leftover@bank"}
	require.NoError(t, card.Normalize("Credit-Card", now))
	assert.Equal(t, order.PaymentCard, card.Method)
	assert.Empty(t, card.UPIHandle)

	expired := SavedPaymentMethod{Brand: "Visa", Last4: "4242", ExpMonth: 5, ExpYear: 2026}
	assert.ErrorIs(t, expired.Normalize("card", now), ErrInvalidCardDetails)

	upi := SavedPaymentMethod{UPIHandle: " Asha.K@OkAxis ", Last4: "1234"}
	require.NoError(t, upi.Normalize("phonepe", now))
	assert.Equal(t, order.PaymentUPI, upi.Method)
	assert.Equal(t, "asha.k@okaxis", upi.UPIHandle)
	assert.Empty(t, upi.Last4)

	var cod SavedPaymentMethod
	assert.ErrorIs(t, cod.Normalize("cash on delivery", now), ErrUnsupportedMethod)
}
