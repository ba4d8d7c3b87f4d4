package domain

import "bazaar/internal/pkg/apperr"

var (
	ErrUserNotFound          = apperr.New(apperr.ErrNotFound, "user_not_found", "user not found")
	ErrAddressNotFound       = apperr.New(apperr.ErrNotFound, "address_not_found", "address not found")
	ErrPaymentMethodNotFound = apperr.New(apperr.ErrNotFound, "payment_method_not_found", "payment method not found")

	ErrEmailTaken          = apperr.Validation("email_taken", "an account with this email already exists")
	ErrInvalidName         = apperr.Validation("invalid_name", "name is required")
	ErrIncompleteAddress   = apperr.Validation("incomplete_address", "recipient, phone, street, city, postal code and country are required")
	ErrInvalidPhone        = apperr.Validation("invalid_phone", "phone number is not valid")
	ErrUnsupportedMethod   = apperr.Validation("unsupported_payment_method", "only CARD and UPI can be saved")
	ErrInvalidCardDetails  = apperr.Validation("invalid_card", "card needs a brand, the last 4 digits and a valid expiry")
	ErrInvalidUPIHandle    = apperr.Validation("invalid_upi_handle", "UPI handle must look like name@bank")
	ErrTooManySavedEntries = apperr.Validation("too_many_entries", "you have reached the maximum number of saved entries")
)
