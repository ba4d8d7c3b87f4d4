package domain

import "bazaar/internal/pkg/apperr"

var (
	ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "order_not_found", "order not found")

	// ErrStateChanged 条件更新没有命中：订单已被另一个请求修改
	ErrStateChanged = apperr.New(apperr.ErrInvalidTransition, "state_changed", "the order was modified by another request, reload and try again")

	ErrEmptyOrder          = apperr.Validation("empty_order", "an order needs at least one item")
	ErrMultipleStores      = apperr.Validation("multiple_stores", "all items in an order must come from the same store")
	ErrInvalidQuantity     = apperr.Validation("invalid_quantity", "item quantity must be a positive integer")
	ErrDuplicateItem       = apperr.Validation("duplicate_item", "each product can appear only once in an order")
	ErrProductUnavailable  = apperr.Validation("product_unavailable", "one or more products are no longer available")
	ErrOutOfStock          = apperr.Validation("out_of_stock", "not enough stock for one or more products")
	ErrInvalidPayment      = apperr.Validation("invalid_payment_method", "payment method must be COD, CARD or UPI")
	ErrInvalidStatus       = apperr.Validation("invalid_status", "unknown order status")
	ErrCancelNotAllowed    = apperr.New(apperr.ErrInvalidTransition, "cancel_not_allowed", "only orders that have not been confirmed can be cancelled")
	ErrShippingAddressMiss = apperr.Validation("address_required", "add a shipping address before placing an order")
)
