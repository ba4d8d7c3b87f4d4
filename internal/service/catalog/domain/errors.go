package domain

import "bazaar/internal/pkg/apperr"

var (
	ErrStoreNotFound       = apperr.New(apperr.ErrNotFound, "store_not_found", "store not found")
	ErrProductNotFound     = apperr.New(apperr.ErrNotFound, "product_not_found", "product not found")
	ErrStoreCouponNotFound = apperr.New(apperr.ErrNotFound, "coupon_not_found", "coupon not found")
	ErrCouponNotFound      = apperr.New(apperr.ErrNotFound, "coupon_not_found", "coupon not found")

	// ErrStateChanged 条件更新没有命中任何行：另一个请求已经先完成了状态变更
	ErrStateChanged = apperr.New(apperr.ErrInvalidTransition, "state_changed", "the record was modified by another request, reload and try again")

	ErrStoreNotSelling = apperr.New(apperr.ErrForbidden, "store_not_active", "your store must be approved and active to do this")

	ErrDuplicateUsername    = apperr.Validation("username_taken", "store username is already taken")
	ErrDuplicateStoreEmail  = apperr.Validation("email_taken", "a store with this email already exists")
	ErrAlreadyHasStore      = apperr.Validation("store_exists", "you have already applied for a store")
	ErrDuplicateCouponCode  = apperr.Validation("coupon_code_taken", "a coupon with this code already exists")
	ErrInvalidReviewStatus  = apperr.Validation("invalid_status", "status must be approved or rejected")
	ErrInvalidStockQuantity = apperr.Validation("invalid_quantity", "quantity must be a positive integer")
	ErrInvalidStockOp       = apperr.Validation("invalid_operation", "operation must be add or subtract")
	ErrInvalidPrice         = apperr.Validation("invalid_price", "price must be greater than zero")
	ErrTooManyImages        = apperr.Validation("too_many_images", "a product can have at most 4 images")
	ErrInvalidSubtotal      = apperr.Validation("invalid_subtotal", "subtotal cannot be negative")
	ErrInvalidResetToken    = apperr.Validation("invalid_reset_token", "the reset link is invalid or has expired")
)

// 优惠券不可用的原因，按检查顺序排列
var (
	ErrCouponNotApproved   = apperr.Validation("coupon_not_approved", "this coupon has not been approved")
	ErrCouponInactive      = apperr.Validation("coupon_inactive", "this coupon is not active")
	ErrCouponExpired       = apperr.Validation("coupon_expired", "this coupon has expired")
	ErrMinOrderNotMet      = apperr.Validation("min_order_not_met", "order subtotal is below the coupon minimum")
	ErrCouponNewUsersOnly  = apperr.Validation("new_users_only", "this coupon is only for first orders")
	ErrCouponMembersOnly   = apperr.Validation("members_only", "this coupon is only for members")
	ErrCouponUsageExceeded = apperr.Validation("usage_limit_reached", "this coupon has reached its usage limit")
	ErrCouponNotForYou     = apperr.Validation("coupon_not_eligible", "this coupon is not available for your account")
)
