package transport

import (
	"errors"
	"net/http"

	"pickup-be/internal/admission"
	"pickup-be/internal/cart"
	"pickup-be/internal/checkout"
	"pickup-be/internal/coupon"
	"pickup-be/internal/logger"
	"pickup-be/internal/order"
	"pickup-be/internal/payment"
	"pickup-be/internal/slot"
	"pickup-be/internal/utils"

	"go.uber.org/zap"
)

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	err error
	apiError
}{
	// -- Cart --
	{cart.ErrCartEmpty, apiError{http.StatusUnprocessableEntity, "CART_EMPTY"}},
	{cart.ErrInvalidQuantity, apiError{http.StatusBadRequest, "INVALID_QUANTITY"}},
	{cart.ErrInvalidItem, apiError{http.StatusBadRequest, "INVALID_CART_ITEM"}},
	{cart.ErrCartItemNotFound, apiError{http.StatusNotFound, "CART_ITEM_NOT_FOUND"}},

	// -- Admission & slots --
	{admission.ErrShopFull, apiError{http.StatusConflict, "SHOP_FULL"}},
	{admission.ErrWindowNotFound, apiError{http.StatusNotFound, "WINDOW_NOT_FOUND"}},
	{slot.ErrDateInPast, apiError{http.StatusBadRequest, "DATE_IN_PAST"}},
	{slot.ErrSlotNotFound, apiError{http.StatusNotFound, "SLOT_NOT_FOUND"}},

	// -- Checkout --
	{checkout.ErrSlotInvalidated, apiError{http.StatusConflict, "SLOT_INVALIDATED"}},
	{checkout.ErrRestaurantInactive, apiError{http.StatusConflict, "RESTAURANT_INACTIVE"}},
	{checkout.ErrCodeExhausted, apiError{http.StatusServiceUnavailable, "ORDER_CODE_EXHAUSTED"}},

	// -- Coupons --
	{coupon.ErrCouponCodeRequired, apiError{http.StatusBadRequest, "COUPON_CODE_REQUIRED"}},
	{coupon.ErrInvalidCoupon, apiError{http.StatusUnprocessableEntity, "INVALID_COUPON"}},
	{coupon.ErrExpiredCoupon, apiError{http.StatusGone, "EXPIRED_COUPON"}},
	{coupon.ErrUsageLimitReached, apiError{http.StatusUnprocessableEntity, "USAGE_LIMIT_REACHED"}},
	{coupon.ErrUsageNotFound, apiError{http.StatusNotFound, "COUPON_USAGE_NOT_FOUND"}},

	// -- Orders & payment --
	{order.ErrOrderNotFound, apiError{http.StatusNotFound, "ORDER_NOT_FOUND"}},
	{payment.ErrPaymentUnavailable, apiError{http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE"}},
	{payment.ErrPaymentRejected, apiError{http.StatusPaymentRequired, "PAYMENT_REJECTED"}},
}

func classify(err error) (apiError, bool) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError, true
		}
	}
	return apiError{http.StatusInternalServerError, "INTERNAL"}, false
}

// writeError maps domain errors to a stable code. Unknown errors are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae, known := classify(err)
	if !known {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", ae.code, ae.status)
		return
	}
	utils.WriteJSONError(w, err.Error(), ae.code, ae.status)
}
