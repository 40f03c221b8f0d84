package checkout

import "errors"

var (
	// -- Revalidation --
	ErrSlotInvalidated    = errors.New("selected slot can no longer take this order")
	ErrRestaurantInactive = errors.New("a restaurant in the cart is not accepting orders")

	// -- Session --
	ErrCodeExhausted = errors.New("could not allocate an order code")
)
