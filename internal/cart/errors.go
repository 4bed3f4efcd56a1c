package cart

import "errors"

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidProduct = errors.New("invalid product")
	ErrQuantityLimit  = errors.New("quantity out of range")
	ErrOrderNotFound  = errors.New("order not found")
	ErrNoOrderSource  = errors.New("no order service configured")
)
