package cart

import "errors"

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
