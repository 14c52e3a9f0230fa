package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrInvalidCode   = errors.New("invalid order code")

	// ErrDuplicateReference and ErrDuplicateCode are returned by the store when
	// an insert loses a uniqueness race.
	ErrDuplicateReference = errors.New("order for this payment reference already exists")
	ErrDuplicateCode      = errors.New("order code already in use")
)
