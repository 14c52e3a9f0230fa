package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("product price must be positive")
	ErrInvalidName     = errors.New("product name is required")
)
