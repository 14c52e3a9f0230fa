package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  int64
	IsActive    bool
	Features    []string
	Images      []string
	CreatedAt   time.Time
}

type ListFilter struct {
	CategoryID *int64
	OnlyActive bool
}
