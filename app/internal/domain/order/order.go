package order

import (
	"time"

	"github.com/shopspring/decimal"

	"example.com/storefront/app/internal/domain/payment"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// StatusSettled is the status every order is created with: settlement means
// the funds are confirmed.
const StatusSettled = StatusDelivered

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether an order in this status no longer pins the
// products it references.
func (s Status) IsClosed() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ClosedStatuses lists the statuses for which IsClosed is true.
func ClosedStatuses() []Status {
	return []Status{StatusDelivered, StatusCancelled}
}

type Order struct {
	ID            int64
	Code          string
	UserID        int64
	Payer         payment.Payer
	Amount        decimal.Decimal
	TransactionID string
	Status        Status
	Items         []OrderItem
	CreatedAt     time.Time
}

func (o *Order) FullName() string {
	return o.Payer.FullName()
}

// UnavailableProductName is shown for items whose product has been deleted.
const UnavailableProductName = "product no longer available"

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	// ProductName is empty when the product row no longer exists.
	ProductName string
	Quantity    int64
	Amount      decimal.Decimal
	Paid        bool
}

func (i OrderItem) ProductAvailable() bool {
	return i.ProductName != ""
}

func (i OrderItem) DisplayName() string {
	if !i.ProductAvailable() {
		return UnavailableProductName
	}
	return i.ProductName
}

// Draft is everything settlement knows about an order before it is written.
type Draft struct {
	Code          string
	UserID        int64
	Payer         payment.Payer
	Amount        decimal.Decimal
	TransactionID string
}

type ListFilter struct {
	Status *Status
	UserID *int64
}
