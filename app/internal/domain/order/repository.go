package order

import "context"

type Repository interface {
	// Settle writes the order, snapshots the user's cart into order items and
	// empties the cart in one transaction.
	Settle(ctx context.Context, d Draft) (*Order, error)
	FindExisting(ctx context.Context, reference, code string) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	GetByCode(ctx context.Context, code string) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error)
}
