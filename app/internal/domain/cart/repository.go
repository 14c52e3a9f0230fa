package cart

import "context"

type Repository interface {
	AddItem(ctx context.Context, userID, productID, quantity int64) (*Item, error)
	SetQuantity(ctx context.Context, userID, productID, quantity int64) (*Item, error)
	RemoveItem(ctx context.Context, userID, productID int64) error
	ListItems(ctx context.Context, userID int64) ([]Item, error)
	Get(ctx context.Context, userID int64) (*Cart, error)
	Clear(ctx context.Context, userID int64) error
	// ListCarts returns every cart holding at least one line, ordered by user.
	ListCarts(ctx context.Context) ([]Cart, error)

	SetItemQuantity(ctx context.Context, itemID, quantity int64) (*Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
}
