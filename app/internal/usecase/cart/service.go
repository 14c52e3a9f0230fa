package cart

import (
	"context"

	domcart "example.com/storefront/app/internal/domain/cart"
	domuser "example.com/storefront/app/internal/domain/user"
)

type CartRepository interface {
	domcart.Repository
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domuser.User, error)
}

type Service struct {
	cartRepo CartRepository
	userRepo UserRepository
}

func NewService(cartRepo CartRepository, userRepo UserRepository) *Service {
	return &Service{
		cartRepo: cartRepo,
		userRepo: userRepo,
	}
}

func (s *Service) GetCart(ctx context.Context, userID int64) (*domcart.Cart, error) {
	return s.cartRepo.Get(ctx, userID)
}

// AddItem adds quantity to the user's line for the product, creating the cart
// and the line as needed.
func (s *Service) AddItem(ctx context.Context, userID, productID, quantity int64) (*domcart.Item, error) {
	if quantity <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}
	return s.cartRepo.AddItem(ctx, userID, productID, quantity)
}

func (s *Service) UpdateItem(ctx context.Context, userID, productID, quantity int64) (*domcart.Item, error) {
	if quantity <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}
	return s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.cartRepo.RemoveItem(ctx, userID, productID)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.cartRepo.Clear(ctx, userID)
}

func (s *Service) UserCart(ctx context.Context, userID int64) (*domcart.Cart, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.cartRepo.Get(ctx, userID)
}

func (s *Service) AllCarts(ctx context.Context) ([]domcart.Cart, error) {
	return s.cartRepo.ListCarts(ctx)
}

func (s *Service) UpdateCartItem(ctx context.Context, itemID, quantity int64) (*domcart.Item, error) {
	if quantity <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}
	return s.cartRepo.SetItemQuantity(ctx, itemID, quantity)
}

func (s *Service) RemoveCartItem(ctx context.Context, itemID int64) error {
	return s.cartRepo.DeleteItem(ctx, itemID)
}

func (s *Service) ClearUserCart(ctx context.Context, userID int64) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.cartRepo.Clear(ctx, userID)
}
