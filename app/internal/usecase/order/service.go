package order

import (
	"context"

	domorder "example.com/storefront/app/internal/domain/order"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*domorder.Order, error)
	List(ctx context.Context, filter domorder.ListFilter) ([]*domorder.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domorder.Status) (*domorder.Order, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]*domorder.Order, error) {
	return s.repo.List(ctx, domorder.ListFilter{UserID: &userID})
}

func (s *Service) List(ctx context.Context, filter domorder.ListFilter) ([]*domorder.Order, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domorder.ErrInvalidStatus
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domorder.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status domorder.Status) (*domorder.Order, error) {
	if !status.IsValid() {
		return nil, domorder.ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
