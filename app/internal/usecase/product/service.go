package product

import (
	"context"
	"strings"

	domcategory "example.com/storefront/app/internal/domain/category"
	dom "example.com/storefront/app/internal/domain/product"
)

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domcategory.Category, error)
}

type Service struct {
	repo         dom.Repository
	categoryRepo CategoryRepository
}

func NewService(repo dom.Repository, categoryRepo CategoryRepository) *Service {
	return &Service{repo: repo, categoryRepo: categoryRepo}
}

func (s *Service) Create(ctx context.Context, p *dom.Product) (*dom.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, dom.ErrInvalidName
	}
	if !p.Price.IsPositive() {
		return nil, dom.ErrInvalidPrice
	}
	if _, err := s.categoryRepo.GetByID(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Update merges the non-zero fields of p into the stored product. A price
// change reprices every cart line holding the product.
func (s *Service) Update(ctx context.Context, p *dom.Product) (*dom.Product, error) {
	if p.Price.IsNegative() {
		return nil, dom.ErrInvalidPrice
	}

	existed, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(p.Name); name != "" {
		existed.Name = name
	}
	if p.Description != "" {
		existed.Description = p.Description
	}
	if p.Price.IsPositive() {
		existed.Price = p.Price
	}
	if p.CategoryID > 0 && p.CategoryID != existed.CategoryID {
		if _, err := s.categoryRepo.GetByID(ctx, p.CategoryID); err != nil {
			return nil, err
		}
		existed.CategoryID = p.CategoryID
	}
	if p.Features != nil {
		existed.Features = p.Features
	}
	if p.Images != nil {
		existed.Images = p.Images
	}
	existed.IsActive = p.IsActive

	return s.repo.Update(ctx, existed)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*dom.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter dom.ListFilter) ([]*dom.Product, error) {
	return s.repo.List(ctx, filter)
}
