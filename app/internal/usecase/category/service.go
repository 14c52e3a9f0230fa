package category

import (
	"context"
	"strings"

	dom "example.com/storefront/app/internal/domain/category"
)

type Service struct {
	repo dom.Repository
}

func NewService(repo dom.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, c *dom.Category) (*dom.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, dom.ErrCategoryInvalidName
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c *dom.Category) (*dom.Category, error) {
	existed, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(c.Name); name != "" {
		existed.Name = name
	}
	if c.Description != "" {
		existed.Description = c.Description
	}

	return s.repo.Update(ctx, existed)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*dom.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*dom.Category, error) {
	return s.repo.List(ctx)
}
