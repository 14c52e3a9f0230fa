package user

import (
	"context"

	dom "example.com/storefront/app/internal/domain/user"
)

type Service struct {
	repo dom.Repository
}

func NewService(repo dom.Repository) *Service {
	return &Service{repo: repo}
}

type UpdateRoleInput struct {
	ExecutorID int64
	ID         int64
	RoleCode   dom.RoleCode
}

func (s *Service) GetUser(ctx context.Context, id int64) (*dom.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, filter dom.ListUsersFilter) ([]*dom.User, error) {
	if filter.RoleCode != nil && !filter.RoleCode.IsValid() {
		return nil, dom.ErrInvalidRoleCode
	}
	return s.repo.List(ctx, filter)
}

// UpdateRole changes another user's role. Admins cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, in UpdateRoleInput) (*dom.User, error) {
	if !in.RoleCode.IsValid() {
		return nil, dom.ErrInvalidRoleCode
	}
	if in.ExecutorID == in.ID {
		return nil, dom.ErrCannotChangeOwnRole
	}
	return s.repo.UpdateRole(ctx, in.ID, in.RoleCode)
}
