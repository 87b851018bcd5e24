package services

import (
	"context"

	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	List(ctx context.Context, filter types.UserFilter) ([]types.User, int, error)
}

// AdminSummary is the public view of an administrator account.
type AdminSummary struct {
	ID    int        `json:"id"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

// UserService encapsulates account lookups outside the auth pipeline.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetUser returns a regular user account. Accounts with any other role are
// reported as store.ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id int) (types.UserSummary, error) {
	user, err := s.getWithRole(ctx, id, types.RoleUser)
	if err != nil {
		return types.UserSummary{}, err
	}
	return user.Summary(), nil
}

// GetAdmin returns an administrator account, store.ErrNotFound otherwise.
func (s *UserService) GetAdmin(ctx context.Context, id int) (AdminSummary, error) {
	user, err := s.getWithRole(ctx, id, types.RoleAdmin)
	if err != nil {
		return AdminSummary{}, err
	}
	return AdminSummary{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *UserService) List(ctx context.Context, filter types.UserFilter) (types.Page[types.UserSummary], error) {
	filter.PageRequest = filter.PageRequest.Normalize()

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return types.Page[types.UserSummary]{}, err
	}

	items := make([]types.UserSummary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}
	return types.NewPage(filter.PageRequest, items, total), nil
}

func (s *UserService) getWithRole(ctx context.Context, id int, role types.Role) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if user.Role != role {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}
