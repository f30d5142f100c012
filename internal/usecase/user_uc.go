// File: internal/usecase/user_uc.go
package usecase

import (
	"context"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, int, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

type userUC struct {
	users repository.UserRepository
}

func NewUserUseCase(users repository.UserRepository) *userUC {
	return &userUC{users: users}
}

func (u *userUC) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, id)
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, int, error) {
	users, err := u.users.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (u *userUC) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if role != model.RoleUser && role != model.RoleAdmin {
		return domain.ErrInvalidArgument
	}
	return u.users.UpdateRole(ctx, id, role)
}
