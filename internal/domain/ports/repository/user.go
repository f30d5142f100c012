package repository

import (
	"context"

	"effects-store/internal/domain/model"
)

// -----------------------------
// Users (identity directory)
// -----------------------------

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail matches case-insensitively; legacy postbacks identify the
	// buyer only by email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}
