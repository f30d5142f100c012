package repository

import (
	"context"

	"effects-store/internal/domain/model"
)

// -----------------------------
// Coupons
// -----------------------------

type CouponRepository interface {
	Save(ctx context.Context, c *model.Coupon) error
	// FindUnused looks up an unused coupon by normalized code, or
	// domain.ErrNotFound.
	FindUnused(ctx context.Context, code string) (*model.Coupon, error)
	// MarkUsed consumes the coupon atomically; returns domain.ErrInvalidCoupon
	// when the code was already used by a concurrent checkout.
	MarkUsed(ctx context.Context, code, userID string) error
	List(ctx context.Context, offset, limit int) ([]*model.Coupon, error)
}
