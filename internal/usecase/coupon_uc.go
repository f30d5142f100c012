// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"

	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/repository"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

type CouponUseCase interface {
	Create(ctx context.Context, code string, discountPercent int) (*model.Coupon, error)
	List(ctx context.Context, offset, limit int) ([]*model.Coupon, error)
}

type couponUC struct {
	coupons repository.CouponRepository
}

func NewCouponUseCase(coupons repository.CouponRepository) *couponUC {
	return &couponUC{coupons: coupons}
}

func (u *couponUC) Create(ctx context.Context, code string, discountPercent int) (*model.Coupon, error) {
	c, err := model.NewCoupon(code, discountPercent)
	if err != nil {
		return nil, err
	}
	if err := u.coupons.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (u *couponUC) List(ctx context.Context, offset, limit int) ([]*model.Coupon, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.coupons.List(ctx, offset, limit)
}
