package model

import (
	"strings"
	"time"

	"effects-store/internal/domain"

	"github.com/google/uuid"
)

// Coupon is a single-use percentage discount code. Consumption happens at
// checkout-intent time, before the payment outcome is known; a failed payment
// still burns the code.
type Coupon struct {
	ID              string
	Code            string // normalized upper-case, unique
	DiscountPercent int    // 1..100
	Used            bool
	UsedBy          *string
	UsedAt          *time.Time
	CreatedAt       time.Time
}

// NewCoupon constructs and validates a Coupon.
func NewCoupon(code string, discountPercent int) (*Coupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if discountPercent < 1 || discountPercent > 100 {
		return nil, domain.ErrInvalidArgument
	}
	return &Coupon{
		ID:              uuid.NewString(),
		Code:            code,
		DiscountPercent: discountPercent,
		CreatedAt:       time.Now(),
	}, nil
}

// NormalizeCouponCode upper-cases and trims a user-supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply returns the price after discount, in cents, rounded half-up to the
// nearest cent (equivalent to 2-decimal rounding of a decimal price).
func (c *Coupon) Apply(priceCents int64) int64 {
	return (priceCents*int64(100-c.DiscountPercent) + 50) / 100
}
