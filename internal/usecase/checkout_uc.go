// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
	"effects-store/internal/domain/ports/repository"
	"effects-store/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutTarget is either a single product or a bundle, never both.
type CheckoutTarget struct {
	ProductID string
	BundleID  string
}

// CheckoutResult is what the client needs to continue the hosted flow.
type CheckoutResult struct {
	HostedURL   string
	OrderID     string
	PurchaseIDs []string
}

type CheckoutUseCase interface {
	// Create builds pending entitlement rows for the not-yet-owned subset of
	// the target, optionally consumes a coupon, and requests a hosted-checkout
	// resource from the gateway. No entitlement is granted here.
	Create(ctx context.Context, gw adapter.PaymentGateway, userID string, target CheckoutTarget, couponCode string) (*CheckoutResult, error)
}

type checkoutUC struct {
	purchases repository.PurchaseRepository
	catalog   repository.CatalogRepository
	coupons   repository.CouponRepository
	callbacks adapter.CallbackURLs
	log       *zerolog.Logger
}

func NewCheckoutUseCase(
	purchases repository.PurchaseRepository,
	catalog repository.CatalogRepository,
	coupons repository.CouponRepository,
	callbacks adapter.CallbackURLs,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		purchases: purchases,
		catalog:   catalog,
		coupons:   coupons,
		callbacks: callbacks,
		log:       logger,
	}
}

// checkoutTarget is the resolved form of a CheckoutTarget: a title, a charge
// amount, and the constituent product ids in catalog order.
type resolvedTarget struct {
	title      string
	priceCents int64
	currency   string
	productIDs []string
}

func (u *checkoutUC) resolve(ctx context.Context, target CheckoutTarget) (*resolvedTarget, error) {
	switch {
	case target.ProductID != "" && target.BundleID == "":
		p, err := u.catalog.FindProduct(ctx, target.ProductID)
		if err != nil {
			return nil, err
		}
		return &resolvedTarget{
			title:      p.Title,
			priceCents: p.PriceCents,
			currency:   p.Currency,
			productIDs: []string{p.ID},
		}, nil
	case target.BundleID != "" && target.ProductID == "":
		b, err := u.catalog.FindBundle(ctx, target.BundleID)
		if err != nil {
			return nil, err
		}
		if len(b.ProductIDs) == 0 {
			return nil, domain.ErrEmptyBundle
		}
		// The bundle's own price, never a sum of constituent prices.
		return &resolvedTarget{
			title:      b.Title,
			priceCents: b.PriceCents,
			currency:   b.Currency,
			productIDs: b.ProductIDs,
		}, nil
	default:
		return nil, domain.ErrInvalidArgument
	}
}

func (u *checkoutUC) Create(ctx context.Context, gw adapter.PaymentGateway, userID string, target CheckoutTarget, couponCode string) (*CheckoutResult, error) {
	rt, err := u.resolve(ctx, target)
	if err != nil {
		metrics.IncCheckout(gw.Name(), "rejected")
		return nil, err
	}

	// Only the not-yet-owned subset is payable. A fully-owned target is a
	// client error, not a server fault.
	owned, err := u.purchases.CompletedProductIDs(ctx, userID, rt.productIDs)
	if err != nil {
		return nil, err
	}
	payable := make([]string, 0, len(rt.productIDs))
	for _, id := range rt.productIDs {
		if !owned[id] {
			payable = append(payable, id)
		}
	}
	if len(payable) == 0 {
		metrics.IncCheckout(gw.Name(), "rejected")
		return nil, domain.ErrAlreadyOwned
	}

	// Find-or-create pending rows in catalog order; the resulting id order is
	// the reference order and must survive the provider round trip.
	purchaseIDs := make([]string, 0, len(payable))
	for _, productID := range payable {
		id, err := u.purchases.EnsurePending(ctx, &model.Purchase{
			ID:        model.NewPurchaseID(),
			UserID:    userID,
			ProductID: productID,
			Status:    model.PurchaseStatusPending,
			Provider:  gw.Name(),
		})
		if err != nil {
			return nil, err
		}
		purchaseIDs = append(purchaseIDs, id)
	}

	amount := rt.priceCents
	if couponCode != "" {
		coupon, err := u.coupons.FindUnused(ctx, model.NormalizeCouponCode(couponCode))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = domain.ErrInvalidCoupon
			}
			metrics.IncCheckout(gw.Name(), "rejected")
			return nil, err
		}
		amount = coupon.Apply(amount)
		// Consumed now, before the payment outcome is known. A failed payment
		// still burns the code; no rollback on later failure.
		if err := u.coupons.MarkUsed(ctx, coupon.Code, userID); err != nil {
			metrics.IncCheckout(gw.Name(), "rejected")
			return nil, err
		}
		metrics.IncCouponConsumed()
	}

	ref := model.NewReference(purchaseIDs...)
	intent, err := gw.CreateIntent(ctx, adapter.IntentRequest{
		AmountCents: amount,
		Currency:    rt.currency,
		Title:       rt.title,
		Reference:   ref,
		Callbacks:   u.callbacks,
	})
	if err != nil {
		u.log.Error().Err(err).Str("provider", gw.Name()).Str("reference", ref.Encode()).Msg("create intent failed")
		metrics.IncCheckout(gw.Name(), "failed")
		return nil, domain.ErrGatewayFailure
	}

	if err := u.purchases.SetExternalRef(ctx, purchaseIDs, intent.OrderID); err != nil {
		// The intent exists either way; reconciliation keys on purchase ids,
		// so a missing order stamp only degrades audit.
		u.log.Warn().Err(err).Str("order_id", intent.OrderID).Msg("stamping external ref failed")
	}

	metrics.IncCheckout(gw.Name(), "created")
	return &CheckoutResult{
		HostedURL:   intent.HostedURL,
		OrderID:     intent.OrderID,
		PurchaseIDs: purchaseIDs,
	}, nil
}
