// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
	"effects-store/internal/domain/ports/repository"
	"effects-store/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

type ReconcileUseCase interface {
	// ApplyConfirmation fetches the settled outcome for a provider identifier
	// and overwrites every referenced purchase row with the mapped status.
	// Idempotent: re-delivery re-applies the same status with no further
	// effect. Returns the confirmation and the purchase ids that matched rows.
	ApplyConfirmation(ctx context.Context, gw adapter.PaymentGateway, identifier string) (*adapter.Confirmation, []string, error)

	// ApplyPostback upserts an entitlement row from a legacy server-pushed
	// payload. Missing user or product is not an error: the legacy processor
	// must never be driven into retries by an application-level mismatch.
	ApplyPostback(ctx context.Context, txnID, productID, email string, status model.PurchaseStatus) error
}

type reconcileUC struct {
	purchases repository.PurchaseRepository
	catalog   repository.CatalogRepository
	users     repository.UserRepository
	log       *zerolog.Logger
}

func NewReconcileUseCase(
	purchases repository.PurchaseRepository,
	catalog repository.CatalogRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{purchases: purchases, catalog: catalog, users: users, log: logger}
}

func (u *reconcileUC) ApplyConfirmation(ctx context.Context, gw adapter.PaymentGateway, identifier string) (*adapter.Confirmation, []string, error) {
	c, err := gw.Confirm(ctx, identifier)
	if err != nil {
		u.log.Error().Err(err).Str("provider", gw.Name()).Str("identifier", identifier).Msg("confirm failed")
		return nil, nil, domain.ErrGatewayFailure
	}
	if c.Reference.Empty() {
		u.log.Warn().Str("provider", gw.Name()).Str("identifier", identifier).Msg("confirmation carried no reference")
		return c, nil, nil
	}

	// A bundle payment settles several rows; each is an independent atomic
	// single-row overwrite, so partial re-delivery converges without locking.
	applied := make([]string, 0, len(c.Reference))
	for _, purchaseID := range c.Reference {
		matched, err := u.purchases.UpdateStatus(ctx, purchaseID, c.Status, c.PaymentID)
		if err != nil {
			return c, applied, err
		}
		if matched == 0 {
			u.log.Warn().Str("purchase_id", purchaseID).Str("provider", gw.Name()).Msg("reference matched no purchase row")
			continue
		}
		applied = append(applied, purchaseID)
		metrics.IncReconciliation(gw.Name(), string(c.Status))
		if c.Status == model.PurchaseStatusCompleted {
			u.recordRevenue(ctx, purchaseID)
		}
	}
	return c, applied, nil
}

// recordRevenue counts the list-price value of a completed purchase. Discounts
// are not subtracted here; the counter tracks catalog value, not settlements.
func (u *reconcileUC) recordRevenue(ctx context.Context, purchaseID string) {
	p, err := u.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return
	}
	product, err := u.catalog.FindProduct(ctx, p.ProductID)
	if err != nil {
		return
	}
	metrics.AddRevenue(product.Currency, product.PriceCents)
}

func (u *reconcileUC) ApplyPostback(ctx context.Context, txnID, productID, email string, status model.PurchaseStatus) error {
	if email == "" || productID == "" {
		u.log.Warn().Str("txn_id", txnID).Msg("postback missing buyer email or product id; acknowledged without effect")
		return nil
	}
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrNotFound {
			u.log.Warn().Str("txn_id", txnID).Str("email", email).Msg("postback buyer not found; acknowledged without effect")
			return nil
		}
		return err
	}

	now := time.Now()
	if err := u.purchases.Upsert(ctx, &model.Purchase{
		ID:          model.NewPurchaseID(),
		UserID:      user.ID,
		ProductID:   productID,
		Status:      status,
		Provider:    "payt",
		ExternalRef: txnID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return err
	}
	metrics.IncReconciliation("payt", string(status))
	return nil
}
