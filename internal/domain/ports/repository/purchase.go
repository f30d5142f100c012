package repository

import (
	"context"

	"effects-store/internal/domain/model"
)

// -----------------------------
// Purchases (entitlements)
// -----------------------------

type PurchaseRepository interface {
	FindByID(ctx context.Context, id string) (*model.Purchase, error)
	// FindByUserAndProduct returns the single row for (userID, productID),
	// or domain.ErrNotFound.
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Purchase, error)
	// CompletedProductIDs filters productIDs down to those the user owns.
	CompletedProductIDs(ctx context.Context, userID string, productIDs []string) (map[string]bool, error)
	// EnsurePending creates the (userID, productID) row as pending, or resets
	// an existing non-completed row to pending with the given provider. The
	// surviving row id is returned either way.
	EnsurePending(ctx context.Context, p *model.Purchase) (string, error)
	// SetExternalRef stamps the provider order/session id on freshly pended rows.
	SetExternalRef(ctx context.Context, ids []string, externalRef string) error
	// UpdateStatus overwrites status and external ref by purchase id. Re-applying
	// the same terminal status must be a no-op in effect. Returns the number of
	// rows matched so reconcilers can log unmatched references.
	UpdateStatus(ctx context.Context, id string, status model.PurchaseStatus, externalRef string) (int64, error)
	// Upsert writes a full row keyed on (user_id, product_id); used by the
	// legacy postback path which arrives with its own status.
	Upsert(ctx context.Context, p *model.Purchase) error
	// ListByUser returns all rows for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error)
}
