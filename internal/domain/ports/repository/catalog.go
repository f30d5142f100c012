package repository

import (
	"context"

	"effects-store/internal/domain/model"
)

// -----------------------------
// Catalog (read-only collaborator)
// -----------------------------

type CatalogRepository interface {
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	// FindBundle returns the bundle with its constituent product ids in
	// catalog order.
	FindBundle(ctx context.Context, id string) (*model.Bundle, error)
}
