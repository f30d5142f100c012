// File: internal/usecase/download_uc.go
package usecase

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/adapter"
	"effects-store/internal/domain/ports/repository"
)

// Compile-time check
var _ DownloadUseCase = (*downloadUC)(nil)

const (
	SourceDrive = "drive"
	SourceURL   = "url"
)

type DownloadUseCase interface {
	// Authorize admits the caller to a product's asset. Ownership (a completed
	// purchase row) is the only admission criterion; adminOverride swaps it for
	// a role check done by the caller.
	Authorize(ctx context.Context, userID, productID string, adminOverride bool) (*model.Product, error)

	// Open resolves the asset source and returns a stream. The drive-hosted
	// source takes priority over a directly-hosted URL when both are set.
	Open(ctx context.Context, product *model.Product) (source string, meta *adapter.AssetMeta, rc io.ReadCloser, err error)
}

type downloadUC struct {
	purchases repository.PurchaseRepository
	catalog   repository.CatalogRepository
	assets    adapter.AssetFetcher
	log       *zerolog.Logger
}

func NewDownloadUseCase(
	purchases repository.PurchaseRepository,
	catalog repository.CatalogRepository,
	assets adapter.AssetFetcher,
	logger *zerolog.Logger,
) *downloadUC {
	return &downloadUC{purchases: purchases, catalog: catalog, assets: assets, log: logger}
}

func (u *downloadUC) Authorize(ctx context.Context, userID, productID string, adminOverride bool) (*model.Product, error) {
	if productID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !adminOverride {
		p, err := u.purchases.FindByUserAndProduct(ctx, userID, productID)
		if err != nil {
			if err == domain.ErrNotFound {
				return nil, domain.ErrForbidden
			}
			return nil, err
		}
		if p.Status != model.PurchaseStatusCompleted {
			return nil, domain.ErrForbidden
		}
	}
	return u.catalog.FindProduct(ctx, productID)
}

func (u *downloadUC) Open(ctx context.Context, product *model.Product) (string, *adapter.AssetMeta, io.ReadCloser, error) {
	switch {
	case product.DriveFileID != "":
		meta, rc, err := u.assets.FetchDrive(ctx, product.DriveFileID)
		return SourceDrive, meta, rc, err
	case product.FileURL != "":
		meta, rc, err := u.assets.FetchURL(ctx, product.FileURL)
		return SourceURL, meta, rc, err
	default:
		return "", nil, nil, domain.ErrNotFound
	}
}
