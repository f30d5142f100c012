package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*PostgresCatalogRepo)(nil)

// PostgresCatalogRepo reads the storefront catalog. This service never writes
// products or bundles; the catalog tooling owns them.
type PostgresCatalogRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepo(db *pgxpool.Pool) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{db: db}
}

func (r *PostgresCatalogRepo) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, title, price_cents, currency, drive_file_id, file_url, fallback_url, active, created_at
		FROM products WHERE id=$1;
	`, id)

	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Title, &p.PriceCents, &p.Currency, &p.DriveFileID, &p.FileURL, &p.FallbackURL, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *PostgresCatalogRepo) FindBundle(ctx context.Context, id string) (*model.Bundle, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, title, price_cents, currency, active, created_at
		FROM bundles WHERE id=$1;
	`, id)

	b := &model.Bundle{}
	if err := row.Scan(&b.ID, &b.Title, &b.PriceCents, &b.Currency, &b.Active, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id FROM bundle_products WHERE bundle_id=$1 ORDER BY position;
	`, id)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		b.ProductIDs = append(b.ProductIDs, pid)
	}
	return b, rows.Err()
}
