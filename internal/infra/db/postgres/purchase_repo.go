package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*PostgresPurchaseRepo)(nil)

type PostgresPurchaseRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPurchaseRepo(db *pgxpool.Pool) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

const purchaseCols = `id, user_id, product_id, status, provider, external_ref, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p := &model.Purchase{}
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &status, &p.Provider, &p.ExternalRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PurchaseStatus(status)
	return p, nil
}

func (r *PostgresPurchaseRepo) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	row := r.db.QueryRow(ctx, `SELECT `+purchaseCols+` FROM purchases WHERE id=$1;`, id)
	return scanPurchase(row)
}

func (r *PostgresPurchaseRepo) FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Purchase, error) {
	row := r.db.QueryRow(ctx, `SELECT `+purchaseCols+` FROM purchases WHERE user_id=$1 AND product_id=$2;`, userID, productID)
	return scanPurchase(row)
}

func (r *PostgresPurchaseRepo) CompletedProductIDs(ctx context.Context, userID string, productIDs []string) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id FROM purchases
		WHERE user_id=$1 AND status='completed' AND product_id = ANY($2)
	`, userID, productIDs)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	owned := make(map[string]bool, len(productIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		owned[id] = true
	}
	return owned, rows.Err()
}

// EnsurePending inserts the row or resets a prior non-completed attempt to
// pending. The guarded conflict update never touches a completed row: a race
// with a concurrent confirmation surfaces as ErrAlreadyOwned instead of
// silently revoking an entitlement.
func (r *PostgresPurchaseRepo) EnsurePending(ctx context.Context, p *model.Purchase) (string, error) {
	const q = `
INSERT INTO purchases (id, user_id, product_id, status, provider, external_ref, created_at, updated_at)
VALUES ($1, $2, $3, 'pending', $4, '', NOW(), NOW())
ON CONFLICT (user_id, product_id) DO UPDATE
   SET status='pending', provider=EXCLUDED.provider, external_ref='', updated_at=NOW()
 WHERE purchases.status <> 'completed'
RETURNING id;`

	var id string
	if err := r.db.QueryRow(ctx, q, p.ID, p.UserID, p.ProductID, p.Provider).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrAlreadyOwned
		}
		return "", domain.ErrOperationFailed
	}
	return id, nil
}

func (r *PostgresPurchaseRepo) SetExternalRef(ctx context.Context, ids []string, externalRef string) error {
	_, err := r.db.Exec(ctx, `UPDATE purchases SET external_ref=$2, updated_at=NOW() WHERE id = ANY($1);`, ids, externalRef)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *PostgresPurchaseRepo) UpdateStatus(ctx context.Context, id string, status model.PurchaseStatus, externalRef string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE purchases
		   SET status=$2, external_ref=COALESCE(NULLIF($3,''), external_ref), updated_at=NOW()
		 WHERE id=$1;
	`, id, string(status), externalRef)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *PostgresPurchaseRepo) Upsert(ctx context.Context, p *model.Purchase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO purchases (id, user_id, product_id, status, provider, external_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (user_id, product_id) DO UPDATE
   SET status=EXCLUDED.status, provider=EXCLUDED.provider, external_ref=EXCLUDED.external_ref, updated_at=NOW();`

	_, err := r.db.Exec(ctx, q, p.ID, p.UserID, p.ProductID, string(p.Status), p.Provider, p.ExternalRef, p.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *PostgresPurchaseRepo) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	rows, err := r.db.Query(ctx, `SELECT `+purchaseCols+` FROM purchases WHERE user_id=$1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p := &model.Purchase{}
		var status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &status, &p.Provider, &p.ExternalRef, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.Status = model.PurchaseStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}
