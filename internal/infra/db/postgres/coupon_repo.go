package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
	"effects-store/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*PostgresCouponRepo)(nil)

type PostgresCouponRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCouponRepo(db *pgxpool.Pool) *PostgresCouponRepo {
	return &PostgresCouponRepo{db: db}
}

func (r *PostgresCouponRepo) Save(ctx context.Context, c *model.Coupon) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO coupons (id, code, discount_percent, used, used_by, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Code, c.DiscountPercent, c.Used, c.UsedBy, c.UsedAt, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Duplicate code; the unique index on coupons.code holds the line.
			return domain.ErrInvalidArgument
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *PostgresCouponRepo) FindUnused(ctx context.Context, code string) (*model.Coupon, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, code, discount_percent, used, used_by, used_at, created_at
		FROM coupons WHERE code=$1 AND used=false LIMIT 1;
	`, code)

	c := &model.Coupon{}
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.Used, &c.UsedBy, &c.UsedAt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

// MarkUsed is a guarded single-row update: only one consumer can flip
// used=false to true, whichever checkout gets there first.
func (r *PostgresCouponRepo) MarkUsed(ctx context.Context, code, userID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE coupons SET used=true, used_by=$2, used_at=NOW()
		WHERE code=$1 AND used=false;
	`, code, userID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidCoupon
	}
	return nil
}

func (r *PostgresCouponRepo) List(ctx context.Context, offset, limit int) ([]*model.Coupon, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, discount_percent, used, used_by, used_at, created_at
		FROM coupons ORDER BY created_at DESC OFFSET $1 LIMIT $2;
	`, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Coupon
	for rows.Next() {
		c := &model.Coupon{}
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.Used, &c.UsedBy, &c.UsedAt, &c.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
