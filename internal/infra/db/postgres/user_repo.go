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

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(db *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Email, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	u.Role = model.Role(role)
	return u, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, role, created_at FROM users WHERE id=$1;`, id)
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, role, created_at FROM users WHERE LOWER(email)=LOWER($1) LIMIT 1;`, email)
	return scanUser(row)
}

func (r *PostgresUserRepo) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, role, created_at FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2;`, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u := &model.User{}
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		u.Role = model.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET role=$2 WHERE id=$1;`, id, string(role))
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
