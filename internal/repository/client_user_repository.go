package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ClientUserRepository persists external client portal accounts.
type ClientUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.ClientUser, error)
	GetByID(ctx context.Context, id int64) (*domain.ClientUser, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type clientUserRepository struct {
	pool *pgxpool.Pool
}

// NewClientUserRepository returns a Postgres-backed implementation.
func NewClientUserRepository(pool *pgxpool.Pool) ClientUserRepository {
	return &clientUserRepository{pool: pool}
}

const clientUserSelect = `
        SELECT cu.id, cu.email, cu.password, cu.role, cu.client_id, c.name
        FROM client_users cu
        JOIN clients c ON c.id = cu.client_id`

func (r *clientUserRepository) GetByEmail(ctx context.Context, email string) (*domain.ClientUser, error) {
	return r.fetchSingle(ctx, clientUserSelect+" WHERE cu.email=$1", email)
}

func (r *clientUserRepository) GetByID(ctx context.Context, id int64) (*domain.ClientUser, error) {
	return r.fetchSingle(ctx, clientUserSelect+" WHERE cu.id=$1", id)
}

func (r *clientUserRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ClientUser, error) {
	var user domain.ClientUser
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ClientID,
		&user.CompanyName,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *clientUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE client_users SET password=$1 WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
