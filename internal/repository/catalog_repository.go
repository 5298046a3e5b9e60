package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CatalogRepository reads the client / infrastructure / project hierarchy.
type CatalogRepository interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	ListInfrastructures(ctx context.Context, clientID int64) ([]domain.Infrastructure, error)
	ListProjectsByInfrastructure(ctx context.Context, infrastructureID int64) ([]domain.Project, error)
	ListProjectsByClient(ctx context.Context, clientID int64) ([]domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a Postgres-backed implementation.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Client, error) {
		var c domain.Client
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func (r *catalogRepository) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	var c domain.Client
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM clients WHERE id=$1`, id).Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepository) ListInfrastructures(ctx context.Context, clientID int64) ([]domain.Infrastructure, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, client_id, name FROM infrastructures WHERE client_id=$1 ORDER BY name`, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Infrastructure, error) {
		var i domain.Infrastructure
		err := row.Scan(&i.ID, &i.ClientID, &i.Name)
		return i, err
	})
}

const projectSelect = `
        SELECT p.id, p.infrastructure_id, p.name, i.client_id, c.name
        FROM projects p
        JOIN infrastructures i ON i.id = p.infrastructure_id
        JOIN clients c ON c.id = i.client_id`

func scanProject(row pgx.CollectableRow) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.InfrastructureID, &p.Name, &p.ClientID, &p.ClientName)
	return p, err
}

func (r *catalogRepository) ListProjectsByInfrastructure(ctx context.Context, infrastructureID int64) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect+" WHERE p.infrastructure_id=$1 ORDER BY p.name", infrastructureID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProject)
}

func (r *catalogRepository) ListProjectsByClient(ctx context.Context, clientID int64) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect+" WHERE i.client_id=$1 ORDER BY p.name", clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProject)
}

func (r *catalogRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect+" WHERE p.id=$1", id)
	if err != nil {
		return nil, err
	}
	project, err := pgx.CollectExactlyOneRow(rows, scanProject)
	if err != nil {
		return nil, err
	}
	return &project, nil
}
