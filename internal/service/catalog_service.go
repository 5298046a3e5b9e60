package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// CatalogService exposes the client / infrastructure / project hierarchy.
type CatalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService builds the service.
func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) Clients(ctx context.Context, p domain.Principal) ([]domain.Client, error) {
	if _, err := policy.RequireInternal(p); err != nil {
		return nil, err
	}
	clients, err := s.catalog.ListClients(ctx)
	return nonNil(clients), err
}

func (s *CatalogService) Infrastructures(ctx context.Context, p domain.Principal, clientID int64) ([]domain.Infrastructure, error) {
	if _, err := policy.RequireInternal(p); err != nil {
		return nil, err
	}
	infras, err := s.catalog.ListInfrastructures(ctx, clientID)
	return nonNil(infras), err
}

func (s *CatalogService) Projects(ctx context.Context, p domain.Principal, infrastructureID int64) ([]domain.Project, error) {
	if _, err := policy.RequireInternal(p); err != nil {
		return nil, err
	}
	projects, err := s.catalog.ListProjectsByInfrastructure(ctx, infrastructureID)
	return nonNil(projects), err
}

// ClientProjects lists every project of a client company.
func (s *CatalogService) ClientProjects(ctx context.Context, p domain.Principal, clientID int64) ([]domain.Project, error) {
	if err := policy.CanAccessClient(p, clientID); err != nil {
		return nil, err
	}
	projects, err := s.catalog.ListProjectsByClient(ctx, clientID)
	return nonNil(projects), err
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
