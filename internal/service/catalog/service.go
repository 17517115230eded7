package catalog

import (
	"context"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
	productrepo "partsmarket/internal/repository/product"
)

// Service is the read surface of the product stock store. Catalog writes
// (provider/admin CRUD) live outside this system; the core only reads.
type Service struct {
	q    db.Querier
	repo productrepo.Repository
}

func New(pool db.Querier, repo productrepo.Repository) *Service {
	return &Service{q: pool, repo: repo}
}

func (s *Service) List(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error) {
	return s.repo.List(ctx, s.q, kind)
}

func (s *Service) Get(ctx context.Context, kind domain.ProductKind, id string) (*domain.Product, error) {
	return s.repo.Get(ctx, s.q, kind, id)
}
