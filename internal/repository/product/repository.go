package product

import (
	"context"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
)

// Repository reads products and owns the only two stock mutation
// primitives in the system. Every method takes an explicit querier so the
// transaction coordinator can pass its transaction down; callers outside a
// transaction pass the pool.
type Repository interface {
	Get(ctx context.Context, q db.Querier, kind domain.ProductKind, id string) (*domain.Product, error)
	List(ctx context.Context, q db.Querier, kind domain.ProductKind) ([]domain.Product, error)
	ListIDsByProvider(ctx context.Context, q db.Querier, kind domain.ProductKind, providerID string) ([]string, error)
	DecrementStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error
	RestoreStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error
}
