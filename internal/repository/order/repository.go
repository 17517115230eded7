package order

import (
	"context"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
)

// Repository persists orders. Orders are append-only except for status
// fields; nothing here deletes.
type Repository interface {
	Create(ctx context.Context, q db.Querier, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, q db.Querier, id string) (*domain.Order, error)
	ListByOwner(ctx context.Context, q db.Querier, ownerID string) ([]domain.Order, error)
	List(ctx context.Context, q db.Querier, status domain.OrderStatus) ([]domain.Order, error)
	ListContainingProducts(ctx context.Context, q db.Querier, productIDs []string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, q db.Querier, id string, status domain.OrderStatus) error
	UpdateLineProviderStatus(ctx context.Context, q db.Querier, orderID string, productIDs []string, status domain.OrderStatus) (int, error)
}
