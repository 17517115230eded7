package cart

import (
	"context"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
)

// Repository persists carts and their line items. Mutations are written
// against an explicit querier so the cart engine can run them inside the
// transaction boundary of one logical operation.
type Repository interface {
	GetByOwner(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error)
	Create(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error)
	InsertLine(ctx context.Context, q db.Querier, cartID string, line domain.CartLine) error
	UpdateLineQuantity(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind, quantity int) error
	DeleteLine(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind) (bool, error)
	UpdateTotal(ctx context.Context, q db.Querier, cartID string) error
	Delete(ctx context.Context, q db.Querier, cartID string) error
}
