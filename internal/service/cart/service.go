package cart

import (
	"context"
	"errors"
	"fmt"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
)

// Service is the cart engine: it mutates carts under stock-aware
// invariants. Stock itself is never changed here; reservation happens only
// at checkout, so removing an item has nothing to hand back.
type Service struct {
	tx       transactor
	q        db.Querier
	carts    cartRepo
	products productRepo
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(q db.Querier) error) error
}

type cartRepo interface {
	GetByOwner(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error)
	Create(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error)
	InsertLine(ctx context.Context, q db.Querier, cartID string, line domain.CartLine) error
	UpdateLineQuantity(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind, quantity int) error
	DeleteLine(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind) (bool, error)
	UpdateTotal(ctx context.Context, q db.Querier, cartID string) error
	Delete(ctx context.Context, q db.Querier, cartID string) error
}

type productRepo interface {
	Get(ctx context.Context, q db.Querier, kind domain.ProductKind, id string) (*domain.Product, error)
}

// New wires the cart engine. pool serves read-only paths; every mutation
// acquires its own transaction from tx.
func New(tx transactor, pool db.Querier, carts cartRepo, products productRepo) *Service {
	return &Service{tx: tx, q: pool, carts: carts, products: products}
}

// ItemInput identifies a product line and a requested quantity. Kind is
// already parsed at the HTTP boundary.
type ItemInput struct {
	ProductID string             `json:"productId"`
	Kind      domain.ProductKind `json:"kind"`
	Quantity  int                `json:"quantity"`
}

// Get returns the owner's cart, or an empty one if none exists. Lines whose
// product has since been deleted are dropped and the total recomputed, so
// stale carts heal on read.
func (s *Service) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByOwner(ctx, s.q, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Cart{OwnerID: ownerID, Lines: []domain.CartLine{}}, nil
		}
		return nil, err
	}

	var stale []domain.CartLine
	for _, line := range cart.Lines {
		if _, err := s.products.Get(ctx, s.q, line.ProductKind, line.ProductID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				stale = append(stale, line)
				continue
			}
			return nil, err
		}
	}
	if len(stale) == 0 {
		return cart, nil
	}

	err = s.tx.WithinTx(ctx, func(q db.Querier) error {
		for _, line := range stale {
			if _, err := s.carts.DeleteLine(ctx, q, cart.ID, line.ProductID, line.ProductKind); err != nil {
				return err
			}
		}
		if err := s.carts.UpdateTotal(ctx, q, cart.ID); err != nil {
			return err
		}
		cart, err = s.carts.GetByOwner(ctx, q, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem appends a new line with the product's current price snapshotted.
// Adding a product already in the cart fails; use SetItemQuantity instead.
func (s *Service) AddItem(ctx context.Context, ownerID string, in ItemInput) (*domain.Cart, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var cart *domain.Cart
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.getOrCreate(ctx, q, ownerID)
		if err != nil {
			return err
		}
		if findLine(c, in.ProductID, in.Kind) != nil {
			return domain.ErrDuplicateItem
		}

		product, err := s.products.Get(ctx, q, in.Kind, in.ProductID)
		if err != nil {
			return err
		}
		if product.Stock < in.Quantity {
			return fmt.Errorf("%w for %s", domain.ErrInsufficientStock, product.Name)
		}

		line := domain.CartLine{
			ProductID:      in.ProductID,
			ProductKind:    in.Kind,
			Quantity:       in.Quantity,
			UnitPriceCents: product.PriceCents,
		}
		if err := s.carts.InsertLine(ctx, q, c.ID, line); err != nil {
			return err
		}
		if err := s.carts.UpdateTotal(ctx, q, c.ID); err != nil {
			return err
		}
		cart, err = s.carts.GetByOwner(ctx, q, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// SetItemQuantity overwrites the line's quantity with the supplied absolute
// value (upsert: an absent line is inserted). Stock is checked against the
// new quantity, not the delta.
func (s *Service) SetItemQuantity(ctx context.Context, ownerID string, in ItemInput) (*domain.Cart, error) {
	if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var cart *domain.Cart
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.getOrCreate(ctx, q, ownerID)
		if err != nil {
			return err
		}

		product, err := s.products.Get(ctx, q, in.Kind, in.ProductID)
		if err != nil {
			return err
		}
		if product.Stock < in.Quantity {
			return fmt.Errorf("%w for %s", domain.ErrInsufficientStock, product.Name)
		}

		if findLine(c, in.ProductID, in.Kind) != nil {
			err = s.carts.UpdateLineQuantity(ctx, q, c.ID, in.ProductID, in.Kind, in.Quantity)
		} else {
			err = s.carts.InsertLine(ctx, q, c.ID, domain.CartLine{
				ProductID:      in.ProductID,
				ProductKind:    in.Kind,
				Quantity:       in.Quantity,
				UnitPriceCents: product.PriceCents,
			})
		}
		if err != nil {
			return err
		}
		if err := s.carts.UpdateTotal(ctx, q, c.ID); err != nil {
			return err
		}
		cart, err = s.carts.GetByOwner(ctx, q, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes a line if present. Removing an absent item (or from a
// missing cart) is a success and returns the current cart, so removal is
// idempotent. Stock is untouched: nothing was reserved at add time.
func (s *Service) RemoveItem(ctx context.Context, ownerID, productID string, kind domain.ProductKind) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.carts.GetByOwner(ctx, q, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				cart = &domain.Cart{OwnerID: ownerID, Lines: []domain.CartLine{}}
				return nil
			}
			return err
		}

		removed, err := s.carts.DeleteLine(ctx, q, c.ID, productID, kind)
		if err != nil {
			return err
		}
		if removed {
			if err := s.carts.UpdateTotal(ctx, q, c.ID); err != nil {
				return err
			}
		}
		cart, err = s.carts.GetByOwner(ctx, q, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear deletes the cart and all its lines. No-op success when no cart
// exists.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	return s.tx.WithinTx(ctx, func(q db.Querier) error {
		c, err := s.carts.GetByOwner(ctx, q, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		return s.carts.Delete(ctx, q, c.ID)
	})
}

// StockCheck pairs a verified input with its resolved product.
type StockCheck struct {
	ItemInput
	Product domain.Product
}

// StockReport aggregates the result of a bulk pre-checkout verification.
// Problems does not short-circuit: it carries one message per failing item
// so the client can report everything at once.
type StockReport struct {
	Valid    bool
	Items    []StockCheck
	Problems []string
}

// VerifyStock checks every requested item against live stock and collects
// all failures rather than stopping at the first.
func (s *Service) VerifyStock(ctx context.Context, items []ItemInput) (*StockReport, error) {
	report := &StockReport{}
	for _, in := range items {
		product, err := s.products.Get(ctx, s.q, in.Kind, in.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				report.Problems = append(report.Problems,
					fmt.Sprintf("product (%s: %s) is no longer available", in.Kind, in.ProductID))
				continue
			}
			return nil, err
		}
		if product.Stock < in.Quantity {
			report.Problems = append(report.Problems,
				fmt.Sprintf("insufficient stock for %s", product.Name))
			continue
		}
		report.Items = append(report.Items, StockCheck{ItemInput: in, Product: *product})
	}
	report.Valid = len(report.Problems) == 0
	return report, nil
}

func (s *Service) getOrCreate(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error) {
	c, err := s.carts.GetByOwner(ctx, q, ownerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.carts.Create(ctx, q, ownerID)
}

func findLine(c *domain.Cart, productID string, kind domain.ProductKind) *domain.CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].ProductKind == kind {
			return &c.Lines[i]
		}
	}
	return nil
}
