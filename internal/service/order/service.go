package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service is the order engine: it converts carts into immutable orders,
// decrementing stock atomically per line, and manages the status lifecycle
// with compensating stock restoration on cancellation.
type Service struct {
	tx       transactor
	q        db.Querier
	orders   orderRepo
	carts    cartRepo
	products productRepo
	logger   *log.Logger
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(q db.Querier) error) error
}

type orderRepo interface {
	Create(ctx context.Context, q db.Querier, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, q db.Querier, id string) (*domain.Order, error)
	ListByOwner(ctx context.Context, q db.Querier, ownerID string) ([]domain.Order, error)
	List(ctx context.Context, q db.Querier, status domain.OrderStatus) ([]domain.Order, error)
	ListContainingProducts(ctx context.Context, q db.Querier, productIDs []string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, q db.Querier, id string, status domain.OrderStatus) error
	UpdateLineProviderStatus(ctx context.Context, q db.Querier, orderID string, productIDs []string, status domain.OrderStatus) (int, error)
}

type cartRepo interface {
	GetByOwner(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error)
	Delete(ctx context.Context, q db.Querier, cartID string) error
}

type productRepo interface {
	Get(ctx context.Context, q db.Querier, kind domain.ProductKind, id string) (*domain.Product, error)
	ListIDsByProvider(ctx context.Context, q db.Querier, kind domain.ProductKind, providerID string) ([]string, error)
	DecrementStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error
	RestoreStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error
}

func New(tx transactor, pool db.Querier, orders orderRepo, carts cartRepo, products productRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{tx: tx, q: pool, orders: orders, carts: carts, products: products, logger: logger}
}

// Actor identifies the authenticated caller for role-scoped reads.
type Actor struct {
	ID   string
	Role domain.Role
}

// CheckoutInput carries the two fields checkout needs beyond the cart
// itself; the items come from the caller's persisted cart, never from the
// request.
type CheckoutInput struct {
	DeliveryAddress domain.DeliveryAddress
	PaymentMethod   string
}

// Checkout turns the owner's cart into a pending order inside one atomic
// unit: per line it re-checks and decrements live stock (conditionally, so
// concurrent checkouts cannot oversell), snapshots display fields, then
// creates the order and deletes the cart. Any failure rolls the whole
// operation back, stock decrements included.
func (s *Service) Checkout(ctx context.Context, ownerID string, in CheckoutInput) (*domain.Order, error) {
	if in.DeliveryAddress.Empty() || strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, domain.ErrMissingCheckoutData
	}

	var created *domain.Order
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		cart, err := s.carts.GetByOwner(ctx, q, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEmptyCart
			}
			return err
		}
		if len(cart.Lines) == 0 {
			return domain.ErrEmptyCart
		}

		lines := make([]domain.OrderLine, 0, len(cart.Lines))
		var total int64
		for _, item := range cart.Lines {
			product, err := s.products.Get(ctx, q, item.ProductKind, item.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: product %s no longer exists", domain.ErrInsufficientStock, item.ProductID)
				}
				return err
			}
			if err := s.products.DecrementStock(ctx, q, item.ProductKind, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return fmt.Errorf("%w for %s", domain.ErrInsufficientStock, product.Name)
				}
				return err
			}

			lines = append(lines, domain.OrderLine{
				ProductID:      item.ProductID,
				ProductKind:    item.ProductKind,
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
				ProductName:    product.Name,
				ProductImage:   product.FirstImage(),
				ProviderID:     product.ProviderID,
				ProviderStatus: domain.StatusPending,
			})
			total += item.LineTotalCents()
		}

		created, err = s.orders.Create(ctx, q, domain.Order{
			OwnerID:         ownerID,
			OrderNumber:     newOrderNumber(),
			Status:          domain.StatusPending,
			TotalCents:      total,
			DeliveryAddress: in.DeliveryAddress,
			PaymentMethod:   in.PaymentMethod,
			Lines:           lines,
		})
		if err != nil {
			return err
		}
		return s.carts.Delete(ctx, q, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: checkout owner=%s order=%s total_cents=%d", ownerID, created.OrderNumber, created.TotalCents)
	return created, nil
}

// UpdateStatus is the administrative transition: any status in the enum.
// Entering cancelled from a non-cancelled state restores each line's
// quantity to its product's stock before the status is written, in the same
// transaction.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithinTx(ctx, func(q db.Querier) error {
		o, err := s.orders.GetByID(ctx, q, orderID)
		if err != nil {
			return err
		}

		if status == domain.StatusCancelled && o.Status != domain.StatusCancelled {
			for _, line := range o.Lines {
				if line.ProductID == "" {
					continue
				}
				if err := s.products.RestoreStock(ctx, q, line.ProductKind, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
		}

		if err := s.orders.UpdateStatus(ctx, q, orderID, status); err != nil {
			return err
		}
		updated, err = s.orders.GetByID(ctx, q, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: status order=%s -> %s", orderID, status)
	return updated, nil
}

// UpdateProviderStatus advances the provider's own lines through the
// restricted transition set. The order-level status is then re-derived as
// the least-advanced line status; it reaches delivered only when every line
// across every provider is delivered.
func (s *Service) UpdateProviderStatus(ctx context.Context, providerID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	ownedIDs, err := s.ownedProductIDs(ctx, providerID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Order
	err = s.tx.WithinTx(ctx, func(q db.Querier) error {
		o, err := s.orders.GetByID(ctx, q, orderID)
		if err != nil {
			return err
		}
		if o.Status == domain.StatusCancelled {
			return domain.ErrInvalidStatus
		}

		matched, err := s.orders.UpdateLineProviderStatus(ctx, q, orderID, ownedIDs, status)
		if err != nil {
			return err
		}
		if matched == 0 {
			return domain.ErrForbidden
		}

		o, err = s.orders.GetByID(ctx, q, orderID)
		if err != nil {
			return err
		}
		if agg := domain.AggregateStatus(o.Lines); agg != o.Status {
			if err := s.orders.UpdateStatus(ctx, q, orderID, agg); err != nil {
				return err
			}
			o.Status = agg
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: provider status order=%s provider=%s -> %s", orderID, providerID, status)
	return updated, nil
}

// History lists the owner's orders, newest first.
func (s *Service) History(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return s.orders.ListByOwner(ctx, s.q, ownerID)
}

// ListAll is the admin view; status narrows the result when non-empty.
func (s *Service) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.List(ctx, s.q, status)
}

// ListByProvider returns orders containing at least one of the provider's
// products, with lines narrowed to the provider's own.
func (s *Service) ListByProvider(ctx context.Context, providerID string) ([]domain.Order, error) {
	ownedIDs, err := s.ownedProductIDs(ctx, providerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListContainingProducts(ctx, s.q, ownedIDs)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = true
	}
	for i := range orders {
		var mine []domain.OrderLine
		for _, line := range orders[i].Lines {
			if owned[line.ProductID] {
				mine = append(mine, line)
			}
		}
		orders[i].Lines = mine
	}
	return orders, nil
}

// Get fetches one order with role-scoped visibility: the owner and admins
// see it outright; a provider must own at least one product in it.
func (s *Service) Get(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, s.q, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == domain.RoleAdmin:
	case o.OwnerID == actor.ID:
	case actor.Role == domain.RoleProvider:
		ownedIDs, err := s.ownedProductIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		owned := make(map[string]bool, len(ownedIDs))
		for _, id := range ownedIDs {
			owned[id] = true
		}
		has := false
		for _, line := range o.Lines {
			if owned[line.ProductID] {
				has = true
				break
			}
		}
		if !has {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// ownedProductIDs gathers the provider's product IDs for both kinds. The
// two lookups are independent read-only queries, so they run concurrently.
func (s *Service) ownedProductIDs(ctx context.Context, providerID string) ([]string, error) {
	var vehicles, parts []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vehicles, err = s.products.ListIDsByProvider(gctx, s.q, domain.KindVehicle, providerID)
		return err
	})
	g.Go(func() error {
		var err error
		parts, err = s.products.ListIDsByProvider(gctx, s.q, domain.KindPart, providerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(vehicles, parts...), nil
}

// newOrderNumber builds a human-readable unique order number. Collisions
// are ultimately rejected by the unique constraint, not prevented here.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
