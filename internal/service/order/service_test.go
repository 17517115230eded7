package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"
)

type stubTx struct{}

func (stubTx) WithinTx(_ context.Context, fn func(q db.Querier) error) error {
	return fn(nil)
}

// memTx behaves like a real transaction over the in-memory repos: it
// snapshots their state on entry and restores it when fn fails, so tests
// can assert that a mid-checkout failure leaves earlier mutations undone.
type memTx struct {
	products *memProductRepo
	orders   *memOrderRepo
	carts    *stubCartRepo
}

func (m memTx) WithinTx(_ context.Context, fn func(q db.Querier) error) error {
	stocks := make(map[string]int, len(m.products.products))
	for k, p := range m.products.products {
		stocks[k] = p.Stock
	}
	savedOrders := make(map[string]*domain.Order, len(m.orders.orders))
	for k, o := range m.orders.orders {
		cp := *o
		cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
		savedOrders[k] = &cp
	}
	savedCart := m.carts.cart
	savedDeleted := m.carts.deleted

	if err := fn(nil); err != nil {
		for k, s := range stocks {
			m.products.products[k].Stock = s
		}
		m.orders.orders = savedOrders
		m.carts.cart = savedCart
		m.carts.deleted = savedDeleted
		return err
	}
	return nil
}

type memProductRepo struct {
	products map[string]*domain.Product
	byOwner  map[string][]string
}

func pkey(kind domain.ProductKind, id string) string {
	return string(kind) + "/" + id
}

func newMemProducts(products ...domain.Product) *memProductRepo {
	m := &memProductRepo{products: map[string]*domain.Product{}, byOwner: map[string][]string{}}
	for i := range products {
		p := products[i]
		m.products[pkey(p.Kind, p.ID)] = &p
		m.byOwner[string(p.Kind)+"/"+p.ProviderID] = append(m.byOwner[string(p.Kind)+"/"+p.ProviderID], p.ID)
	}
	return m
}

func (m *memProductRepo) Get(_ context.Context, _ db.Querier, kind domain.ProductKind, id string) (*domain.Product, error) {
	p, ok := m.products[pkey(kind, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) ListIDsByProvider(_ context.Context, _ db.Querier, kind domain.ProductKind, providerID string) ([]string, error) {
	return m.byOwner[string(kind)+"/"+providerID], nil
}

func (m *memProductRepo) DecrementStock(_ context.Context, _ db.Querier, kind domain.ProductKind, id string, qty int) error {
	p, ok := m.products[pkey(kind, id)]
	if !ok || p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (m *memProductRepo) RestoreStock(_ context.Context, _ db.Querier, kind domain.ProductKind, id string, qty int) error {
	if p, ok := m.products[pkey(kind, id)]; ok {
		p.Stock += qty
	}
	return nil
}

func (m *memProductRepo) stock(kind domain.ProductKind, id string) int {
	return m.products[pkey(kind, id)].Stock
}

type memOrderRepo struct {
	orders map[string]*domain.Order
	nextID int
}

func newMemOrders() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*domain.Order{}}
}

func (m *memOrderRepo) Create(_ context.Context, _ db.Querier, o domain.Order) (*domain.Order, error) {
	m.nextID++
	o.ID = fmt.Sprintf("order-%d", m.nextID)
	for i := range o.Lines {
		o.Lines[i].ID = fmt.Sprintf("line-%d-%d", m.nextID, i)
		o.Lines[i].OrderID = o.ID
	}
	m.orders[o.ID] = &o
	cp := o
	return &cp, nil
}

func (m *memOrderRepo) GetByID(_ context.Context, _ db.Querier, id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &cp, nil
}

func (m *memOrderRepo) ListByOwner(_ context.Context, _ db.Querier, ownerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.OwnerID == ownerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) List(_ context.Context, _ db.Querier, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListContainingProducts(_ context.Context, _ db.Querier, productIDs []string) ([]domain.Order, error) {
	wanted := map[string]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []domain.Order
	for _, o := range m.orders {
		for _, l := range o.Lines {
			if wanted[l.ProductID] {
				cp := *o
				cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, _ db.Querier, id string, status domain.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *memOrderRepo) UpdateLineProviderStatus(_ context.Context, _ db.Querier, orderID string, productIDs []string, status domain.OrderStatus) (int, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	wanted := map[string]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	matched := 0
	for i := range o.Lines {
		if wanted[o.Lines[i].ProductID] {
			o.Lines[i].ProviderStatus = status
			matched++
		}
	}
	return matched, nil
}

type stubCartRepo struct {
	cart    *domain.Cart
	deleted bool
}

func (s *stubCartRepo) GetByOwner(_ context.Context, _ db.Querier, ownerID string) (*domain.Cart, error) {
	if s.cart == nil || s.cart.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) Delete(_ context.Context, _ db.Querier, cartID string) error {
	s.cart = nil
	s.deleted = true
	return nil
}

var testAddress = domain.DeliveryAddress{Name: "Demo Client", Street: "Calle 1", City: "Asuncion", Phone: "0981"}

func twoLineCart() *domain.Cart {
	return &domain.Cart{
		ID:      "cart-1",
		OwnerID: "u1",
		Lines: []domain.CartLine{
			{ProductID: "v1", ProductKind: domain.KindVehicle, Quantity: 1, UnitPriceCents: 100000},
			{ProductID: "p1", ProductKind: domain.KindPart, Quantity: 3, UnitPriceCents: 5000},
		},
	}
}

func testProducts() *memProductRepo {
	return newMemProducts(
		domain.Product{ID: "v1", Kind: domain.KindVehicle, Name: "Corolla", PriceCents: 100000, Stock: 1, ProviderID: "prov1", Images: []string{"corolla.jpg"}},
		domain.Product{ID: "p1", Kind: domain.KindPart, Name: "Alternator", PriceCents: 5000, Stock: 5, ProviderID: "prov2"},
	)
}

func TestCheckoutCreatesOrderAndReservesStock(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	carts := &stubCartRepo{cart: twoLineCart()}
	svc := New(stubTx{}, nil, orders, carts, products, nil)

	o, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", o.Status)
	}
	if o.TotalCents != 115000 {
		t.Fatalf("expected total 115000, got %d", o.TotalCents)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", o.OrderNumber)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(o.Lines))
	}
	line := o.Lines[0]
	if line.ProductName != "Corolla" || line.ProductImage != "corolla.jpg" || line.ProviderID != "prov1" {
		t.Fatalf("expected snapshotted display fields, got %+v", line)
	}
	if line.ProviderStatus != domain.StatusPending {
		t.Fatalf("expected pending line, got %s", line.ProviderStatus)
	}
	if products.stock(domain.KindVehicle, "v1") != 0 || products.stock(domain.KindPart, "p1") != 2 {
		t.Fatal("expected stock decremented at checkout")
	}
	if !carts.deleted {
		t.Fatal("expected cart deleted after checkout")
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	svc := New(stubTx{}, nil, newMemOrders(), &stubCartRepo{}, testProducts(), nil)
	_, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	svc = New(stubTx{}, nil, newMemOrders(), &stubCartRepo{cart: &domain.Cart{ID: "c", OwnerID: "u1"}}, testProducts(), nil)
	_, err = svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart for cart without lines, got %v", err)
	}
}

func TestCheckoutRejectsMissingData(t *testing.T) {
	svc := New(stubTx{}, nil, newMemOrders(), &stubCartRepo{cart: twoLineCart()}, testProducts(), nil)

	_, err := svc.Checkout(context.Background(), "u1", CheckoutInput{PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrMissingCheckoutData) {
		t.Fatalf("expected ErrMissingCheckoutData without address, got %v", err)
	}
	_, err = svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress})
	if !errors.Is(err, domain.ErrMissingCheckoutData) {
		t.Fatalf("expected ErrMissingCheckoutData without payment method, got %v", err)
	}
}

func TestCheckoutFailsOnInsufficientStock(t *testing.T) {
	products := testProducts()
	carts := &stubCartRepo{cart: &domain.Cart{
		ID:      "cart-1",
		OwnerID: "u1",
		Lines: []domain.CartLine{
			{ProductID: "p1", ProductKind: domain.KindPart, Quantity: 6, UnitPriceCents: 5000},
		},
	}}
	orders := newMemOrders()
	svc := New(memTx{products: products, orders: orders, carts: carts}, nil, orders, carts, products, nil)

	_, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !strings.Contains(err.Error(), "Alternator") {
		t.Fatalf("expected product name in error, got %q", err)
	}
	if len(orders.orders) != 0 {
		t.Fatal("expected no order created")
	}
	if carts.deleted {
		t.Fatal("expected cart kept on failure")
	}
}

func TestCheckoutFailureOnLaterLineUndoesEarlierDecrements(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	carts := &stubCartRepo{cart: &domain.Cart{
		ID:      "cart-1",
		OwnerID: "u1",
		Lines: []domain.CartLine{
			{ProductID: "v1", ProductKind: domain.KindVehicle, Quantity: 1, UnitPriceCents: 100000},
			{ProductID: "p1", ProductKind: domain.KindPart, Quantity: 6, UnitPriceCents: 5000},
		},
	}}
	svc := New(memTx{products: products, orders: orders, carts: carts}, nil, orders, carts, products, nil)

	// the vehicle line decrements fine, then the part line fails: the whole
	// checkout must roll back, vehicle stock included
	_, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := products.stock(domain.KindVehicle, "v1"); got != 1 {
		t.Fatalf("expected vehicle stock restored to 1, got %d", got)
	}
	if got := products.stock(domain.KindPart, "p1"); got != 5 {
		t.Fatalf("expected part stock untouched at 5, got %d", got)
	}
	if len(orders.orders) != 0 {
		t.Fatal("expected no order created")
	}
	if carts.deleted {
		t.Fatal("expected cart kept on failure")
	}
}

func TestCheckoutFailsWhenProductDeleted(t *testing.T) {
	carts := &stubCartRepo{cart: &domain.Cart{
		ID:      "cart-1",
		OwnerID: "u1",
		Lines: []domain.CartLine{
			{ProductID: "missing", ProductKind: domain.KindPart, Quantity: 1, UnitPriceCents: 100},
		},
	}}
	svc := New(stubTx{}, nil, newMemOrders(), carts, testProducts(), nil)

	_, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for vanished product, got %v", err)
	}
}

func checkoutTestOrder(t *testing.T, products *memProductRepo, orders *memOrderRepo) *domain.Order {
	t.Helper()
	carts := &stubCartRepo{cart: twoLineCart()}
	svc := New(stubTx{}, nil, orders, carts, products, nil)
	o, err := svc.Checkout(context.Background(), "u1", CheckoutInput{DeliveryAddress: testAddress, PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return o
}

func TestCancelRestoresStock(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if products.stock(domain.KindVehicle, "v1") != 1 || products.stock(domain.KindPart, "p1") != 5 {
		t.Fatal("expected stock restored on cancellation")
	}

	// cancelling an already-cancelled order must not restore twice
	if _, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}
	if products.stock(domain.KindPart, "p1") != 5 {
		t.Fatal("expected no double restore")
	}
}

func TestUpdateStatusForwardTransitionLeavesStockAlone(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusShipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}
	if products.stock(domain.KindPart, "p1") != 2 {
		t.Fatal("expected stock untouched by forward transition")
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := New(stubTx{}, nil, newMemOrders(), &stubCartRepo{}, testProducts(), nil)
	_, err := svc.UpdateStatus(context.Background(), "nope", domain.StatusShipped)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProviderStatusAggregation(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	// prov1 delivers its vehicle line; the alternator line is still pending
	updated, err := svc.UpdateProviderStatus(context.Background(), "prov1", o.ID, domain.StatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusPending {
		t.Fatalf("expected order still pending, got %s", updated.Status)
	}

	// prov2 ships; the least-advanced line is now shipped
	updated, err = svc.UpdateProviderStatus(context.Background(), "prov2", o.ID, domain.StatusShipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}

	// prov2 delivers; every line is delivered so the order is too
	updated, err = svc.UpdateProviderStatus(context.Background(), "prov2", o.ID, domain.StatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusDelivered {
		t.Fatalf("expected delivered, got %s", updated.Status)
	}
}

func TestProviderStatusForbiddenWithoutOwnedLines(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	_, err := svc.UpdateProviderStatus(context.Background(), "stranger", o.ID, domain.StatusShipped)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestProviderStatusRejectedOnCancelledOrder(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	if _, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err := svc.UpdateProviderStatus(context.Background(), "prov1", o.ID, domain.StatusShipped)
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListByProviderNarrowsLines(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	list, err := svc.ListByProvider(context.Background(), "prov1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
	if len(list[0].Lines) != 1 || list[0].Lines[0].ProductID != "v1" {
		t.Fatalf("expected only prov1's line, got %+v", list[0].Lines)
	}

	list, err = svc.ListByProvider(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders for stranger, got %d", len(list))
	}
}

func TestGetRoleScoping(t *testing.T) {
	products := testProducts()
	orders := newMemOrders()
	o := checkoutTestOrder(t, products, orders)
	svc := New(stubTx{}, nil, orders, &stubCartRepo{}, products, nil)

	cases := []struct {
		name    string
		actor   Actor
		wantErr error
	}{
		{"owner", Actor{ID: "u1", Role: domain.RoleClient}, nil},
		{"admin", Actor{ID: "someone", Role: domain.RoleAdmin}, nil},
		{"provider with line", Actor{ID: "prov1", Role: domain.RoleProvider}, nil},
		{"provider without line", Actor{ID: "stranger", Role: domain.RoleProvider}, domain.ErrForbidden},
		{"unrelated client", Actor{ID: "u2", Role: domain.RoleClient}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), tc.actor, o.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
