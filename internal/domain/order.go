package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the order lifecycle state machine:
// pending -> processing -> shipped -> delivered, with cancelled reachable
// from any non-terminal state (admin only).
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward ladder. Cancelled sits outside it.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// ParseOrderStatus validates a status against the full enum.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidStatus, raw)
}

// ParseProviderStatus validates a status against the restricted provider
// set. Providers can only advance fulfilment, never cancel or revert.
func ParseProviderStatus(raw string) (OrderStatus, error) {
	s, err := ParseOrderStatus(raw)
	if err != nil {
		return "", err
	}
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered:
		return s, nil
	}
	return "", fmt.Errorf("%w: status %q not allowed for providers", ErrInvalidStatus, raw)
}

// AggregateStatus derives the order-level status from per-line provider
// statuses: the least-advanced line on the forward ladder. The order is
// delivered only when every line is delivered.
func AggregateStatus(lines []OrderLine) OrderStatus {
	agg := StatusDelivered
	for _, l := range lines {
		s := l.ProviderStatus
		if s == "" {
			s = StatusPending
		}
		if statusRank[s] < statusRank[agg] {
			agg = s
		}
	}
	if len(lines) == 0 {
		return StatusPending
	}
	return agg
}

// DeliveryAddress is the structured shipping destination captured at checkout.
type DeliveryAddress struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	Phone  string `json:"phone"`
}

// Empty reports whether the address carries no usable destination.
func (a DeliveryAddress) Empty() bool {
	return strings.TrimSpace(a.Name) == "" && strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.Phone) == ""
}

// Order is the immutable record produced at checkout. Only Status (and the
// per-line provider status) change afterwards; orders are never deleted.
type Order struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	OrderNumber     string          `json:"orderNumber"`
	Status          OrderStatus     `json:"estado"`
	TotalCents      int64           `json:"totalCents"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`
	Lines           []OrderLine     `json:"items"`
}

// OrderLine snapshots product name, image and provider at order time so the
// order stays readable after the product is edited or deleted. ProductID is
// empty when the referenced product has since been removed.
type OrderLine struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"orderId"`
	ProductID      string      `json:"productId,omitempty"`
	ProductKind    ProductKind `json:"kind"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents int64       `json:"unitPriceCents"`
	ProductName    string      `json:"productName"`
	ProductImage   string      `json:"productImage,omitempty"`
	ProviderID     string      `json:"providerId,omitempty"`
	ProviderStatus OrderStatus `json:"providerStatus"`
}
