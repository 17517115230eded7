package domain

import "time"

// Cart holds a user's pending line items. One cart per owner, created
// lazily on the first add and deleted on checkout or clear.
type Cart struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	TotalCents int64      `json:"totalCents"`
	CreatedAt  time.Time  `json:"createdAt"`
	Lines      []CartLine `json:"items"`
}

// CartLine references a product with the unit price captured at add time.
type CartLine struct {
	ID             string      `json:"id"`
	CartID         string      `json:"cartId"`
	ProductID      string      `json:"productId"`
	ProductKind    ProductKind `json:"kind"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents int64       `json:"unitPriceCents"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// LineTotalCents is quantity times the snapshotted unit price.
func (l CartLine) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// ComputeTotal sums line totals. Cart.TotalCents must equal this after
// every mutation; it is never trusted stale.
func ComputeTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotalCents()
	}
	return total
}
