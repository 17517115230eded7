package cart

import (
	"context"
	"errors"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"

	"github.com/jackc/pgx/v5"
)

type postgresRepo struct{}

func NewPostgres() Repository {
	return &postgresRepo{}
}

func (r *postgresRepo) GetByOwner(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id::text, owner_id::text, total_cents, created_at
FROM carts
WHERE owner_id = $1
`
	var cart domain.Cart
	err := q.QueryRow(ctx, cartQuery, ownerID).Scan(
		&cart.ID,
		&cart.OwnerID,
		&cart.TotalCents,
		&cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, product_kind, quantity, unit_price_cents, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := q.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.ProductKind,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, ownerID string) (*domain.Cart, error) {
	const query = `
INSERT INTO carts (owner_id, total_cents)
VALUES ($1, 0)
RETURNING id::text, owner_id::text, total_cents, created_at
`
	var cart domain.Cart
	if err := q.QueryRow(ctx, query, ownerID).Scan(
		&cart.ID,
		&cart.OwnerID,
		&cart.TotalCents,
		&cart.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) InsertLine(ctx context.Context, q db.Querier, cartID string, line domain.CartLine) error {
	const query = `
INSERT INTO cart_lines (cart_id, product_id, product_kind, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := q.Exec(ctx, query, cartID, line.ProductID, line.ProductKind, line.Quantity, line.UnitPriceCents)
	return err
}

func (r *postgresRepo) UpdateLineQuantity(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind, quantity int) error {
	const query = `
UPDATE cart_lines
SET quantity = $1
WHERE cart_id = $2 AND product_id = $3 AND product_kind = $4
`
	cmd, err := q.Exec(ctx, query, quantity, cartID, productID, kind)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteLine reports whether a line was actually removed; an absent line is
// not an error (removal is idempotent).
func (r *postgresRepo) DeleteLine(ctx context.Context, q db.Querier, cartID, productID string, kind domain.ProductKind) (bool, error) {
	const query = `
DELETE FROM cart_lines
WHERE cart_id = $1 AND product_id = $2 AND product_kind = $3
`
	cmd, err := q.Exec(ctx, query, cartID, productID, kind)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateTotal recomputes the cached cart total from its lines. Called at
// the end of every mutating operation, inside the same transaction.
func (r *postgresRepo) UpdateTotal(ctx context.Context, q db.Querier, cartID string) error {
	const query = `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(quantity * unit_price_cents)
	FROM cart_lines
	WHERE cart_id = $1
), 0)
WHERE id = $1
`
	_, err := q.Exec(ctx, query, cartID)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, q db.Querier, cartID string) error {
	_, err := q.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return err
}
