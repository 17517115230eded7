package product

import (
	"context"
	"errors"
	"io"
	"log"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"

	"github.com/jackc/pgx/v5"
)

type postgresRepo struct {
	logger *log.Logger
}

func NewPostgres(logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{logger: logger}
}

const productColumns = `id::text, kind, name, COALESCE(description, ''), price_cents, stock, provider_id::text, images, attributes, created_at`

func (r *postgresRepo) Get(ctx context.Context, q db.Querier, kind domain.ProductKind, id string) (*domain.Product, error) {
	query := `
SELECT ` + productColumns + `
FROM products
WHERE id = $1 AND kind = $2
`
	p, err := scanProduct(q.QueryRow(ctx, query, id, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get kind=%s id=%s error=%v", kind, id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, q db.Querier, kind domain.ProductKind) ([]domain.Product, error) {
	query := `
SELECT ` + productColumns + `
FROM products
`
	args := []any{}
	if kind != "" {
		query += `WHERE kind = $1
`
		args = append(args, kind)
	}
	query += `ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Printf("product repo: list kind=%s error=%v", kind, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) ListIDsByProvider(ctx context.Context, q db.Querier, kind domain.ProductKind, providerID string) ([]string, error) {
	const query = `
SELECT id::text
FROM products
WHERE kind = $1 AND provider_id = $2
`
	rows, err := q.Query(ctx, query, kind, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DecrementStock subtracts qty only when enough stock exists, in a single
// conditional statement. Zero rows affected means the live stock was below
// qty (or the product vanished); either way the caller's transaction must
// roll back.
func (r *postgresRepo) DecrementStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error {
	const query = `
UPDATE products
SET stock = stock - $1
WHERE id = $2 AND kind = $3 AND stock >= $1
`
	cmd, err := q.Exec(ctx, query, qty, id, kind)
	if err != nil {
		r.logger.Printf("product repo: decrement kind=%s id=%s qty=%d error=%v", kind, id, qty, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// RestoreStock returns qty units, compensating a checkout-time decrement
// on cancellation. Restoring to a deleted product is a no-op success.
func (r *postgresRepo) RestoreStock(ctx context.Context, q db.Querier, kind domain.ProductKind, id string, qty int) error {
	const query = `
UPDATE products
SET stock = stock + $1
WHERE id = $2 AND kind = $3
`
	if _, err := q.Exec(ctx, query, qty, id, kind); err != nil {
		r.logger.Printf("product repo: restore kind=%s id=%s qty=%d error=%v", kind, id, qty, err)
		return err
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var images []string
	if err := row.Scan(
		&p.ID,
		&p.Kind,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&p.Stock,
		&p.ProviderID,
		&images,
		&p.Attributes,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Images = images
	return &p, nil
}
