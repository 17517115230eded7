package order

import (
	"context"
	"errors"
	"io"
	"log"

	"partsmarket/internal/db"
	"partsmarket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const orderColumns = `id::text, owner_id::text, order_number, status, total_cents,
       delivery_name, delivery_street, delivery_city, delivery_phone, payment_method, created_at`

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, o domain.Order) (*domain.Order, error) {
	const query = `
INSERT INTO orders (owner_id, order_number, status, total_cents,
                    delivery_name, delivery_street, delivery_city, delivery_phone, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + orderColumns + `
`
	created, err := scanOrder(q.QueryRow(ctx, query,
		o.OwnerID,
		o.OrderNumber,
		o.Status,
		o.TotalCents,
		o.DeliveryAddress.Name,
		o.DeliveryAddress.Street,
		o.DeliveryAddress.City,
		o.DeliveryAddress.Phone,
		o.PaymentMethod,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: create owner=%s error=%v", o.OwnerID, err)
		return nil, err
	}

	const lineQuery = `
INSERT INTO order_lines (order_id, product_id, product_kind, quantity, unit_price_cents,
                         product_name, product_image, provider_id, provider_status)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9)
RETURNING id::text
`
	for _, line := range o.Lines {
		status := line.ProviderStatus
		if status == "" {
			status = domain.StatusPending
		}
		var lineID string
		if err := q.QueryRow(ctx, lineQuery,
			created.ID,
			line.ProductID,
			line.ProductKind,
			line.Quantity,
			line.UnitPriceCents,
			line.ProductName,
			line.ProductImage,
			line.ProviderID,
			status,
		).Scan(&lineID); err != nil {
			r.logger.Printf("order repo: insert line order=%s product=%s error=%v", created.ID, line.ProductID, err)
			return nil, err
		}
		line.ID = lineID
		line.OrderID = created.ID
		line.ProviderStatus = status
		created.Lines = append(created.Lines, line)
	}

	r.logger.Printf("order repo: created order=%s number=%s lines=%d", created.ID, created.OrderNumber, len(created.Lines))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, q db.Querier, id string) (*domain.Order, error) {
	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`
	o, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachLines(ctx, q, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, q db.Querier, ownerID string) ([]domain.Order, error) {
	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE owner_id = $1
ORDER BY created_at DESC
`
	return r.queryOrders(ctx, q, query, ownerID)
}

func (r *postgresRepo) List(ctx context.Context, q db.Querier, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
SELECT ` + orderColumns + `
FROM orders
`
	args := []any{}
	if status != "" {
		query += `WHERE status = $1
`
		args = append(args, status)
	}
	query += `ORDER BY created_at DESC`
	return r.queryOrders(ctx, q, query, args...)
}

func (r *postgresRepo) ListContainingProducts(ctx context.Context, q db.Querier, productIDs []string) ([]domain.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE id IN (
	SELECT order_id FROM order_lines WHERE product_id = ANY($1::uuid[])
)
ORDER BY created_at DESC
`
	return r.queryOrders(ctx, q, query, productIDs)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, q db.Querier, id string, status domain.OrderStatus) error {
	cmd, err := q.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateLineProviderStatus advances provider_status on the lines whose
// product belongs to the calling provider, and reports how many lines
// matched.
func (r *postgresRepo) UpdateLineProviderStatus(ctx context.Context, q db.Querier, orderID string, productIDs []string, status domain.OrderStatus) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	const query = `
UPDATE order_lines
SET provider_status = $1
WHERE order_id = $2 AND product_id = ANY($3::uuid[])
`
	cmd, err := q.Exec(ctx, query, status, orderID, productIDs)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, q db.Querier, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, q, orders); err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, *o)
	}
	return result, nil
}

func (r *postgresRepo) attachLines(ctx context.Context, q db.Querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	const query = `
SELECT id::text, order_id::text, COALESCE(product_id::text, ''), product_kind, quantity, unit_price_cents,
       product_name, product_image, COALESCE(provider_id::text, ''), provider_status
FROM order_lines
WHERE order_id = ANY($1::uuid[])
ORDER BY id
`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductKind,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.ProductName,
			&line.ProductImage,
			&line.ProviderID,
			&line.ProviderStatus,
		); err != nil {
			return err
		}
		if o, ok := byID[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.OrderNumber,
		&o.Status,
		&o.TotalCents,
		&o.DeliveryAddress.Name,
		&o.DeliveryAddress.Street,
		&o.DeliveryAddress.City,
		&o.DeliveryAddress.Phone,
		&o.PaymentMethod,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
