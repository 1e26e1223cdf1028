package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/metrics"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const productColumns = `id, code, name, price::text, stock, ordered_quantity, created_at, updated_at`

func scanProduct(row pgx.Row) (orders.Product, error) {
	var (
		p     orders.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &price, &p.Stock, &p.OrderedQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return orders.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return orders.Product{}, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p orders.Product) error {
	_, err := s.exec(ctx, `
INSERT INTO products (id, code, name, price, stock, ordered_quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		p.ID, p.Code, p.Name, p.Price.String(), p.Stock, p.OrderedQuantity, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return orders.ErrDuplicateCode
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (orders.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Product{}, orders.ErrProductNotFound
		}
		return orders.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (orders.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Product{}, orders.ErrProductNotFound
		}
		return orders.Product{}, fmt.Errorf("get product by code: %w", err)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, code`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []orders.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AdjustStock is a single conditional UPDATE: the row lock serializes
// concurrent callers and the WHERE clause is re-checked against the latest
// row version, so stock can never go below zero.
func (s *Store) AdjustStock(ctx context.Context, id string, delta int) (orders.Product, error) {
	ordered := 0
	if delta < 0 {
		ordered = -delta
	}
	var (
		p   orders.Product
		err error
	)
	for attempt := 1; attempt <= s.adjustRetries; attempt++ {
		p, err = scanProduct(s.queryRow(ctx, `
UPDATE products
SET stock = stock + $2::int,
    ordered_quantity = ordered_quantity + $3::int,
    updated_at = NOW()
WHERE id = $1 AND stock + $2::int >= 0
RETURNING `+productColumns, id, delta, ordered))
		if err == nil || !isRetryable(err) || attempt == s.adjustRetries {
			break
		}
		metrics.ObserveAdjustRetry()
		select {
		case <-ctx.Done():
			return orders.Product{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return orders.Product{}, fmt.Errorf("adjust stock: %w", err)
	}

	cur, gerr := s.GetProduct(ctx, id)
	if gerr != nil {
		return orders.Product{}, gerr
	}
	return orders.Product{}, orders.NewInsufficientStock(id, -delta, cur.Stock)
}

func (s *Store) ReleaseStock(ctx context.Context, id string, qty int) (orders.Product, error) {
	if qty <= 0 {
		return orders.Product{}, orders.ErrInvalidQuantity
	}
	p, err := scanProduct(s.queryRow(ctx, `
UPDATE products
SET stock = stock + $2::int,
    ordered_quantity = GREATEST(ordered_quantity - $2::int, 0),
    updated_at = NOW()
WHERE id = $1
RETURNING `+productColumns, id, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Product{}, orders.ErrProductNotFound
		}
		return orders.Product{}, fmt.Errorf("release stock: %w", err)
	}
	return p, nil
}
