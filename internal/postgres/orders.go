package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const orderColumns = `id, customer_id, source, COALESCE(draft_id, ''), items, total_price::text, status, comment, created_at, updated_at`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var (
		o              orders.Order
		source, status string
		raw            []byte
		total          string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &source, &o.DraftID, &raw, &total, &status, &o.Comment, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return orders.Order{}, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return orders.Order{}, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return orders.Order{}, fmt.Errorf("order %s total %q: %w", o.ID, total, err)
	}
	o.Source = orders.Source(source)
	o.Status = orders.Status(status)
	o.Items = items
	o.TotalPrice = d
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o orders.Order) error {
	raw, err := encodeItems(o.Items)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO orders (id, customer_id, source, draft_id, items, total_price, status, comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::numeric, $7, $8, $9, $10)`,
		o.ID, o.CustomerID, string(o.Source), nullable(o.DraftID), raw, o.TotalPrice.String(),
		string(o.Status), o.Comment, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateOrderFromDraft deletes the claimed draft and inserts the order in
// one transaction. A claim taken over in the meantime deletes nothing.
func (s *Store) CreateOrderFromDraft(ctx context.Context, o orders.Order, draftID string, claimedAt time.Time) error {
	return withTx(ctx, s.pool, func(ctx context.Context) error {
		tag, err := s.exec(ctx, `DELETE FROM drafts WHERE id = $1 AND state = 'committing' AND claimed_at = $2`, draftID, claimedAt)
		if err != nil {
			return fmt.Errorf("delete committed draft: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return orders.ErrDraftNotFound
		}
		return s.CreateOrder(ctx, o)
	})
}

func (s *Store) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	o, err := scanOrder(s.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Order{}, orders.ErrOrderNotFound
		}
		return orders.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []orders.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOrder(ctx context.Context, id string, patch orders.OrderPatch) (orders.Order, error) {
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}
	o, err := scanOrder(s.queryRow(ctx, `
UPDATE orders
SET status = COALESCE($2, status),
    comment = COALESCE($3, comment),
    updated_at = NOW()
WHERE id = $1
RETURNING `+orderColumns, id, status, patch.Comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Order{}, orders.ErrOrderNotFound
		}
		return orders.Order{}, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}
