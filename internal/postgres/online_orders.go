package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const onlineColumns = `id, customer_id, COALESCE(draft_id, ''), items, status, created_at, updated_at`

func scanOnline(row pgx.Row) (orders.OnlineOrder, error) {
	var (
		o      orders.OnlineOrder
		raw    []byte
		status string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.DraftID, &raw, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return orders.OnlineOrder{}, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return orders.OnlineOrder{}, err
	}
	o.Items = items
	o.Status = orders.OnlineStatus(status)
	return o, nil
}

func (s *Store) CreateOnlineOrder(ctx context.Context, o orders.OnlineOrder) error {
	raw, err := encodeItems(o.Items)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO online_orders (id, customer_id, draft_id, items, status, created_at, updated_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)`,
		o.ID, o.CustomerID, nullable(o.DraftID), raw, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert online order: %w", err)
	}
	return nil
}

func (s *Store) GetOnlineOrder(ctx context.Context, id string) (orders.OnlineOrder, error) {
	o, err := scanOnline(s.queryRow(ctx, `SELECT `+onlineColumns+` FROM online_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.OnlineOrder{}, orders.ErrOnlineOrderNotFound
		}
		return orders.OnlineOrder{}, fmt.Errorf("get online order: %w", err)
	}
	return o, nil
}

func (s *Store) ListOnlineOrders(ctx context.Context, status orders.OnlineStatus) ([]orders.OnlineOrder, error) {
	rows, err := s.query(ctx, `
SELECT `+onlineColumns+` FROM online_orders
WHERE $1::text = '' OR status = $1::text
ORDER BY created_at DESC, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list online orders: %w", err)
	}
	defer rows.Close()

	out := []orders.OnlineOrder{}
	for rows.Next() {
		o, err := scanOnline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan online order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) SwapOnlineStatus(ctx context.Context, id string, from, to orders.OnlineStatus, draftID string) (bool, error) {
	tag, err := s.exec(ctx, `
UPDATE online_orders
SET status = $3::text,
    draft_id = CASE
        WHEN $3::text = 'transferred' THEN $4::text
        WHEN status = 'transferred' THEN NULL
        ELSE draft_id
    END,
    updated_at = NOW()
WHERE id = $1 AND status = $2::text`, id, string(from), string(to), nullable(draftID))
	if err != nil {
		return false, fmt.Errorf("swap online status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := s.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM online_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check online order: %w", err)
	}
	if !exists {
		return false, orders.ErrOnlineOrderNotFound
	}
	return false, nil
}
