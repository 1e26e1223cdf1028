package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const draftColumns = `id, customer_id, COALESCE(online_order_id, ''), state, items, created_at, claimed_at`

func scanDraft(row pgx.Row) (orders.DraftOrder, error) {
	var (
		d         orders.DraftOrder
		state     string
		raw       []byte
		claimedAt *time.Time
	)
	if err := row.Scan(&d.ID, &d.CustomerID, &d.OnlineOrderID, &state, &raw, &d.CreatedAt, &claimedAt); err != nil {
		return orders.DraftOrder{}, err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return orders.DraftOrder{}, err
	}
	d.State = orders.DraftState(state)
	d.Items = items
	if claimedAt != nil {
		d.ClaimedAt = claimedAt.UTC()
	}
	return d, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) CreateDraft(ctx context.Context, d orders.DraftOrder) error {
	raw, err := encodeItems(d.Items)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `
INSERT INTO drafts (id, customer_id, online_order_id, state, items, created_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		d.ID, d.CustomerID, nullable(d.OnlineOrderID), string(d.State), raw, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

func (s *Store) GetDraft(ctx context.Context, id string) (orders.DraftOrder, error) {
	d, err := scanDraft(s.queryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.DraftOrder{}, orders.ErrDraftNotFound
		}
		return orders.DraftOrder{}, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

func (s *Store) ListDrafts(ctx context.Context) ([]orders.DraftOrder, error) {
	rows, err := s.query(ctx, `SELECT `+draftColumns+` FROM drafts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	out := []orders.DraftOrder{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// draftMiss explains why a write guarded by state = 'open' hit no row.
func (s *Store) draftMiss(ctx context.Context, id string) error {
	var state string
	err := s.queryRow(ctx, `SELECT state FROM drafts WHERE id = $1`, id).Scan(&state)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return orders.ErrDraftNotFound
	case err != nil:
		return fmt.Errorf("get draft state: %w", err)
	default:
		return orders.ErrDraftLocked
	}
}

func (s *Store) PutLineItem(ctx context.Context, draftID string, item orders.LineItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	tag, err := s.exec(ctx, `
UPDATE drafts SET items = jsonb_set(items, ARRAY[$2::text], $3::jsonb)
WHERE id = $1 AND state = 'open'`, draftID, item.ProductID, raw)
	if err != nil {
		return fmt.Errorf("put line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.draftMiss(ctx, draftID)
	}
	return nil
}

func (s *Store) DeleteLineItem(ctx context.Context, draftID, productID string) error {
	tag, err := s.exec(ctx, `
UPDATE drafts SET items = items - $2::text
WHERE id = $1 AND state = 'open'`, draftID, productID)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.draftMiss(ctx, draftID)
	}
	return nil
}

func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	tag, err := s.exec(ctx, `DELETE FROM drafts WHERE id = $1 AND state = 'open'`, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.draftMiss(ctx, id)
	}
	return nil
}

// ClaimDraft stamps claimed_at with at. The value handed back is the one
// the row holds, so later claim checks compare equal after Postgres
// truncates to microseconds.
func (s *Store) ClaimDraft(ctx context.Context, id string, at, staleBefore time.Time) (orders.DraftOrder, error) {
	d, err := scanDraft(s.queryRow(ctx, `
UPDATE drafts SET state = 'committing', claimed_at = $2
WHERE id = $1
  AND (state = 'open' OR claimed_at IS NULL OR claimed_at < $3)
RETURNING `+draftColumns, id, at, staleBefore))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.DraftOrder{}, orders.ErrDraftNotFound
		}
		return orders.DraftOrder{}, fmt.Errorf("claim draft: %w", err)
	}
	return d, nil
}

func (s *Store) ReleaseDraft(ctx context.Context, id string, claimedAt time.Time) error {
	tag, err := s.exec(ctx, `
UPDATE drafts SET state = 'open', claimed_at = NULL
WHERE id = $1 AND state = 'committing' AND claimed_at = $2`, id, claimedAt)
	if err != nil {
		return fmt.Errorf("release draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrDraftNotFound
	}
	return nil
}

func (s *Store) ReopenStaleDraft(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	// One row always comes back: the new state when reopened, 'kept' when the
	// draft exists but was left alone, NULL when it does not exist.
	var state *string
	err := s.queryRow(ctx, `
WITH reopened AS (
	UPDATE drafts SET state = 'open', claimed_at = NULL
	WHERE id = $1 AND state = 'committing' AND (claimed_at IS NULL OR claimed_at < $2)
	RETURNING state
)
SELECT COALESCE((SELECT state FROM reopened), (SELECT 'kept' FROM drafts WHERE id = $1))`, id, staleBefore).Scan(&state)
	if err != nil {
		return false, fmt.Errorf("reopen stale draft: %w", err)
	}
	if state == nil {
		return false, orders.ErrDraftNotFound
	}
	return *state == string(orders.DraftOpen), nil
}
