package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// OrderRecords reads and edits final orders. Edits never touch stock.
type OrderRecords struct {
	store OrderStore
	log   *slog.Logger
}

func NewOrderRecords(store OrderStore, log *slog.Logger) *OrderRecords {
	return &OrderRecords{store: store, log: log}
}

func (r *OrderRecords) Get(ctx context.Context, id string) (orders.Order, error) {
	return r.store.GetOrder(ctx, id)
}

func (r *OrderRecords) List(ctx context.Context) ([]orders.Order, error) {
	return r.store.ListOrders(ctx)
}

func (r *OrderRecords) Update(ctx context.Context, id string, patch orders.OrderPatch) (orders.Order, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return orders.Order{}, orders.ErrInvalidStatus
	}
	if patch.Comment != nil {
		c := strings.TrimSpace(*patch.Comment)
		patch.Comment = &c
	}
	if patch.Status == nil && patch.Comment == nil {
		return r.store.GetOrder(ctx, id)
	}
	o, err := r.store.UpdateOrder(ctx, id, patch)
	if err != nil {
		return orders.Order{}, err
	}
	r.log.InfoContext(ctx, "order updated", "order_id", id, "status", o.Status)
	return o, nil
}

func (r *OrderRecords) UpdateStatus(ctx context.Context, id string, status orders.Status) (orders.Order, error) {
	return r.Update(ctx, id, orders.OrderPatch{Status: &status})
}

func (r *OrderRecords) UpdateComment(ctx context.Context, id, comment string) (orders.Order, error) {
	return r.Update(ctx, id, orders.OrderPatch{Comment: &comment})
}
