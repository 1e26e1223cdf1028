package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/metrics"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const (
	releaseAttempts = 3
	releaseBackoff  = 20 * time.Millisecond
)

// Finalizer turns a draft into an immutable Order, deducting stock.
//
// The draft is claimed first (open -> committing), so a second commit of
// the same draft sees ErrDraftNotFound and never reaches stock. On any
// failure the claim is released and applied decrements are compensated.
type Finalizer struct {
	drafts DraftStore
	orders OrderStore
	saga   *stockSaga
	events EventPublisher
	clock  clock.Clock
	log    *slog.Logger
}

func NewFinalizer(drafts DraftStore, products ProductStore, store OrderStore, events EventPublisher, clk clock.Clock, log *slog.Logger) *Finalizer {
	return &Finalizer{
		drafts: drafts,
		orders: store,
		saga:   &stockSaga{store: products, log: log},
		events: events,
		clock:  clk,
		log:    log,
	}
}

func (f *Finalizer) Commit(ctx context.Context, draftID string, status orders.Status) (orders.Order, error) {
	if !status.Valid() {
		return orders.Order{}, orders.ErrInvalidStatus
	}

	now := f.clock.Now()
	draft, err := f.drafts.ClaimDraft(ctx, draftID, now, now.Add(-ClaimTTL))
	if err != nil {
		return orders.Order{}, err
	}

	order, err := f.commitClaimed(ctx, draft, status)
	metrics.ObserveCommit(metrics.PathDraft, commitOutcome(err), unitsOf(order))
	if err != nil {
		if rerr := f.releaseClaim(ctx, draft); rerr != nil {
			f.log.ErrorContext(ctx, "release draft claim", "draft_id", draftID, "attempts", releaseAttempts, "err", rerr)
			err = errors.Join(err, fmt.Errorf("release draft claim: %w: %w", orders.ErrCompensationFailed, rerr))
		}
		f.reject(ctx, draft, err)
		return orders.Order{}, err
	}

	f.log.InfoContext(ctx, "draft committed",
		"draft_id", draftID, "order_id", order.ID, "total", order.TotalPrice.String(), "status", order.Status)
	publishCommitted(ctx, f.events, f.log, order)
	return order, nil
}

func (f *Finalizer) commitClaimed(ctx context.Context, draft orders.DraftOrder, status orders.Status) (orders.Order, error) {
	lines := draft.Items.Picked()
	if len(lines) == 0 {
		return orders.Order{}, orders.ErrEmptyOrder
	}

	res, err := f.saga.take(ctx, lines)
	if err != nil {
		return orders.Order{}, err
	}

	now := f.clock.Now()
	order := orders.Order{
		ID:         uuid.NewString(),
		CustomerID: draft.CustomerID,
		Source:     orders.SourceDraft,
		DraftID:    draft.ID,
		Items:      draft.Items.Clone(),
		TotalPrice: draft.Items.Total(res.prices),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.orders.CreateOrderFromDraft(context.WithoutCancel(ctx), order, draft.ID, draft.ClaimedAt); err != nil {
		return orders.Order{}, f.saga.undo(ctx, res, err)
	}
	return order, nil
}

// releaseClaim reopens the draft, retrying transient failures. A claim that
// is already gone (taken over after going stale) needs no release. A claim
// that cannot be released goes stale after ClaimTTL and is recovered then.
func (f *Finalizer) releaseClaim(ctx context.Context, draft orders.DraftOrder) error {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= releaseAttempts; attempt++ {
		err = f.drafts.ReleaseDraft(ctx, draft.ID, draft.ClaimedAt)
		if err == nil || errors.Is(err, orders.ErrDraftNotFound) {
			return nil
		}
		if attempt < releaseAttempts {
			time.Sleep(time.Duration(attempt) * releaseBackoff)
		}
	}
	return err
}

func (f *Finalizer) reject(ctx context.Context, draft orders.DraftOrder, err error) {
	var ise *orders.InsufficientStockError
	if !errors.As(err, &ise) {
		return
	}
	f.log.InfoContext(ctx, "commit rejected",
		"draft_id", draft.ID, "product_id", ise.ProductID, "requested", ise.Requested, "available", ise.Available)
	publishRejected(ctx, f.events, f.log, orders.StockRejectedPayload{
		DraftID:    draft.ID,
		CustomerID: draft.CustomerID,
		Source:     orders.SourceDraft,
		Reason:     "OUT_OF_STOCK",
		Details:    ise.Shortages,
	})
}

func unitsOf(o orders.Order) int {
	n := 0
	for _, li := range o.Items {
		n += li.Picked
	}
	return n
}

func publishCommitted(ctx context.Context, events EventPublisher, log *slog.Logger, o orders.Order) {
	err := events.Publish(ctx, orders.TopicOrderCommitted, orders.EventOrderCommitted, o.ID, orders.OrderCommittedPayload{
		OrderID:    o.ID,
		DraftID:    o.DraftID,
		CustomerID: o.CustomerID,
		Source:     o.Source,
		Items:      o.Items.Sorted(),
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
	})
	if err != nil {
		log.WarnContext(ctx, "publish order committed", "order_id", o.ID, "err", err)
	}
}

func publishRejected(ctx context.Context, events EventPublisher, log *slog.Logger, p orders.StockRejectedPayload) {
	key := p.DraftID
	if key == "" {
		key = p.CustomerID
	}
	if err := events.Publish(ctx, orders.TopicStockRejected, orders.EventStockRejected, key, p); err != nil {
		log.WarnContext(ctx, "publish stock rejected", "key", key, "err", err)
	}
}
