package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/metrics"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// DirectSale places and fulfils an order in one step, with the same
// validate-all / apply-all / compensate sequence as Finalizer.
type DirectSale struct {
	customers CustomerStore
	orders    OrderStore
	saga      *stockSaga
	events    EventPublisher
	clock     clock.Clock
	log       *slog.Logger
}

func NewDirectSale(customers CustomerStore, products ProductStore, store OrderStore, events EventPublisher, clk clock.Clock, log *slog.Logger) *DirectSale {
	return &DirectSale{
		customers: customers,
		orders:    store,
		saga:      &stockSaga{store: products, log: log},
		events:    events,
		clock:     clk,
		log:       log,
	}
}

type DirectSaleInput struct {
	CustomerID string
	Items      []orders.LineItem
	// Status defaults to fulfilled.
	Status  orders.Status
	Comment string
}

func (s *DirectSale) Place(ctx context.Context, in DirectSaleInput) (orders.Order, error) {
	order, err := s.place(ctx, in)
	metrics.ObserveCommit(metrics.PathDirect, commitOutcome(err), unitsOf(order))
	if err != nil {
		return orders.Order{}, err
	}
	s.log.InfoContext(ctx, "direct sale placed",
		"order_id", order.ID, "customer_id", order.CustomerID, "total", order.TotalPrice.String())
	publishCommitted(ctx, s.events, s.log, order)
	return order, nil
}

func (s *DirectSale) place(ctx context.Context, in DirectSaleInput) (orders.Order, error) {
	status := in.Status
	if status == "" {
		status = orders.StatusFulfilled
	}
	if !status.Valid() {
		return orders.Order{}, orders.ErrInvalidStatus
	}
	items, err := orders.ItemsFrom(in.Items)
	if err != nil {
		return orders.Order{}, err
	}
	lines := items.Picked()
	if len(lines) == 0 {
		return orders.Order{}, orders.ErrEmptyOrder
	}
	if _, err := s.customers.GetCustomer(ctx, in.CustomerID); err != nil {
		return orders.Order{}, err
	}

	res, err := s.saga.take(ctx, lines)
	if err != nil {
		var ise *orders.InsufficientStockError
		if errors.As(err, &ise) {
			publishRejected(ctx, s.events, s.log, orders.StockRejectedPayload{
				CustomerID: in.CustomerID,
				Source:     orders.SourceDirect,
				Reason:     "OUT_OF_STOCK",
				Details:    ise.Shortages,
			})
		}
		return orders.Order{}, err
	}

	now := s.clock.Now()
	order := orders.Order{
		ID:         uuid.NewString(),
		CustomerID: in.CustomerID,
		Source:     orders.SourceDirect,
		Items:      items,
		TotalPrice: items.Total(res.prices),
		Status:     status,
		Comment:    in.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.CreateOrder(context.WithoutCancel(ctx), order); err != nil {
		return orders.Order{}, s.saga.undo(ctx, res, err)
	}
	return order, nil
}
