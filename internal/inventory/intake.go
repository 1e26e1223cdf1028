package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const statusSwapAttempts = 3

// Intake captures customer-submitted orders. Submission never checks or
// touches stock; the stock check happens when the transferred draft commits.
type Intake struct {
	store     OnlineOrderStore
	products  ProductStore
	customers CustomerStore
	drafts    *DraftManager
	events    EventPublisher
	clock     clock.Clock
	log       *slog.Logger
}

func NewIntake(store OnlineOrderStore, products ProductStore, customers CustomerStore, drafts *DraftManager, events EventPublisher, clk clock.Clock, log *slog.Logger) *Intake {
	return &Intake{
		store:     store,
		products:  products,
		customers: customers,
		drafts:    drafts,
		events:    events,
		clock:     clk,
		log:       log,
	}
}

// Submit records intent: required = picked = requested quantity.
func (in *Intake) Submit(ctx context.Context, customerID string, lines []orders.RequestLine) (orders.OnlineOrder, error) {
	if len(lines) == 0 {
		return orders.OnlineOrder{}, orders.ErrEmptyOrder
	}
	items := make([]orders.LineItem, 0, len(lines))
	for _, l := range lines {
		if l.Qty <= 0 {
			return orders.OnlineOrder{}, orders.ErrInvalidQuantity
		}
		li := orders.NewLineItem(l.ProductID, l.Qty)
		li.Comment = l.Comment
		items = append(items, li)
	}
	set, err := orders.ItemsFrom(items)
	if err != nil {
		return orders.OnlineOrder{}, err
	}
	if _, err := in.customers.GetCustomer(ctx, customerID); err != nil {
		return orders.OnlineOrder{}, err
	}
	for id := range set {
		if _, err := in.products.GetProduct(ctx, id); err != nil {
			return orders.OnlineOrder{}, err
		}
	}

	now := in.clock.Now()
	o := orders.OnlineOrder{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Items:      set,
		Status:     orders.OnlineNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := in.store.CreateOnlineOrder(ctx, o); err != nil {
		return orders.OnlineOrder{}, err
	}
	in.log.InfoContext(ctx, "online order submitted", "online_order_id", o.ID, "customer_id", customerID, "lines", len(set))
	in.publish(ctx, orders.TopicOnlineSubmitted, orders.EventOnlineOrderSubmitted, o.ID, orders.OnlineOrderSubmittedPayload{
		OnlineOrderID: o.ID,
		CustomerID:    customerID,
		Items:         set.Sorted(),
	})
	return o, nil
}

func (in *Intake) Get(ctx context.Context, id string) (orders.OnlineOrder, error) {
	return in.store.GetOnlineOrder(ctx, id)
}

// List filters by status; an empty status lists everything.
func (in *Intake) List(ctx context.Context, status orders.OnlineStatus) ([]orders.OnlineOrder, error) {
	if status != "" && !status.Valid() {
		return nil, orders.ErrInvalidStatus
	}
	return in.store.ListOnlineOrders(ctx, status)
}

// TransferToDraft hands a new online order to picking. The draft copies the
// required quantities with picked pre-seeded to required.
func (in *Intake) TransferToDraft(ctx context.Context, id string) (orders.DraftOrder, error) {
	o, err := in.store.GetOnlineOrder(ctx, id)
	if err != nil {
		return orders.DraftOrder{}, err
	}
	if err := transferAllowed(o.Status); err != nil {
		return orders.DraftOrder{}, err
	}

	draftID := uuid.NewString()
	ok, err := in.store.SwapOnlineStatus(ctx, id, orders.OnlineNew, orders.OnlineTransferred, draftID)
	if err != nil {
		return orders.DraftOrder{}, err
	}
	if !ok {
		// lost a race with another transfer or a manual edit
		cur, err := in.store.GetOnlineOrder(ctx, id)
		if err != nil {
			return orders.DraftOrder{}, err
		}
		if err := transferAllowed(cur.Status); err != nil {
			return orders.DraftOrder{}, err
		}
		return orders.DraftOrder{}, orders.ErrAlreadyTransferred
	}

	items := make(orders.Items, len(o.Items))
	for pid, li := range o.Items {
		items[pid] = orders.LineItem{ProductID: pid, Required: li.Required, Picked: li.Required, Comment: li.Comment}
	}
	d, err := in.drafts.create(ctx, draftID, o.CustomerID, o.ID, items)
	if err != nil {
		if _, rerr := in.store.SwapOnlineStatus(context.WithoutCancel(ctx), id, orders.OnlineTransferred, orders.OnlineNew, ""); rerr != nil {
			in.log.ErrorContext(ctx, "revert online order transfer", "online_order_id", id, "err", rerr)
			err = errors.Join(err, rerr)
		}
		return orders.DraftOrder{}, err
	}

	in.log.InfoContext(ctx, "online order transferred", "online_order_id", id, "draft_id", d.ID)
	in.publish(ctx, orders.TopicOnlineTransferred, orders.EventOnlineOrderTransferred, id,
		orders.OnlineOrderTransferredPayload{OnlineOrderID: id, DraftID: d.ID})
	return d, nil
}

func transferAllowed(s orders.OnlineStatus) error {
	switch {
	case s == orders.OnlineTransferred:
		return orders.ErrAlreadyTransferred
	case !orders.CanTransition(s, orders.OnlineTransferred):
		return orders.ErrInvalidStatus
	}
	return nil
}

// UpdateStatus is a record edit with no stock effect. "transferred" is only
// reachable through TransferToDraft.
func (in *Intake) UpdateStatus(ctx context.Context, id string, to orders.OnlineStatus) (orders.OnlineOrder, error) {
	if !to.Valid() || to == orders.OnlineTransferred {
		return orders.OnlineOrder{}, orders.ErrInvalidStatus
	}
	for attempt := 0; attempt < statusSwapAttempts; attempt++ {
		o, err := in.store.GetOnlineOrder(ctx, id)
		if err != nil {
			return orders.OnlineOrder{}, err
		}
		if o.Status == orders.OnlineTransferred {
			return orders.OnlineOrder{}, orders.ErrAlreadyTransferred
		}
		if !orders.CanTransition(o.Status, to) {
			return orders.OnlineOrder{}, orders.ErrInvalidStatus
		}
		ok, err := in.store.SwapOnlineStatus(ctx, id, o.Status, to, "")
		if err != nil {
			return orders.OnlineOrder{}, err
		}
		if !ok {
			continue
		}
		in.publish(ctx, orders.TopicOnlineStatusChange, orders.EventOnlineOrderStatusChange, id,
			orders.OnlineOrderStatusChangedPayload{OnlineOrderID: id, From: o.Status, To: to})
		o.Status = to
		o.UpdatedAt = in.clock.Now()
		return o, nil
	}
	return orders.OnlineOrder{}, orders.ErrStatusContention
}

func (in *Intake) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if err := in.events.Publish(ctx, topic, eventType, key, payload); err != nil {
		in.log.WarnContext(ctx, "publish online order event", "event_type", eventType, "online_order_id", key, "err", err)
	}
}
