package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// ClaimTTL bounds how long a commit may hold a draft. An older claim is
// treated as abandoned: a new commit takes it over and edits reopen it.
const ClaimTTL = 2 * time.Minute

// DraftManager edits pickup orders. It never touches stock: a draft may ask
// for more than is on hand, the check happens at commit.
type DraftManager struct {
	drafts    DraftStore
	products  ProductStore
	customers CustomerStore
	events    EventPublisher
	clock     clock.Clock
	log       *slog.Logger
}

func NewDraftManager(drafts DraftStore, products ProductStore, customers CustomerStore, events EventPublisher, clk clock.Clock, log *slog.Logger) *DraftManager {
	return &DraftManager{
		drafts:    drafts,
		products:  products,
		customers: customers,
		events:    events,
		clock:     clk,
		log:       log,
	}
}

func (m *DraftManager) CreateDraft(ctx context.Context, customerID string) (orders.DraftOrder, error) {
	return m.create(ctx, uuid.NewString(), customerID, "", nil)
}

func (m *DraftManager) create(ctx context.Context, id, customerID, onlineOrderID string, items orders.Items) (orders.DraftOrder, error) {
	if _, err := m.customers.GetCustomer(ctx, customerID); err != nil {
		return orders.DraftOrder{}, err
	}
	if items == nil {
		items = orders.Items{}
	}
	d := orders.DraftOrder{
		ID:            id,
		CustomerID:    customerID,
		OnlineOrderID: onlineOrderID,
		State:         orders.DraftOpen,
		Items:         items,
		CreatedAt:     m.clock.Now(),
	}
	if err := m.drafts.CreateDraft(ctx, d); err != nil {
		return orders.DraftOrder{}, err
	}
	return d, nil
}

func (m *DraftManager) GetDraft(ctx context.Context, id string) (orders.DraftOrder, error) {
	return m.drafts.GetDraft(ctx, id)
}

func (m *DraftManager) ListDrafts(ctx context.Context) ([]orders.DraftOrder, error) {
	return m.drafts.ListDrafts(ctx)
}

// SetLineItem upserts the line with picked = required. required = 0 removes it.
func (m *DraftManager) SetLineItem(ctx context.Context, draftID, productID string, required int) error {
	return m.PutLineItem(ctx, draftID, orders.NewLineItem(productID, required))
}

// PutLineItem writes a complete line, last write wins.
func (m *DraftManager) PutLineItem(ctx context.Context, draftID string, item orders.LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if _, err := m.products.GetProduct(ctx, item.ProductID); err != nil {
		return err
	}
	return m.write(ctx, draftID, func() error {
		if item.Required == 0 {
			return m.drafts.DeleteLineItem(ctx, draftID, item.ProductID)
		}
		return m.drafts.PutLineItem(ctx, draftID, item)
	})
}

// write runs fn and, if the draft is held by a stale commit claim, reopens
// the draft and runs fn once more.
func (m *DraftManager) write(ctx context.Context, draftID string, fn func() error) error {
	err := fn()
	if !errors.Is(err, orders.ErrDraftLocked) {
		return err
	}
	reopened, rerr := m.drafts.ReopenStaleDraft(ctx, draftID, m.clock.Now().Add(-ClaimTTL))
	if rerr != nil || !reopened {
		return err
	}
	m.log.WarnContext(ctx, "reopened draft with stale commit claim", "draft_id", draftID)
	return fn()
}

// SetPicked records a partial (or full) pick for an existing line.
func (m *DraftManager) SetPicked(ctx context.Context, draftID, productID string, picked int) (orders.LineItem, error) {
	d, err := m.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return orders.LineItem{}, err
	}
	li, ok := d.Items[productID]
	if !ok {
		return orders.LineItem{}, orders.ErrLineItemNotFound
	}
	li.Picked = picked
	if err := li.Validate(); err != nil {
		return orders.LineItem{}, err
	}
	if err := m.write(ctx, draftID, func() error { return m.drafts.PutLineItem(ctx, draftID, li) }); err != nil {
		return orders.LineItem{}, err
	}
	return li, nil
}

// CancelDraft discards the draft. A draft never reserved stock, so nothing
// else changes.
func (m *DraftManager) CancelDraft(ctx context.Context, id string) error {
	d, err := m.drafts.GetDraft(ctx, id)
	if err != nil {
		return err
	}
	if err := m.write(ctx, id, func() error { return m.drafts.DeleteDraft(ctx, id) }); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "draft cancelled", "draft_id", id, "customer_id", d.CustomerID)
	if err := m.events.Publish(ctx, orders.TopicDraftCancelled, orders.EventDraftCancelled, id,
		orders.DraftCancelledPayload{DraftID: id, CustomerID: d.CustomerID}); err != nil {
		m.log.WarnContext(ctx, "publish draft cancelled", "draft_id", id, "err", err)
	}
	return nil
}
