package inventory

import (
	"context"
	"time"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// ProductStore is the record store for products. AdjustStock must be a
// per-product critical section: stock += delta and
// orderedQuantity += max(0, -delta) land together or not at all, and a
// negative delta that would leave stock below zero fails with
// *orders.InsufficientStockError without changing anything.
type ProductStore interface {
	CreateProduct(ctx context.Context, p orders.Product) error
	GetProduct(ctx context.Context, id string) (orders.Product, error)
	GetProductByCode(ctx context.Context, code string) (orders.Product, error)
	ListProducts(ctx context.Context) ([]orders.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (orders.Product, error)
	// ReleaseStock undoes an AdjustStock(id, -qty) that belongs to a failed
	// commit: stock += qty and orderedQuantity -= qty.
	ReleaseStock(ctx context.Context, id string, qty int) (orders.Product, error)
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c orders.Customer) error
	GetCustomer(ctx context.Context, id string) (orders.Customer, error)
	ListCustomers(ctx context.Context) ([]orders.Customer, error)
}

// DraftStore holds pickup orders. Line writes replace the whole line.
// Mutations other than ClaimDraft/ReleaseDraft require the draft to be open
// and fail with orders.ErrDraftLocked while a commit holds it.
type DraftStore interface {
	CreateDraft(ctx context.Context, d orders.DraftOrder) error
	GetDraft(ctx context.Context, id string) (orders.DraftOrder, error)
	ListDrafts(ctx context.Context) ([]orders.DraftOrder, error)
	PutLineItem(ctx context.Context, draftID string, item orders.LineItem) error
	DeleteLineItem(ctx context.Context, draftID, productID string) error
	DeleteDraft(ctx context.Context, id string) error
	// ClaimDraft moves an open draft to committing and stamps ClaimedAt with
	// at. A claim older than staleBefore is taken over. A missing or freshly
	// claimed draft yields orders.ErrDraftNotFound.
	ClaimDraft(ctx context.Context, id string, at, staleBefore time.Time) (orders.DraftOrder, error)
	// ReleaseDraft reopens the draft if claimedAt is still its claim, and
	// yields orders.ErrDraftNotFound otherwise.
	ReleaseDraft(ctx context.Context, id string, claimedAt time.Time) error
	// ReopenStaleDraft reopens a committing draft claimed before
	// staleBefore and reports whether it did.
	ReopenStaleDraft(ctx context.Context, id string, staleBefore time.Time) (bool, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o orders.Order) error
	// CreateOrderFromDraft writes o and removes the draft in one step, only
	// while claimedAt is still the draft's claim. Otherwise it yields
	// orders.ErrDraftNotFound and writes nothing.
	CreateOrderFromDraft(ctx context.Context, o orders.Order, draftID string, claimedAt time.Time) error
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	ListOrders(ctx context.Context) ([]orders.Order, error)
	UpdateOrder(ctx context.Context, id string, patch orders.OrderPatch) (orders.Order, error)
}

type OnlineOrderStore interface {
	CreateOnlineOrder(ctx context.Context, o orders.OnlineOrder) error
	GetOnlineOrder(ctx context.Context, id string) (orders.OnlineOrder, error)
	ListOnlineOrders(ctx context.Context, status orders.OnlineStatus) ([]orders.OnlineOrder, error)
	// SwapOnlineStatus sets status to `to` only if it is currently `from`
	// and reports whether it did.
	SwapOnlineStatus(ctx context.Context, id string, from, to orders.OnlineStatus, draftID string) (bool, error)
}

// EventPublisher feeds the change stream that UIs subscribe to.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType, key string, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, string, any) error { return nil }

// NopPublisher drops every event.
var NopPublisher EventPublisher = nopPublisher{}
