package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/memstore"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

type published struct {
	Topic     string
	EventType string
	Key       string
	Payload   any
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, topic, eventType, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic, eventType, key, payload})
	return nil
}

func (r *recorder) ofType(eventType string) []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []published
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// flakyProducts wraps a ProductStore and fails AdjustStock for one product,
// simulating a concurrent change that lands after validation.
type flakyProducts struct {
	inventory.ProductStore
	failAdjust  string
	failRelease bool
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyProducts) AdjustStock(ctx context.Context, id string, delta int) (orders.Product, error) {
	if id == f.failAdjust && delta < 0 {
		p, err := f.ProductStore.GetProduct(ctx, id)
		if err != nil {
			return orders.Product{}, err
		}
		return orders.Product{}, orders.NewInsufficientStock(id, -delta, p.Stock-1)
	}
	return f.ProductStore.AdjustStock(ctx, id, delta)
}

func (f *flakyProducts) ReleaseStock(ctx context.Context, id string, qty int) (orders.Product, error) {
	if f.failRelease {
		return orders.Product{}, errStoreDown
	}
	return f.ProductStore.ReleaseStock(ctx, id, qty)
}

// failingOrders refuses every order write.
type failingOrders struct {
	inventory.OrderStore
}

func (failingOrders) CreateOrder(context.Context, orders.Order) error { return errStoreDown }
func (failingOrders) CreateOrderFromDraft(context.Context, orders.Order, string, time.Time) error {
	return errStoreDown
}

// flakyDrafts fails the next failReleases ReleaseDraft calls.
type flakyDrafts struct {
	inventory.DraftStore
	mu           sync.Mutex
	failReleases int
	releases     int
}

func (f *flakyDrafts) ReleaseDraft(ctx context.Context, id string, claimedAt time.Time) error {
	f.mu.Lock()
	f.releases++
	fail := f.failReleases > 0
	if fail {
		f.failReleases--
	}
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.DraftStore.ReleaseDraft(ctx, id, claimedAt)
}

type fixture struct {
	store     *memstore.Store
	events    *recorder
	clock     *clock.Manual
	catalog   *inventory.Catalog
	customers *inventory.Customers
	drafts    *inventory.DraftManager
	finalizer *inventory.Finalizer
	direct    *inventory.DirectSale
	intake    *inventory.Intake
	records   *inventory.OrderRecords
	exporter  *inventory.Exporter
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil, nil)
}

// newFixtureWith swaps the product and order stores seen by the commit
// paths; nil keeps the memstore.
func newFixtureWith(t *testing.T, products inventory.ProductStore, orderStore inventory.OrderStore) *fixture {
	t.Helper()
	s := memstore.New()
	if products == nil {
		products = s
	}
	if orderStore == nil {
		orderStore = s
	}
	if fp, ok := products.(*flakyProducts); ok && fp.ProductStore == nil {
		fp.ProductStore = s
	}
	if fo, ok := orderStore.(*failingOrders); ok && fo.OrderStore == nil {
		fo.OrderStore = s
	}
	ev := &recorder{}
	clk := clock.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	log := logging.Discard()
	drafts := inventory.NewDraftManager(s, s, s, ev, clk, log)
	return &fixture{
		store:     s,
		events:    ev,
		clock:     clk,
		catalog:   inventory.NewCatalog(s, clk, log),
		customers: inventory.NewCustomers(s, clk),
		drafts:    drafts,
		finalizer: inventory.NewFinalizer(s, products, orderStore, ev, clk, log),
		direct:    inventory.NewDirectSale(s, products, orderStore, ev, clk, log),
		intake:    inventory.NewIntake(s, s, s, drafts, ev, clk, log),
		records:   inventory.NewOrderRecords(s, log),
		exporter:  inventory.NewExporter(s, s, s),
	}
}

func (f *fixture) product(t *testing.T, code, price string, stock int) orders.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), inventory.CreateProductInput{
		Code: code, Name: "Item " + code, Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) customer(t *testing.T) orders.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), inventory.CreateCustomerInput{Name: "Ana"})
	require.NoError(t, err)
	return c
}

func (f *fixture) stock(t *testing.T, id string) orders.Product {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}
