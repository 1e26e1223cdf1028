package httpx

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/redisx"
)

// Idempotency backs the Idempotency-Key header. *redisx.Idempotency
// satisfies it.
type Idempotency interface {
	Begin(ctx context.Context, scope, key string) (string, bool, error)
	Complete(ctx context.Context, scope, key, id string) error
	Abort(ctx context.Context, scope, key string) error
}

// StatusCache fronts GET /orders/{id}/status. *redisx.StatusCache
// satisfies it.
type StatusCache interface {
	Get(ctx context.Context, orderID string) (redisx.OrderStatus, bool, error)
	Set(ctx context.Context, st redisx.OrderStatus) error
}

// Deps wires the handlers. Idempotency and Cache may be nil.
type Deps struct {
	Catalog     *inventory.Catalog
	Customers   *inventory.Customers
	Drafts      *inventory.DraftManager
	Finalizer   *inventory.Finalizer
	DirectSale  *inventory.DirectSale
	Intake      *inventory.Intake
	Records     *inventory.OrderRecords
	Exporter    *inventory.Exporter
	Idempotency Idempotency
	Cache       StatusCache
	Log         *slog.Logger
}

type API struct {
	Deps
}

func NewAPI(d Deps) *API {
	return &API{Deps: d}
}

func (a *API) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", a.createProduct)
		r.Get("/", a.listProducts)
		r.Get("/code/{code}", a.getProductByCode)
		r.Get("/{id}", a.getProduct)
		r.Post("/{id}/restock", a.restockProduct)
		r.Post("/{id}/adjust", a.adjustStock)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", a.createCustomer)
		r.Get("/", a.listCustomers)
		r.Get("/{id}", a.getCustomer)
	})
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", a.createDraft)
		r.Get("/", a.listDrafts)
		r.Get("/{id}", a.getDraft)
		r.Delete("/{id}", a.cancelDraft)
		r.Put("/{id}/items/{productID}", a.putDraftItem)
		r.Put("/{id}/items/{productID}/picked", a.setPicked)
		r.Delete("/{id}/items/{productID}", a.deleteDraftItem)
		r.Post("/{id}/commit", a.commitDraft)
		r.Get("/{id}/export", a.exportDraft)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", a.directSale)
		r.Get("/", a.listOrders)
		r.Get("/{id}", a.getOrder)
		r.Patch("/{id}", a.updateOrder)
		r.Get("/{id}/status", a.orderStatus)
		r.Get("/{id}/export", a.exportOrder)
	})
	r.Route("/online-orders", func(r chi.Router) {
		r.Post("/", a.submitOnline)
		r.Get("/", a.listOnline)
		r.Get("/{id}", a.getOnline)
		r.Post("/{id}/transfer", a.transferOnline)
		r.Patch("/{id}/status", a.updateOnlineStatus)
	})
}
