package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// Catalog is the only path to product stock.
type Catalog struct {
	store ProductStore
	clock clock.Clock
	log   *slog.Logger
}

func NewCatalog(store ProductStore, clk clock.Clock, log *slog.Logger) *Catalog {
	return &Catalog{store: store, clock: clk, log: log}
}

type CreateProductInput struct {
	Code  string
	Name  string
	Price decimal.Decimal
	Stock int
}

func (c *Catalog) CreateProduct(ctx context.Context, in CreateProductInput) (orders.Product, error) {
	code, name := strings.TrimSpace(in.Code), strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return orders.Product{}, orders.ErrInvalidProduct
	}
	if !in.Price.IsPositive() {
		return orders.Product{}, orders.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return orders.Product{}, orders.ErrInvalidQuantity
	}
	now := c.clock.Now()
	p := orders.Product{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.CreateProduct(ctx, p); err != nil {
		return orders.Product{}, err
	}
	return p, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (orders.Product, error) {
	return c.store.GetProduct(ctx, id)
}

func (c *Catalog) GetByCode(ctx context.Context, code string) (orders.Product, error) {
	return c.store.GetProductByCode(ctx, strings.TrimSpace(code))
}

func (c *Catalog) ListAll(ctx context.Context) ([]orders.Product, error) {
	return c.store.ListProducts(ctx)
}

// AdjustStock applies delta atomically; it never clamps.
func (c *Catalog) AdjustStock(ctx context.Context, id string, delta int) (orders.Product, error) {
	if delta == 0 {
		return c.store.GetProduct(ctx, id)
	}
	return c.store.AdjustStock(ctx, id, delta)
}

// Restock adds received units. orderedQuantity is untouched.
func (c *Catalog) Restock(ctx context.Context, id string, qty int) (orders.Product, error) {
	if qty <= 0 {
		return orders.Product{}, orders.ErrInvalidQuantity
	}
	p, err := c.store.AdjustStock(ctx, id, qty)
	if err != nil {
		return orders.Product{}, err
	}
	c.log.InfoContext(ctx, "restocked", "product_id", id, "qty", qty, "stock", p.Stock)
	return p, nil
}
