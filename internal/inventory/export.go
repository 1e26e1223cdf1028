package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// ExportRow is one line of a printable pick list or receipt.
type ExportRow struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Required    int             `json:"required"`
	Picked      int             `json:"picked"`
	StockAtRead int             `json:"stock_at_read"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Comment     string          `json:"comment,omitempty"`
}

// Exporter joins order lines with the catalog. Stock and price are whatever
// the catalog holds at read time.
type Exporter struct {
	products ProductStore
	drafts   DraftStore
	orders   OrderStore
}

func NewExporter(products ProductStore, drafts DraftStore, store OrderStore) *Exporter {
	return &Exporter{products: products, drafts: drafts, orders: store}
}

func (e *Exporter) Draft(ctx context.Context, id string) ([]ExportRow, error) {
	d, err := e.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.rows(ctx, d.Items)
}

func (e *Exporter) Order(ctx context.Context, id string) ([]ExportRow, error) {
	o, err := e.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.rows(ctx, o.Items)
}

// rows is sorted by product name, then code.
func (e *Exporter) rows(ctx context.Context, items orders.Items) ([]ExportRow, error) {
	out := make([]ExportRow, 0, len(items))
	for _, li := range items.Sorted() {
		p, err := e.products.GetProduct(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, ExportRow{
			ProductCode: p.Code,
			ProductName: p.Name,
			Required:    li.Required,
			Picked:      li.Picked,
			StockAtRead: p.Stock,
			UnitPrice:   p.Price,
			LineTotal:   p.Price.Mul(decimal.NewFromInt(int64(li.Picked))),
			Comment:     li.Comment,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	return out, nil
}
