package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

func TestOrderRecords_EditsDoNotTouchStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "P", "1", 5)
	c := f.customer(t)
	o, err := f.direct.Place(ctx, inventory.DirectSaleInput{CustomerID: c.ID, Items: []orders.LineItem{orders.NewLineItem(p.ID, 2)}})
	require.NoError(t, err)

	got, err := f.records.UpdateStatus(ctx, o.ID, orders.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, 3, f.stock(t, p.ID).Stock)

	got, err = f.records.UpdateComment(ctx, o.ID, " left at door ")
	require.NoError(t, err)
	assert.Equal(t, "left at door", got.Comment)
	assert.Equal(t, orders.StatusCancelled, got.Status)

	_, err = f.records.UpdateStatus(ctx, o.ID, "lost")
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)
	_, err = f.records.UpdateStatus(ctx, "ghost", orders.StatusDelivered)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestExporter_SortedByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.customer(t)
	zeta, err := f.catalog.CreateProduct(ctx, inventory.CreateProductInput{Code: "Z1", Name: "Zeta", Price: decimal.RequireFromString("1.50"), Stock: 9})
	require.NoError(t, err)
	alpha, err := f.catalog.CreateProduct(ctx, inventory.CreateProductInput{Code: "A1", Name: "Alpha", Price: decimal.RequireFromString("2"), Stock: 9})
	require.NoError(t, err)

	d, err := f.drafts.CreateDraft(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, f.drafts.SetLineItem(ctx, d.ID, zeta.ID, 2))
	require.NoError(t, f.drafts.PutLineItem(ctx, d.ID, orders.LineItem{ProductID: alpha.ID, Required: 3, Picked: 1, Comment: "small"}))

	rows, err := f.exporter.Draft(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].ProductName)
	assert.Equal(t, 3, rows[0].Required)
	assert.Equal(t, 1, rows[0].Picked)
	assert.Equal(t, 9, rows[0].StockAtRead)
	assert.True(t, decimal.NewFromInt(2).Equal(rows[0].LineTotal))
	assert.Equal(t, "Zeta", rows[1].ProductName)
	assert.True(t, decimal.NewFromInt(3).Equal(rows[1].LineTotal))

	o, err := f.finalizer.Commit(ctx, d.ID, orders.StatusFulfilled)
	require.NoError(t, err)
	rows, err = f.exporter.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, rows[0].StockAtRead)
}
