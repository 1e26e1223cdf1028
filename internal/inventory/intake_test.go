package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/logging"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

func TestIntake_SubmitIgnoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)

	o, err := f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 4, Comment: "ripe"}})
	require.NoError(t, err)
	assert.Equal(t, orders.OnlineNew, o.Status)
	assert.Equal(t, orders.LineItem{ProductID: q.ID, Required: 4, Picked: 4, Comment: "ripe"}, o.Items[q.ID])
	assert.Equal(t, 1, f.stock(t, q.ID).Stock)
	assert.Len(t, f.events.ofType(orders.EventOnlineOrderSubmitted), 1)
}

func TestIntake_TransferThenCommitIsStockChecked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)

	o, err := f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 4}})
	require.NoError(t, err)

	d, err := f.intake.TransferToDraft(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Items[q.ID].Required)
	assert.Equal(t, 4, d.Items[q.ID].Picked)
	assert.Equal(t, o.ID, d.OnlineOrderID)

	after, err := f.intake.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.OnlineTransferred, after.Status)
	assert.Equal(t, d.ID, after.DraftID)

	_, err = f.finalizer.Commit(ctx, d.ID, orders.StatusFulfilled)
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)

	_, err = f.catalog.Restock(ctx, q.ID, 3)
	require.NoError(t, err)
	_, err = f.finalizer.Commit(ctx, d.ID, orders.StatusFulfilled)
	require.NoError(t, err)
	assert.Zero(t, f.stock(t, q.ID).Stock)
}

func TestIntake_TransferIsOneWay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)
	o, err := f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 1}})
	require.NoError(t, err)

	_, err = f.intake.TransferToDraft(ctx, o.ID)
	require.NoError(t, err)
	_, err = f.intake.TransferToDraft(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrAlreadyTransferred)
	_, err = f.intake.UpdateStatus(ctx, o.ID, orders.OnlineCancelled)
	assert.ErrorIs(t, err, orders.ErrAlreadyTransferred)

	drafts, err := f.drafts.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestIntake_ManualStatuses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)
	o, err := f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 1}})
	require.NoError(t, err)

	got, err := f.intake.UpdateStatus(ctx, o.ID, orders.OnlineConfirmed)
	require.NoError(t, err)
	assert.Equal(t, orders.OnlineConfirmed, got.Status)

	_, err = f.intake.UpdateStatus(ctx, o.ID, orders.OnlineNew)
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)
	_, err = f.intake.UpdateStatus(ctx, o.ID, orders.OnlineTransferred)
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)
	_, err = f.intake.TransferToDraft(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)

	got, err = f.intake.UpdateStatus(ctx, o.ID, orders.OnlineCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.OnlineCompleted, got.Status)

	list, err := f.intake.List(ctx, orders.OnlineCompleted)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, f.events.ofType(orders.EventOnlineOrderStatusChange), 2)
}

func TestIntake_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)

	_, err := f.intake.Submit(ctx, c.ID, nil)
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)
	_, err = f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 0}})
	assert.ErrorIs(t, err, orders.ErrInvalidQuantity)
	_, err = f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: "ghost", Qty: 1}})
	assert.ErrorIs(t, err, orders.ErrProductNotFound)
	_, err = f.intake.Submit(ctx, "ghost", []orders.RequestLine{{ProductID: q.ID, Qty: 1}})
	assert.ErrorIs(t, err, orders.ErrCustomerNotFound)
	_, err = f.intake.List(ctx, "bogus")
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)
}

// contendedOnline loses every status compare-and-swap, as if another writer
// always got there first.
type contendedOnline struct {
	inventory.OnlineOrderStore
	swaps int
}

func (c *contendedOnline) SwapOnlineStatus(context.Context, string, orders.OnlineStatus, orders.OnlineStatus, string) (bool, error) {
	c.swaps++
	return false, nil
}

func TestIntake_UpdateStatusContention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.product(t, "Q", "3", 1)
	c := f.customer(t)
	o, err := f.intake.Submit(ctx, c.ID, []orders.RequestLine{{ProductID: q.ID, Qty: 1}})
	require.NoError(t, err)

	store := &contendedOnline{OnlineOrderStore: f.store}
	in := inventory.NewIntake(store, f.store, f.store, f.drafts, f.events, f.clock, logging.Discard())

	_, err = in.UpdateStatus(ctx, o.ID, orders.OnlineConfirmed)
	assert.ErrorIs(t, err, orders.ErrStatusContention)
	assert.NotErrorIs(t, err, orders.ErrInvalidStatus)
	assert.Equal(t, 3, store.swaps)
}
