package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
	"github.com/ariefcatur/go-pickup-inventory/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	return NewStore(pool, 3), ctx
}

func insertProduct(t *testing.T, ctx context.Context, s *Store, code string, stock int) orders.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := orders.Product{
		ID: uuid.NewString(), Code: code, Name: "Item " + code,
		Price: decimal.RequireFromString("12.345"), Stock: stock, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateProduct(ctx, p))
	return p
}

func insertCustomer(t *testing.T, ctx context.Context, s *Store) orders.Customer {
	t.Helper()
	c := orders.Customer{ID: uuid.NewString(), Name: "Ana", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateCustomer(ctx, c))
	return c
}

func TestProducts(t *testing.T) {
	s, ctx := newTestStore(t)

	t.Run("price round-trips exactly", func(t *testing.T) {
		p := insertProduct(t, ctx, s, "A", 3)
		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(got.Price), "got %s", got.Price)

		byCode, err := s.GetProductByCode(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, p.ID, byCode.ID)
	})

	t.Run("duplicate code", func(t *testing.T) {
		insertProduct(t, ctx, s, "DUP", 1)
		err := s.CreateProduct(ctx, orders.Product{ID: uuid.NewString(), Code: "DUP", Name: "x", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, orders.ErrDuplicateCode)
	})

	t.Run("adjust and release", func(t *testing.T) {
		p := insertProduct(t, ctx, s, "B", 5)

		got, err := s.AdjustStock(ctx, p.ID, -3)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Stock)
		assert.Equal(t, 3, got.OrderedQuantity)

		_, err = s.AdjustStock(ctx, p.ID, -3)
		var ise *orders.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, 2, ise.Available)

		got, err = s.ReleaseStock(ctx, p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
		assert.Zero(t, got.OrderedQuantity)

		_, err = s.AdjustStock(ctx, uuid.NewString(), -1)
		assert.ErrorIs(t, err, orders.ErrProductNotFound)
	})

	t.Run("concurrent decrements never oversell", func(t *testing.T) {
		p := insertProduct(t, ctx, s, "C", 20)
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok := 0
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.AdjustStock(ctx, p.ID, -1); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, ok)
		assert.Zero(t, got.Stock)
		assert.Equal(t, 20, got.OrderedQuantity)
	})
}

func TestDraftsAndOrders(t *testing.T) {
	s, ctx := newTestStore(t)
	c := insertCustomer(t, ctx, s)
	p := insertProduct(t, ctx, s, "D", 10)

	d := orders.DraftOrder{ID: uuid.NewString(), CustomerID: c.ID, State: orders.DraftOpen, Items: orders.Items{}, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateDraft(ctx, d))
	require.NoError(t, s.PutLineItem(ctx, d.ID, orders.LineItem{ProductID: p.ID, Required: 4, Picked: 2, Comment: "x"}))

	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.LineItem{ProductID: p.ID, Required: 4, Picked: 2, Comment: "x"}, got.Items[p.ID])

	claimAt := time.Now().UTC()
	claimed, err := s.ClaimDraft(ctx, d.ID, claimAt, claimAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, orders.DraftCommitting, claimed.State)
	assert.WithinDuration(t, claimAt, claimed.ClaimedAt, time.Millisecond)
	_, err = s.ClaimDraft(ctx, d.ID, claimAt, claimAt.Add(-time.Minute))
	assert.ErrorIs(t, err, orders.ErrDraftNotFound)

	reopened, err := s.ReopenStaleDraft(ctx, d.ID, claimAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, reopened)
	_, err = s.ReopenStaleDraft(ctx, uuid.NewString(), claimAt)
	assert.ErrorIs(t, err, orders.ErrDraftNotFound)
	assert.ErrorIs(t, s.PutLineItem(ctx, d.ID, orders.NewLineItem(p.ID, 1)), orders.ErrDraftLocked)
	assert.ErrorIs(t, s.DeleteLineItem(ctx, uuid.NewString(), p.ID), orders.ErrDraftNotFound)

	now := time.Now().UTC()
	o := orders.Order{
		ID: uuid.NewString(), CustomerID: c.ID, Source: orders.SourceDraft, DraftID: d.ID,
		Items: claimed.Items, TotalPrice: decimal.RequireFromString("24.69"), Status: orders.StatusFulfilled,
		CreatedAt: now, UpdatedAt: now,
	}
	assert.ErrorIs(t, s.CreateOrderFromDraft(ctx, o, d.ID, claimed.ClaimedAt.Add(time.Second)), orders.ErrDraftNotFound,
		"a different claim must not complete the draft")
	require.NoError(t, s.CreateOrderFromDraft(ctx, o, d.ID, claimed.ClaimedAt))
	_, err = s.GetDraft(ctx, d.ID)
	assert.ErrorIs(t, err, orders.ErrDraftNotFound)
	assert.ErrorIs(t, s.CreateOrderFromDraft(ctx, o, d.ID, claimed.ClaimedAt), orders.ErrDraftNotFound)

	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, o.TotalPrice.Equal(stored.TotalPrice))
	assert.Equal(t, 2, stored.Items[p.ID].Picked)

	comment := "paid cash"
	updated, err := s.UpdateOrder(ctx, o.ID, orders.OrderPatch{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, "paid cash", updated.Comment)
	assert.Equal(t, orders.StatusFulfilled, updated.Status)
}

func TestDraftStaleClaim(t *testing.T) {
	s, ctx := newTestStore(t)
	c := insertCustomer(t, ctx, s)
	d := orders.DraftOrder{ID: uuid.NewString(), CustomerID: c.ID, State: orders.DraftOpen, Items: orders.Items{}, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateDraft(ctx, d))

	first := time.Now().UTC().Add(-10 * time.Minute)
	old, err := s.ClaimDraft(ctx, d.ID, first, first.Add(-time.Minute))
	require.NoError(t, err)

	now := time.Now().UTC()
	taken, err := s.ClaimDraft(ctx, d.ID, now, now.Add(-2*time.Minute))
	require.NoError(t, err, "a stale claim is taken over")
	assert.ErrorIs(t, s.ReleaseDraft(ctx, d.ID, old.ClaimedAt), orders.ErrDraftNotFound)

	require.NoError(t, s.ReleaseDraft(ctx, d.ID, taken.ClaimedAt))
	_, err = s.ClaimDraft(ctx, d.ID, first, first.Add(-time.Minute))
	require.NoError(t, err)
	reopened, err := s.ReopenStaleDraft(ctx, d.ID, now.Add(-2*time.Minute))
	require.NoError(t, err)
	assert.True(t, reopened)

	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.DraftOpen, got.State)
	assert.True(t, got.ClaimedAt.IsZero())
}

func TestOnlineOrders(t *testing.T) {
	s, ctx := newTestStore(t)
	c := insertCustomer(t, ctx, s)
	now := time.Now().UTC()
	o := orders.OnlineOrder{ID: uuid.NewString(), CustomerID: c.ID, Items: orders.Items{}, Status: orders.OnlineNew, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOnlineOrder(ctx, o))

	draftID := uuid.NewString()
	ok, err := s.SwapOnlineStatus(ctx, o.ID, orders.OnlineNew, orders.OnlineTransferred, draftID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SwapOnlineStatus(ctx, o.ID, orders.OnlineNew, orders.OnlineTransferred, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetOnlineOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, draftID, got.DraftID)

	list, err := s.ListOnlineOrders(ctx, orders.OnlineTransferred)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.SwapOnlineStatus(ctx, uuid.NewString(), orders.OnlineNew, orders.OnlineConfirmed, "")
	assert.ErrorIs(t, err, orders.ErrOnlineOrderNotFound)
}
