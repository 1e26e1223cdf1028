// Package memstore is the in-process backend. It backs tests and the
// "memory" store backend, and keeps the same atomicity as the Postgres
// stores: AdjustStock is a per-product critical section and record writes
// that must land together share one lock.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

var (
	_ inventory.ProductStore     = (*Store)(nil)
	_ inventory.CustomerStore    = (*Store)(nil)
	_ inventory.DraftStore       = (*Store)(nil)
	_ inventory.OrderStore       = (*Store)(nil)
	_ inventory.OnlineOrderStore = (*Store)(nil)
)

type productCell struct {
	mu sync.Mutex
	p  orders.Product
}

type Store struct {
	pmu      sync.RWMutex
	products map[string]*productCell
	codes    map[string]string

	mu        sync.RWMutex
	customers map[string]orders.Customer
	drafts    map[string]orders.DraftOrder
	orders    map[string]orders.Order
	online    map[string]orders.OnlineOrder

	now func() time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]*productCell),
		codes:     make(map[string]string),
		customers: make(map[string]orders.Customer),
		drafts:    make(map[string]orders.DraftOrder),
		orders:    make(map[string]orders.Order),
		online:    make(map[string]orders.OnlineOrder),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ---- products ----

func (s *Store) CreateProduct(_ context.Context, p orders.Product) error {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	if _, dup := s.codes[p.Code]; dup {
		return orders.ErrDuplicateCode
	}
	s.products[p.ID] = &productCell{p: p}
	s.codes[p.Code] = p.ID
	return nil
}

func (s *Store) cell(id string) (*productCell, bool) {
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	c, ok := s.products[id]
	return c, ok
}

func (s *Store) GetProduct(_ context.Context, id string) (orders.Product, error) {
	c, ok := s.cell(id)
	if !ok {
		return orders.Product{}, orders.ErrProductNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p, nil
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (orders.Product, error) {
	s.pmu.RLock()
	id, ok := s.codes[code]
	s.pmu.RUnlock()
	if !ok {
		return orders.Product{}, orders.ErrProductNotFound
	}
	return s.GetProduct(ctx, id)
}

// ListProducts is ordered by name.
func (s *Store) ListProducts(_ context.Context) ([]orders.Product, error) {
	s.pmu.RLock()
	cells := make([]*productCell, 0, len(s.products))
	for _, c := range s.products {
		cells = append(cells, c)
	}
	s.pmu.RUnlock()

	out := make([]orders.Product, 0, len(cells))
	for _, c := range cells {
		c.mu.Lock()
		out = append(out, c.p)
		c.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Store) AdjustStock(_ context.Context, id string, delta int) (orders.Product, error) {
	c, ok := s.cell(id)
	if !ok {
		return orders.Product{}, orders.ErrProductNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if delta < 0 && c.p.Stock+delta < 0 {
		return orders.Product{}, orders.NewInsufficientStock(id, -delta, c.p.Stock)
	}
	c.p.Stock += delta
	if delta < 0 {
		c.p.OrderedQuantity -= delta
	}
	c.p.UpdatedAt = s.now()
	return c.p, nil
}

func (s *Store) ReleaseStock(_ context.Context, id string, qty int) (orders.Product, error) {
	if qty <= 0 {
		return orders.Product{}, orders.ErrInvalidQuantity
	}
	c, ok := s.cell(id)
	if !ok {
		return orders.Product{}, orders.ErrProductNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p.Stock += qty
	c.p.OrderedQuantity = max(c.p.OrderedQuantity-qty, 0)
	c.p.UpdatedAt = s.now()
	return c.p, nil
}

// ---- customers ----

func (s *Store) CreateCustomer(_ context.Context, c orders.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (orders.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return orders.Customer{}, orders.ErrCustomerNotFound
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]orders.Customer, error) {
	s.mu.RLock()
	out := make([]orders.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- drafts ----

func cloneDraft(d orders.DraftOrder) orders.DraftOrder {
	d.Items = d.Items.Clone()
	return d
}

func (s *Store) CreateDraft(_ context.Context, d orders.DraftOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = cloneDraft(d)
	return nil
}

func (s *Store) GetDraft(_ context.Context, id string) (orders.DraftOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return orders.DraftOrder{}, orders.ErrDraftNotFound
	}
	return cloneDraft(d), nil
}

func (s *Store) ListDrafts(_ context.Context) ([]orders.DraftOrder, error) {
	s.mu.RLock()
	out := make([]orders.DraftOrder, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, cloneDraft(d))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// openDraft must be called with s.mu held.
func (s *Store) openDraft(id string) (orders.DraftOrder, error) {
	d, ok := s.drafts[id]
	if !ok {
		return orders.DraftOrder{}, orders.ErrDraftNotFound
	}
	if d.State != orders.DraftOpen {
		return orders.DraftOrder{}, orders.ErrDraftLocked
	}
	return d, nil
}

func (s *Store) PutLineItem(_ context.Context, draftID string, item orders.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.openDraft(draftID)
	if err != nil {
		return err
	}
	d.Items = d.Items.Clone()
	d.Items[item.ProductID] = item
	s.drafts[draftID] = d
	return nil
}

func (s *Store) DeleteLineItem(_ context.Context, draftID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.openDraft(draftID)
	if err != nil {
		return err
	}
	if _, ok := d.Items[productID]; !ok {
		return nil
	}
	d.Items = d.Items.Clone()
	delete(d.Items, productID)
	s.drafts[draftID] = d
	return nil
}

func (s *Store) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openDraft(id); err != nil {
		return err
	}
	delete(s.drafts, id)
	return nil
}

// claimedBy must be called with s.mu held.
func (s *Store) claimedBy(id string, claimedAt time.Time) (orders.DraftOrder, bool) {
	d, ok := s.drafts[id]
	if !ok || d.State != orders.DraftCommitting || !d.ClaimedAt.Equal(claimedAt) {
		return orders.DraftOrder{}, false
	}
	return d, true
}

func (s *Store) ClaimDraft(_ context.Context, id string, at, staleBefore time.Time) (orders.DraftOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return orders.DraftOrder{}, orders.ErrDraftNotFound
	}
	if d.State != orders.DraftOpen && !d.ClaimedAt.Before(staleBefore) {
		return orders.DraftOrder{}, orders.ErrDraftNotFound
	}
	d.State = orders.DraftCommitting
	d.ClaimedAt = at
	s.drafts[id] = d
	return cloneDraft(d), nil
}

func (s *Store) ReleaseDraft(_ context.Context, id string, claimedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.claimedBy(id, claimedAt)
	if !ok {
		return orders.ErrDraftNotFound
	}
	d.State = orders.DraftOpen
	d.ClaimedAt = time.Time{}
	s.drafts[id] = d
	return nil
}

func (s *Store) ReopenStaleDraft(_ context.Context, id string, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return false, orders.ErrDraftNotFound
	}
	if d.State != orders.DraftCommitting || !d.ClaimedAt.Before(staleBefore) {
		return false, nil
	}
	d.State = orders.DraftOpen
	d.ClaimedAt = time.Time{}
	s.drafts[id] = d
	return true, nil
}

// ---- orders ----

func cloneOrder(o orders.Order) orders.Order {
	o.Items = o.Items.Clone()
	return o
}

func (s *Store) CreateOrder(_ context.Context, o orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *Store) CreateOrderFromDraft(_ context.Context, o orders.Order, draftID string, claimedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claimedBy(draftID, claimedAt); !ok {
		return orders.ErrDraftNotFound
	}
	delete(s.drafts, draftID)
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// ListOrders is newest first.
func (s *Store) ListOrders(_ context.Context) ([]orders.Order, error) {
	s.mu.RLock()
	out := make([]orders.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, patch orders.OrderPatch) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.Comment != nil {
		o.Comment = *patch.Comment
	}
	o.UpdatedAt = s.now()
	s.orders[id] = o
	return cloneOrder(o), nil
}

// ---- online orders ----

func cloneOnline(o orders.OnlineOrder) orders.OnlineOrder {
	o.Items = o.Items.Clone()
	return o
}

func (s *Store) CreateOnlineOrder(_ context.Context, o orders.OnlineOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[o.ID] = cloneOnline(o)
	return nil
}

func (s *Store) GetOnlineOrder(_ context.Context, id string) (orders.OnlineOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.online[id]
	if !ok {
		return orders.OnlineOrder{}, orders.ErrOnlineOrderNotFound
	}
	return cloneOnline(o), nil
}

func (s *Store) ListOnlineOrders(_ context.Context, status orders.OnlineStatus) ([]orders.OnlineOrder, error) {
	s.mu.RLock()
	out := make([]orders.OnlineOrder, 0, len(s.online))
	for _, o := range s.online {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOnline(o))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SwapOnlineStatus(_ context.Context, id string, from, to orders.OnlineStatus, draftID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.online[id]
	if !ok {
		return false, orders.ErrOnlineOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	switch {
	case to == orders.OnlineTransferred:
		o.DraftID = draftID
	case from == orders.OnlineTransferred:
		o.DraftID = ""
	}
	o.UpdatedAt = s.now()
	s.online[id] = o
	return true, nil
}
