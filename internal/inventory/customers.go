package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-pickup-inventory/internal/clock"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

type Customers struct {
	store CustomerStore
	clock clock.Clock
}

func NewCustomers(store CustomerStore, clk clock.Clock) *Customers {
	return &Customers{store: store, clock: clk}
}

type CreateCustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (s *Customers) Create(ctx context.Context, in CreateCustomerInput) (orders.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return orders.Customer{}, orders.ErrCustomerNameRequired
	}
	c := orders.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return orders.Customer{}, err
	}
	return c, nil
}

func (s *Customers) Get(ctx context.Context, id string) (orders.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *Customers) List(ctx context.Context) ([]orders.Customer, error) {
	return s.store.ListCustomers(ctx)
}
