package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

const customerColumns = `id, name, phone, email, address, created_at`

func scanCustomer(row pgx.Row) (orders.Customer, error) {
	var c orders.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
	return c, err
}

func (s *Store) CreateCustomer(ctx context.Context, c orders.Customer) error {
	_, err := s.exec(ctx, `
INSERT INTO customers (id, name, phone, email, address, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`, c.ID, c.Name, c.Phone, c.Email, c.Address, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (orders.Customer, error) {
	c, err := scanCustomer(s.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Customer{}, orders.ErrCustomerNotFound
		}
		return orders.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]orders.Customer, error) {
	rows, err := s.query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []orders.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
