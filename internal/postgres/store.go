package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-pickup-inventory/internal/inventory"
)

var (
	_ inventory.ProductStore     = (*Store)(nil)
	_ inventory.CustomerStore    = (*Store)(nil)
	_ inventory.DraftStore       = (*Store)(nil)
	_ inventory.OrderStore       = (*Store)(nil)
	_ inventory.OnlineOrderStore = (*Store)(nil)
)

// Store implements every record store on one pool.
type Store struct {
	pool          *pgxpool.Pool
	adjustRetries int
}

func NewStore(pool *pgxpool.Pool, adjustRetries int) *Store {
	if adjustRetries < 1 {
		adjustRetries = 1
	}
	return &Store{pool: pool, adjustRetries: adjustRetries}
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}
