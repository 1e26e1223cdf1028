package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pickup-inventory/internal/metrics"
	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// stockSaga is the single enforcement point for taking stock, shared by the
// finalizer and the direct sale path. Products are not locked together, so
// a failure part-way is undone with compensating releases.
type stockSaga struct {
	store ProductStore
	log   *slog.Logger
}

// reservation is the outcome of a successful take.
type reservation struct {
	lines  []orders.LineItem
	prices map[string]decimal.Decimal
}

func (r reservation) units() int {
	n := 0
	for _, li := range r.lines {
		n += li.Picked
	}
	return n
}

// take validates every line against one read of current stock, then
// decrements in productID order. lines must already be sorted and carry
// picked > 0.
func (s *stockSaga) take(ctx context.Context, lines []orders.LineItem) (reservation, error) {
	prices := make(map[string]decimal.Decimal, len(lines))
	var shortages []orders.Shortage
	for _, li := range lines {
		p, err := s.store.GetProduct(ctx, li.ProductID)
		if err != nil {
			return reservation{}, err
		}
		prices[p.ID] = p.Price
		if li.Picked > p.Stock {
			shortages = append(shortages, orders.Shortage{ProductID: p.ID, Requested: li.Picked, Available: max(p.Stock, 0)})
		}
	}
	if len(shortages) > 0 {
		first := shortages[0]
		return reservation{}, &orders.InsufficientStockError{
			ProductID: first.ProductID,
			Requested: first.Requested,
			Available: first.Available,
			Shortages: shortages,
		}
	}

	// Once decrements start the saga finishes or fully compensates, even if
	// the caller goes away.
	ctx = context.WithoutCancel(ctx)

	applied := make([]orders.LineItem, 0, len(lines))
	for _, li := range lines {
		if _, err := s.store.AdjustStock(ctx, li.ProductID, -li.Picked); err != nil {
			s.log.WarnContext(ctx, "stock changed during commit, compensating",
				"product_id", li.ProductID, "requested", li.Picked, "applied_lines", len(applied), "err", err)
			return reservation{}, s.compensate(ctx, applied, err)
		}
		applied = append(applied, li)
	}
	return reservation{lines: applied, prices: prices}, nil
}

// undo releases a successful take whose order could not be written.
func (s *stockSaga) undo(ctx context.Context, r reservation, cause error) error {
	return s.compensate(context.WithoutCancel(ctx), r.lines, cause)
}

// compensate releases applied lines in reverse order. It returns cause, or
// cause joined with every release that failed.
func (s *stockSaga) compensate(ctx context.Context, applied []orders.LineItem, cause error) error {
	var failed []error
	for i := len(applied) - 1; i >= 0; i-- {
		li := applied[i]
		if _, err := s.store.ReleaseStock(ctx, li.ProductID, li.Picked); err != nil {
			metrics.ObserveRollback(false)
			s.log.ErrorContext(ctx, "stock release failed",
				"product_id", li.ProductID, "qty", li.Picked, "err", err)
			failed = append(failed, fmt.Errorf("release %s x%d: %w: %w", li.ProductID, li.Picked, orders.ErrCompensationFailed, err))
			continue
		}
		metrics.ObserveRollback(true)
	}
	if len(failed) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, failed...)...)
}

func commitOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, orders.ErrInsufficientStock):
		return metrics.OutcomeInsufficient
	case errors.Is(err, orders.ErrEmptyOrder):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeError
	}
}
