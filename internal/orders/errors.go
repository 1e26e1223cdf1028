package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrProductNotFound     = fmt.Errorf("product %w", ErrNotFound)
	ErrCustomerNotFound    = fmt.Errorf("customer %w", ErrNotFound)
	ErrDraftNotFound       = fmt.Errorf("draft %w", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("order %w", ErrNotFound)
	ErrOnlineOrderNotFound = fmt.Errorf("online order %w", ErrNotFound)
	ErrLineItemNotFound    = fmt.Errorf("line item %w", ErrNotFound)

	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrEmptyOrder           = errors.New("order has no picked items")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrDuplicateLineItem    = errors.New("product listed more than once")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInvalidProduct       = errors.New("product code and name are required")
	ErrDuplicateCode        = errors.New("product code already exists")
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrAlreadyTransferred   = errors.New("online order already transferred")
	ErrDraftLocked          = errors.New("draft is being committed")
	ErrStatusContention     = errors.New("status changed concurrently, retry")

	// ErrCompensationFailed marks a failed commit whose rollback did not
	// complete: stock or the draft claim may still be held.
	ErrCompensationFailed = errors.New("compensation failed")
)

// Shortage describes one line that cannot be served from current stock.
type Shortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError names the first failing product. Shortages lists
// every failing line found by the same read, first one included.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
	Shortages []Shortage
}

func NewInsufficientStock(productID string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
		Shortages: []Shortage{{ProductID: productID, Requested: requested, Available: available}},
	}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
