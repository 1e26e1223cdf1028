package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	OrderedQuantity int             `json:"ordered_quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DraftState is internal to the commit protocol: a draft is claimed
// (open -> committing) before any stock is touched. A claim older than the
// claim TTL is stale and may be taken over or reopened.
type DraftState string

const (
	DraftOpen       DraftState = "open"
	DraftCommitting DraftState = "committing"
)

// DraftOrder is a pickup order: required quantities per product that have
// not been deducted from stock yet.
type DraftOrder struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	OnlineOrderID string     `json:"online_order_id,omitempty"`
	State         DraftState `json:"state"`
	Items         Items      `json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	// ClaimedAt is set while State is committing.
	ClaimedAt time.Time `json:"-"`
}

type Source string

const (
	SourceDraft  Source = "draft"
	SourceDirect Source = "direct"
)

// Order is the immutable fulfillment record. Only Status and Comment may be
// edited after creation.
type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Source     Source          `json:"source"`
	DraftID    string          `json:"draft_id,omitempty"`
	Items      Items           `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     Status          `json:"status"`
	Comment    string          `json:"comment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderPatch edits an Order record; nil fields are left as they are.
type OrderPatch struct {
	Status  *Status
	Comment *string
}

type OnlineOrder struct {
	ID         string       `json:"id"`
	CustomerID string       `json:"customer_id"`
	DraftID    string       `json:"draft_id,omitempty"`
	Items      Items        `json:"items"`
	Status     OnlineStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
