package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCommitted          = "OrderCommitted"
	EventStockRejected           = "StockRejected"
	EventDraftCancelled          = "DraftCancelled"
	EventOnlineOrderRequested    = "OnlineOrderRequested"
	EventOnlineOrderSubmitted    = "OnlineOrderSubmitted"
	EventOnlineOrderTransferred  = "OnlineOrderTransferred"
	EventOnlineOrderStatusChange = "OnlineOrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type OrderCommittedPayload struct {
	OrderID    string          `json:"order_id"`
	DraftID    string          `json:"draft_id,omitempty"`
	CustomerID string          `json:"customer_id"`
	Source     Source          `json:"source"`
	Items      []LineItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     Status          `json:"status"`
}

type StockRejectedPayload struct {
	DraftID    string     `json:"draft_id,omitempty"`
	CustomerID string     `json:"customer_id"`
	Source     Source     `json:"source"`
	Reason     string     `json:"reason"`
	Details    []Shortage `json:"details,omitempty"`
}

type DraftCancelledPayload struct {
	DraftID    string `json:"draft_id"`
	CustomerID string `json:"customer_id"`
}

// OnlineOrderRequestedPayload is produced by the storefront and consumed by
// the intake worker.
type OnlineOrderRequestedPayload struct {
	RequestID  string        `json:"request_id"`
	CustomerID string        `json:"customer_id"`
	Items      []RequestLine `json:"items"`
}

type RequestLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Comment   string `json:"comment,omitempty"`
}

type OnlineOrderSubmittedPayload struct {
	OnlineOrderID string     `json:"online_order_id"`
	CustomerID    string     `json:"customer_id"`
	Items         []LineItem `json:"items"`
}

type OnlineOrderTransferredPayload struct {
	OnlineOrderID string `json:"online_order_id"`
	DraftID       string `json:"draft_id"`
}

type OnlineOrderStatusChangedPayload struct {
	OnlineOrderID string       `json:"online_order_id"`
	From          OnlineStatus `json:"from"`
	To            OnlineStatus `json:"to"`
}
