package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-pickup-inventory/internal/orders"
)

// Line items are stored as one JSONB object keyed by product id, so a line
// write is a single jsonb_set on the owning row.

func encodeItems(it orders.Items) ([]byte, error) {
	if it == nil {
		it = orders.Items{}
	}
	return json.Marshal(it)
}

func decodeItems(raw []byte) (orders.Items, error) {
	it := orders.Items{}
	if len(raw) == 0 {
		return it, nil
	}
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return it, nil
}
