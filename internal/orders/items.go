package orders

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LineItem always carries both quantities. Required is what the order calls
// for, Picked is what is taken from stock on commit.
type LineItem struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Picked    int    `json:"picked"`
	Comment   string `json:"comment,omitempty"`
}

// NewLineItem returns a line whose picked quantity defaults to required.
func NewLineItem(productID string, required int) LineItem {
	return LineItem{ProductID: productID, Required: required, Picked: required}
}

func (li LineItem) Validate() error {
	if li.ProductID == "" {
		return ErrProductNotFound
	}
	if li.Required < 0 || li.Picked < 0 || li.Picked > li.Required {
		return ErrInvalidQuantity
	}
	return nil
}

// Items maps productID to its line.
type Items map[string]LineItem

// ItemsFrom builds Items from a slice, rejecting repeated products.
func ItemsFrom(lines []LineItem) (Items, error) {
	out := make(Items, len(lines))
	for _, li := range lines {
		if err := li.Validate(); err != nil {
			return nil, err
		}
		if _, dup := out[li.ProductID]; dup {
			return nil, ErrDuplicateLineItem
		}
		out[li.ProductID] = li
	}
	return out, nil
}

// Sorted returns the lines ordered by productID.
func (it Items) Sorted() []LineItem {
	out := make([]LineItem, 0, len(it))
	for _, li := range it {
		out = append(out, li)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Picked returns the lines with picked > 0, ordered by productID.
func (it Items) Picked() []LineItem {
	all := it.Sorted()
	out := all[:0]
	for _, li := range all {
		if li.Picked > 0 {
			out = append(out, li)
		}
	}
	return out
}

func (it Items) Clone() Items {
	out := make(Items, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Total sums picked x price for every line. Lines without a price are skipped.
func (it Items) Total(prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, li := range it {
		price, ok := prices[li.ProductID]
		if !ok || li.Picked == 0 {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(li.Picked))))
	}
	return total
}
