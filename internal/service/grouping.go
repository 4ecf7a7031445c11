package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
)

// GroupedItem is one display line: the same product sent across several
// batches collapses into a single line per delivery state.
type GroupedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	IsNew     bool            `json:"is_new"`
}

type groupKey struct {
	productID uuid.UUID
	isNew     bool
}

// GroupItems collapses raw order items by (product, pending-flag),
// summing quantities. Pending and delivered units of the same product
// stay separate so the kitchen ticket shows only what is new. Lines
// keep the order each group first appeared in.
func GroupItems(items []database.ListOrderItemsByOrderRow) []GroupedItem {
	var out []GroupedItem
	index := make(map[groupKey]int)

	for _, it := range items {
		key := groupKey{productID: it.ProductID, isNew: it.IsNew}
		price := numericToDecimal(it.Price)
		if i, ok := index[key]; ok {
			out[i].Quantity += it.Quantity
			out[i].LineTotal = out[i].LineTotal.Add(price.Mul(decimal.NewFromInt32(it.Quantity)))
			continue
		}
		index[key] = len(out)
		out = append(out, GroupedItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: price,
			LineTotal: price.Mul(decimal.NewFromInt32(it.Quantity)),
			IsNew:     it.IsNew,
		})
	}
	return out
}
