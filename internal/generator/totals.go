package generator

import (
	"github.com/Additional-Code/shopdata/internal/entity"
)

// WithTotals returns a copy of orders whose TotalAmount is the cent-rounded sum
// of quantity × unit price over the matching items. Orders without items get
// a zero total. The inputs are not modified.
func WithTotals(orders []entity.Order, items []entity.OrderItem) []entity.Order {
	sums := make(map[int64]entity.Money, len(orders))
	for _, item := range items {
		sums[item.OrderID] = sums[item.OrderID].Plus(item.LineTotal())
	}

	out := make([]entity.Order, len(orders))
	for i, order := range orders {
		order.TotalAmount = entity.NewMoney(sums[order.ID].Decimal)
		out[i] = order
	}
	return out
}
