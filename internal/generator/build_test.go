package generator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/entity"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func defaultSizes() Sizes {
	return Sizes{Users: 100, Products: 80, Orders: 250, MaxItemsPerOrder: 5}
}

func TestBuild_Relationships(t *testing.T) {
	data, err := Build(NewSource(42, fixedNow), defaultSizes(), nil)
	require.NoError(t, err)

	require.Len(t, data.Users, 100)
	require.Len(t, data.Products, 80)
	require.Len(t, data.Orders, 250)
	require.Len(t, data.Payments, 250)
	assert.GreaterOrEqual(t, len(data.OrderItems), 250)
	assert.LessOrEqual(t, len(data.OrderItems), 1250)

	products := IndexProducts(data.Products)
	orders := make(map[int64]entity.Order, len(data.Orders))
	for i, o := range data.Orders {
		assert.Equal(t, int64(i+1), o.ID)
		assert.GreaterOrEqual(t, o.UserID, int64(1))
		assert.LessOrEqual(t, o.UserID, int64(100))
		assert.Contains(t, entity.OrderStatuses, o.Status)
		orders[o.ID] = o
	}

	sums := make(map[int64]entity.Money)
	perOrder := make(map[int64]map[int64]bool)
	for i, item := range data.OrderItems {
		assert.Equal(t, int64(i+1), item.ID, "item ids are one counter")
		_, ok := orders[item.OrderID]
		require.True(t, ok, "item %d references missing order %d", item.ID, item.OrderID)
		product, ok := products[item.ProductID]
		require.True(t, ok, "item %d references missing product %d", item.ID, item.ProductID)
		assert.True(t, item.UnitPrice.Equal(product.Price), "unit price is the product price")
		assert.GreaterOrEqual(t, item.Quantity, 1)
		assert.LessOrEqual(t, item.Quantity, 5)

		if perOrder[item.OrderID] == nil {
			perOrder[item.OrderID] = map[int64]bool{}
		}
		assert.False(t, perOrder[item.OrderID][item.ProductID], "product repeated within order %d", item.OrderID)
		perOrder[item.OrderID][item.ProductID] = true
		sums[item.OrderID] = sums[item.OrderID].Plus(item.LineTotal())
	}
	for id, lines := range perOrder {
		assert.LessOrEqual(t, len(lines), 5, "order %d", id)
	}
	assert.Len(t, perOrder, 250, "every order has at least one item")

	for _, o := range data.Orders {
		assert.True(t, o.TotalAmount.Equal(sums[o.ID]), "order %d total %s != %s", o.ID, o.TotalAmount, sums[o.ID])
	}

	seenOrder := map[int64]bool{}
	seenTxn := map[string]bool{}
	for _, p := range data.Payments {
		order, ok := orders[p.OrderID]
		require.True(t, ok)
		assert.Equal(t, p.OrderID, p.ID)
		assert.False(t, seenOrder[p.OrderID], "order %d paid twice", p.OrderID)
		seenOrder[p.OrderID] = true

		assert.True(t, p.Amount.Equal(order.TotalAmount))
		delay := p.PaidAt.Sub(order.OrderDate.Time)
		assert.GreaterOrEqual(t, delay, time.Duration(0))
		assert.LessOrEqual(t, delay, 72*time.Hour)
		assert.Zero(t, delay%(24*time.Hour), "delay is whole days")

		assert.Contains(t, entity.PaymentMethods, p.Method)
		assert.Contains(t, entity.PaymentStatuses, p.Status)
		assert.False(t, seenTxn[p.TxnID], "duplicate txn id %s", p.TxnID)
		seenTxn[p.TxnID] = true
	}
}

func TestBuild_Windows(t *testing.T) {
	data, err := Build(NewSource(7, fixedNow), Sizes{Users: 30, Products: 30, Orders: 30, MaxItemsPerOrder: 3}, nil)
	require.NoError(t, err)

	for _, u := range data.Users {
		assert.False(t, u.CreatedAt.After(fixedNow))
		assert.False(t, u.CreatedAt.Before(fixedNow.AddDate(-2, 0, 0)))
	}
	for _, p := range data.Products {
		assert.False(t, p.CreatedAt.Before(fixedNow.AddDate(-1, 0, 0)))
		assert.Contains(t, entity.Categories, p.Category)
		assert.Equal(t, Slugify(p.Name), p.Slug)
		assert.Equal(t, "https://example.com/images/"+p.Slug+".jpg", p.Image)
		assert.LessOrEqual(t, len([]rune(p.Description)), 200)
		assert.GreaterOrEqual(t, p.StockQty, 0)
		assert.LessOrEqual(t, p.StockQty, 500)
		assert.True(t, p.Price.GreaterThanOrEqual(entity.MoneyFromFloat(5.99).Decimal))
		assert.True(t, p.Price.LessThanOrEqual(entity.MoneyFromFloat(499.99).Decimal))
	}
	for _, o := range data.Orders {
		assert.False(t, o.OrderDate.Before(fixedNow.AddDate(-1, 0, 0)))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	render := func(seed uint64) map[string][]byte {
		data, err := Build(NewSource(seed, fixedNow), Sizes{Users: 20, Products: 15, Orders: 40, MaxItemsPerOrder: 5}, nil)
		require.NoError(t, err)
		dir := t.TempDir()
		require.NoError(t, dataset.Write(dir, data))

		files := make(map[string][]byte, len(dataset.Tables))
		for _, table := range dataset.Tables {
			raw, err := os.ReadFile(filepath.Join(dir, dataset.FileName(table)))
			require.NoError(t, err)
			files[table] = raw
		}
		return files
	}

	first := render(42)
	assert.Equal(t, first, render(42))
	assert.NotEqual(t, first[dataset.TablePayments], render(43)[dataset.TablePayments])
	assert.Equal(t, render(0), render(0), "seed 0 is a seed like any other")
}

func TestBuild_ItemsCappedByCatalog(t *testing.T) {
	data, err := Build(NewSource(1, fixedNow), Sizes{Users: 3, Products: 2, Orders: 50, MaxItemsPerOrder: 5}, nil)
	require.NoError(t, err)

	lines := map[int64]int{}
	for _, item := range data.OrderItems {
		lines[item.OrderID]++
	}
	for id, n := range lines {
		assert.LessOrEqual(t, n, 2, "order %d", id)
	}
}

func TestBuild_ZeroOrders(t *testing.T) {
	data, err := Build(NewSource(1, fixedNow), Sizes{Users: 1, Products: 1, Orders: 0, MaxItemsPerOrder: 1}, nil)
	require.NoError(t, err)
	assert.Empty(t, data.Orders)
	assert.Empty(t, data.OrderItems)
	assert.Empty(t, data.Payments)
}

func TestBuild_InvalidSizes(t *testing.T) {
	tests := []struct {
		name  string
		sizes Sizes
	}{
		{"no users", Sizes{Users: 0, Products: 1, Orders: 1, MaxItemsPerOrder: 1}},
		{"no products", Sizes{Users: 1, Products: 0, Orders: 1, MaxItemsPerOrder: 1}},
		{"negative orders", Sizes{Users: 1, Products: 1, Orders: -1, MaxItemsPerOrder: 1}},
		{"no items", Sizes{Users: 1, Products: 1, Orders: 1, MaxItemsPerOrder: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(NewSource(1, fixedNow), tt.sizes, nil)
			assert.Error(t, err)
		})
	}
}

func TestBuild_StageHookOrder(t *testing.T) {
	var stages []string
	rows := map[string]int{}
	hook := func(stage string) func(int) {
		stages = append(stages, stage)
		return func(n int) { rows[stage] = n }
	}

	_, err := Build(NewSource(3, fixedNow), Sizes{Users: 4, Products: 5, Orders: 6, MaxItemsPerOrder: 2}, hook)
	require.NoError(t, err)

	assert.Equal(t, []string{StageUsers, StageProducts, StageOrders, StageOrderItems, StageTotals, StagePayments}, stages)
	assert.Equal(t, 4, rows[StageUsers])
	assert.Equal(t, 6, rows[StagePayments])
}

func TestWithTotals(t *testing.T) {
	drafts := []entity.Order{
		{ID: 1, TotalAmount: entity.MoneyFromFloat(1999.99)},
		{ID: 2, TotalAmount: entity.MoneyFromFloat(10)},
	}
	items := []entity.OrderItem{
		{ID: 1, OrderID: 1, Quantity: 3, UnitPrice: entity.MoneyFromFloat(19.99)},
		{ID: 2, OrderID: 1, Quantity: 1, UnitPrice: entity.MoneyFromFloat(0.03)},
	}

	got := WithTotals(drafts, items)

	require.Len(t, got, 2)
	assert.Equal(t, "60", got[0].TotalAmount.String())
	assert.True(t, got[1].TotalAmount.IsZero(), "order without items totals zero")
	assert.Equal(t, "1999.99", drafts[0].TotalAmount.String(), "drafts are untouched")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ergonomic Steel Chair", "ergonomic-steel-chair"},
		{"Mr. Coffee, Deluxe", "mr-coffee-deluxe"},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}
