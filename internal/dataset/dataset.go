// Package dataset holds the five generated tables and their CSV file form.
package dataset

import "github.com/Additional-Code/shopdata/internal/entity"

// Table names, shared by CSV files and database tables.
const (
	TableUsers      = "users"
	TableProducts   = "products"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TablePayments   = "payments"
)

// Tables lists every table in dependency order: parents before children.
var Tables = []string{TableUsers, TableProducts, TableOrders, TableOrderItems, TablePayments}

// Headers lists the exact CSV columns of each table, in file order.
var Headers = map[string][]string{
	TableUsers:      {"user_id", "name", "email", "phone", "created_at", "address_line", "city", "state", "postal_code"},
	TableProducts:   {"product_id", "name", "slug", "description", "category", "price", "stock_qty", "image", "created_at"},
	TableOrders:     {"order_id", "user_id", "order_date", "status", "total_amount"},
	TableOrderItems: {"item_id", "order_id", "product_id", "quantity", "unit_price"},
	TablePayments:   {"payment_id", "order_id", "paid_at", "amount", "method", "status", "txn_id"},
}

// Dataset is one fully reconciled generation run.
type Dataset struct {
	Users      []entity.User
	Products   []entity.Product
	Orders     []entity.Order
	OrderItems []entity.OrderItem
	Payments   []entity.Payment
}

// Counts maps table name to row count.
type Counts map[string]int

// Counts reports the number of rows per table.
func (d *Dataset) Counts() Counts {
	return Counts{
		TableUsers:      len(d.Users),
		TableProducts:   len(d.Products),
		TableOrders:     len(d.Orders),
		TableOrderItems: len(d.OrderItems),
		TablePayments:   len(d.Payments),
	}
}

// FileName returns the CSV file name for a table.
func FileName(table string) string {
	return table + ".csv"
}
