package entity

import "github.com/uptrace/bun"

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses lists every order status in draw order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Order is a purchase placed by a user. TotalAmount is derived from its items.
type Order struct {
	bun.BaseModel `bun:"table:orders" csv:"-"`

	ID          int64     `bun:"order_id,pk" csv:"order_id"`
	UserID      int64     `bun:"user_id" csv:"user_id"`
	OrderDate   Timestamp `bun:"order_date" csv:"order_date"`
	Status      string    `bun:"status" csv:"status"`
	TotalAmount Money     `bun:"total_amount" csv:"total_amount"`
}

// OrderItem is one product line of an order. UnitPrice is copied from the
// product when the line is generated.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items" csv:"-"`

	ID        int64 `bun:"item_id,pk" csv:"item_id"`
	OrderID   int64 `bun:"order_id" csv:"order_id"`
	ProductID int64 `bun:"product_id" csv:"product_id"`
	Quantity  int   `bun:"quantity" csv:"quantity"`
	UnitPrice Money `bun:"unit_price" csv:"unit_price"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}
