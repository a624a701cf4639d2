package entity

import "github.com/uptrace/bun"

// Product categories.
const (
	CategoryElectronics = "electronics"
	CategoryFashion     = "fashion"
	CategoryHome        = "home"
	CategorySports      = "sports"
	CategoryBeauty      = "beauty"
	CategoryToys        = "toys"
)

// Categories lists every product category in draw order.
var Categories = []string{
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategorySports,
	CategoryBeauty,
	CategoryToys,
}

// Product is a catalog entry. Column order matches products.csv.
type Product struct {
	bun.BaseModel `bun:"table:products" csv:"-"`

	ID          int64     `bun:"product_id,pk" csv:"product_id"`
	Name        string    `bun:"name" csv:"name"`
	Slug        string    `bun:"slug" csv:"slug"`
	Description string    `bun:"description" csv:"description"`
	Category    string    `bun:"category" csv:"category"`
	Price       Money     `bun:"price" csv:"price"`
	StockQty    int       `bun:"stock_qty" csv:"stock_qty"`
	Image       string    `bun:"image" csv:"image"`
	CreatedAt   Timestamp `bun:"created_at" csv:"created_at"`
}
