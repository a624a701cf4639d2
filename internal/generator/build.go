package generator

import (
	"fmt"
	"maps"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Additional-Code/shopdata/internal/dataset"
	"github.com/Additional-Code/shopdata/internal/entity"
)

const (
	minPrice          = 5.99
	maxPrice          = 499.99
	maxStock          = 500
	minPlaceholder    = 10.00
	maxPlaceholder    = 2000.00
	maxQuantity       = 5
	maxPaymentDelay   = 3
	maxDescriptionLen = 200
	imageURLPattern   = "https://example.com/images/%s.jpg"
)

// Sizes controls how many rows each root table gets.
type Sizes struct {
	Users            int
	Products         int
	Orders           int
	MaxItemsPerOrder int
}

// Validate rejects sizes that cannot produce a consistent dataset.
func (s Sizes) Validate() error {
	if s.Users <= 0 || s.Products <= 0 || s.Orders < 0 || s.MaxItemsPerOrder <= 0 {
		return fmt.Errorf("invalid sizes: %+v", s)
	}
	return nil
}

// Stage names reported to a StageHook, in execution order.
const (
	StageUsers      = "users"
	StageProducts   = "products"
	StageOrders     = "orders"
	StageOrderItems = "order_items"
	StageTotals     = "totals"
	StagePayments   = "payments"
)

// StageHook is called when a build stage starts. The returned func is called
// with the number of rows the stage produced once it finishes.
type StageHook func(stage string) (done func(rows int))

// Build produces a fully reconciled dataset. Orders are drafted with
// placeholder totals, items are drawn, and the totals are then recomputed
// from the items before payments mirror them. hook may be nil.
func Build(src Source, sizes Sizes, hook StageHook) (*dataset.Dataset, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	start := func(stage string) func(int) {
		if hook == nil {
			return func(int) {}
		}
		return hook(stage)
	}

	done := start(StageUsers)
	users := BuildUsers(src, sizes.Users)
	done(len(users))

	done = start(StageProducts)
	products := BuildProducts(src, sizes.Products)
	done(len(products))

	done = start(StageOrders)
	drafts := DraftOrders(src, sizes.Orders, len(users))
	done(len(drafts))

	done = start(StageOrderItems)
	items := BuildOrderItems(src, drafts, IndexProducts(products), sizes.MaxItemsPerOrder)
	done(len(items))

	done = start(StageTotals)
	orders := WithTotals(drafts, items)
	done(len(orders))

	done = start(StagePayments)
	payments, err := BuildPayments(src, orders)
	if err != nil {
		return nil, err
	}
	done(len(payments))

	return &dataset.Dataset{
		Users:      users,
		Products:   products,
		Orders:     orders,
		OrderItems: items,
		Payments:   payments,
	}, nil
}

// BuildUsers creates users 1..n with creation times in the trailing two years.
func BuildUsers(src Source, n int) []entity.User {
	window := src.Now.Sub(src.Now.AddDate(-2, 0, 0))
	users := make([]entity.User, 0, n)
	for i := 1; i <= n; i++ {
		f := src.Faker
		users = append(users, entity.User{
			ID:          int64(i),
			Name:        f.Name(),
			Email:       f.Email(),
			Phone:       f.Phone(),
			CreatedAt:   entity.NewTimestamp(src.between(window)),
			AddressLine: f.Street(),
			City:        f.City(),
			State:       f.StateAbr(),
			PostalCode:  f.Zip(),
		})
	}
	return users
}

// BuildProducts creates products 1..n with creation times in the trailing year.
func BuildProducts(src Source, n int) []entity.Product {
	window := src.Now.Sub(src.Now.AddDate(-1, 0, 0))
	products := make([]entity.Product, 0, n)
	for i := 1; i <= n; i++ {
		name := src.Faker.ProductName()
		slug := Slugify(name)
		products = append(products, entity.Product{
			ID:          int64(i),
			Name:        name,
			Slug:        slug,
			Description: truncate(src.Faker.ProductDescription(), maxDescriptionLen),
			Category:    pick(src, entity.Categories),
			Price:       entity.MoneyFromFloat(src.uniform(minPrice, maxPrice)),
			StockQty:    src.intBetween(0, maxStock),
			Image:       fmt.Sprintf(imageURLPattern, slug),
			CreatedAt:   entity.NewTimestamp(src.between(window)),
		})
	}
	return products
}

// DraftOrders creates orders 1..n for random users among 1..userCount. The
// TotalAmount of a draft is a placeholder that WithTotals replaces.
func DraftOrders(src Source, n, userCount int) []entity.Order {
	window := src.Now.Sub(src.Now.AddDate(-1, 0, 0))
	orders := make([]entity.Order, 0, n)
	for i := 1; i <= n; i++ {
		orders = append(orders, entity.Order{
			ID:          int64(i),
			UserID:      int64(src.intBetween(1, userCount)),
			OrderDate:   entity.NewTimestamp(src.between(window)),
			Status:      pick(src, entity.OrderStatuses),
			TotalAmount: entity.MoneyFromFloat(src.uniform(minPlaceholder, maxPlaceholder)),
		})
	}
	return orders
}

// ProductIndex maps product id to product.
type ProductIndex map[int64]entity.Product

// IndexProducts builds the lookup used while drawing order items.
func IndexProducts(products []entity.Product) ProductIndex {
	idx := make(ProductIndex, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// ids returns the indexed product ids in ascending order.
func (idx ProductIndex) ids() []int64 {
	return slices.Sorted(maps.Keys(idx))
}

// BuildOrderItems draws 1..maxItems distinct products per order, capped at the
// catalog size. Item ids form one counter across all orders.
func BuildOrderItems(src Source, orders []entity.Order, products ProductIndex, maxItems int) []entity.OrderItem {
	ids := products.ids()
	if len(ids) == 0 {
		return nil
	}

	items := make([]entity.OrderItem, 0, len(orders)*(maxItems+1)/2)
	nextID := int64(1)
	for _, order := range orders {
		count := min(src.intBetween(1, maxItems), len(ids))
		for _, pos := range src.Rand.Perm(len(ids))[:count] {
			product := products[ids[pos]]
			items = append(items, entity.OrderItem{
				ID:        nextID,
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  src.intBetween(1, maxQuantity),
				UnitPrice: product.Price,
			})
			nextID++
		}
	}
	return items
}

// BuildPayments settles every order once, up to three days after it was placed.
func BuildPayments(src Source, orders []entity.Order) ([]entity.Payment, error) {
	seen := make(map[string]struct{}, len(orders))
	payments := make([]entity.Payment, 0, len(orders))
	for _, order := range orders {
		delay := time.Duration(src.intBetween(0, maxPaymentDelay)) * 24 * time.Hour
		method := pick(src, entity.PaymentMethods)
		status := pick(src, entity.PaymentStatuses)

		txn, err := uniqueToken(src, seen)
		if err != nil {
			return nil, err
		}

		payments = append(payments, entity.Payment{
			ID:      order.ID,
			OrderID: order.ID,
			PaidAt:  entity.NewTimestamp(order.OrderDate.Add(delay)),
			Amount:  order.TotalAmount,
			Method:  method,
			Status:  status,
			TxnID:   txn,
		})
	}
	return payments, nil
}

func uniqueToken(src Source, seen map[string]struct{}) (string, error) {
	for {
		id, err := uuid.NewRandomFromReader(src.Entropy)
		if err != nil {
			return "", fmt.Errorf("draw transaction id: %w", err)
		}
		token := id.String()
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		return token, nil
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
