package entity

import "github.com/uptrace/bun"

// User is a synthetic shopper. Column order matches users.csv.
type User struct {
	bun.BaseModel `bun:"table:users" csv:"-"`

	ID          int64     `bun:"user_id,pk" csv:"user_id"`
	Name        string    `bun:"name" csv:"name"`
	Email       string    `bun:"email" csv:"email"`
	Phone       string    `bun:"phone" csv:"phone"`
	CreatedAt   Timestamp `bun:"created_at" csv:"created_at"`
	AddressLine string    `bun:"address_line" csv:"address_line"`
	City        string    `bun:"city" csv:"city"`
	State       string    `bun:"state" csv:"state"`
	PostalCode  string    `bun:"postal_code" csv:"postal_code"`
}
