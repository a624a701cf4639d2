package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the ISO-8601 form used in CSV files and TEXT columns.
// Fractional seconds are written with trailing zeros trimmed.
const TimestampLayout = "2006-01-02T15:04:05.999999"

// Timestamp is a zone-less ISO-8601 instant.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to microseconds and drops its location.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String formats the timestamp with TimestampLayout.
func (t Timestamp) String() string {
	return t.Time.Format(TimestampLayout)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (t Timestamp) MarshalCSV() (string, error) {
	return t.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (t *Timestamp) UnmarshalCSV(value string) error {
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the timestamp as TEXT.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan reads a TEXT column back into a Timestamp.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalCSV(v)
	case []byte:
		return t.UnmarshalCSV(string(v))
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case nil:
		*t = Timestamp{}
		return nil
	default:
		return fmt.Errorf("entity: cannot scan %T into Timestamp", src)
	}
}

// ParseTimestamp accepts TimestampLayout with or without fractional seconds,
// and RFC 3339 values carrying a zone.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return NewTimestamp(parsed), nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("entity: invalid timestamp %q", value)
	}
	return NewTimestamp(parsed), nil
}

// Money is a decimal amount with two fractional digits.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d half away from zero to cents.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MoneyFromFloat rounds f to cents.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Times returns the amount multiplied by a quantity.
func (m Money) Times(quantity int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Plus returns m + other without rounding.
func (m Money) Plus(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// MarshalCSV implements gocsv.TypeMarshaller. Amounts always carry two
// decimal places.
func (m Money) MarshalCSV() (string, error) {
	return m.Decimal.StringFixed(2), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (m *Money) UnmarshalCSV(value string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("entity: invalid amount %q", value)
	}
	m.Decimal = d
	return nil
}

// Value stores the amount as a REAL.
func (m Money) Value() (driver.Value, error) {
	f, _ := m.Decimal.Float64()
	return f, nil
}
