package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of decimal places of the smallest currency unit.
const MinorUnitPlaces int32 = 2

// Money is an immutable monetary amount in the complex's single billing currency.
// Every operation that can produce sub-cent digits rounds half away from zero to
// MinorUnitPlaces.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal, rounded to the smallest currency unit
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(MinorUnitPlaces)}
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64) Money {
	return NewMoney(decimal.NewFromFloat(amount))
}

// NewMoneyFromCents creates Money from an integer count of minor units
func NewMoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -MinorUnitPlaces)}
}

// NewMoneyFromString parses an amount such as "1500.00"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d), nil
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract returns the difference of both amounts
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Percent returns round(m * pct / 100, 2).
func (m Money) Percent(pct decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(pct).Div(decimal.NewFromInt(100)))
}

// Split divides m into n lines of round(m/n, 2). The last line absorbs the
// rounding remainder so the lines always sum to m exactly.
func (m Money) Split(n int) ([]Money, error) {
	if n <= 0 {
		return nil, errors.New("split count must be positive")
	}
	share := NewMoney(m.amount.Div(decimal.NewFromInt(int64(n))))
	parts := make([]Money, n)
	allocated := Zero()
	for i := 0; i < n-1; i++ {
		parts[i] = share
		allocated = allocated.Add(share)
	}
	parts[n-1] = m.Subtract(allocated)
	return parts, nil
}

// Sum adds a list of amounts
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Equals returns true if both amounts are equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// GreaterThan returns true if m is greater than other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// LessThan returns true if m is less than other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// String returns the amount with two decimal places
func (m Money) String() string {
	return m.amount.StringFixed(MinorUnitPlaces)
}

// MarshalJSON encodes the amount as a fixed two-place string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = NewMoney(d)
	return nil
}
