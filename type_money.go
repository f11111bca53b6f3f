package quotes

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value in an explicit currency. Amounts in
// different currencies never mix silently: binary operations panic on a
// currency mismatch, and crossing currencies requires Convert with a rate.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// currency returns the money's full currency definition.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// Simple wrappers around the underlying decimal.

func (m Money) Currency() string        { return m.cur }
func (m Money) Equal(n Money) bool      { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool            { return m.value.IsZero() }
func (m Money) IsPositive() bool        { return m.value.IsPositive() }
func (m Money) Amount() decimal.Decimal { return m.value }

func (m Money) Add(n Money) Money    { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Mul(n Quantity) Money { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) Div(n Quantity) Money { return Money{value: m.value.Div(n.value), cur: m.cur} }

// Scale multiplies the amount by a bare factor, keeping the currency.
func (m Money) Scale(f decimal.Decimal) Money { return Money{value: m.value.Mul(f), cur: m.cur} }

// Convert returns the amount expressed in another currency at the given rate.
func (m Money) Convert(rate decimal.Decimal, currency string) Money {
	return Money{value: m.value.Mul(rate), cur: currency}
}

// Ratio returns m/n as a bare decimal, for weight calculations.
func (m Money) Ratio(n Money) decimal.Decimal {
	cur(m, n)
	return m.value.Div(n.value)
}

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	// dividend amounts per share can be fractional beyond the currency's
	// display fraction, so the full digits are kept.
	w.Append("amount", m.value)
	return w.MarshalJSON()
}
