// Package money implements fixed-point decimal arithmetic for prices and
// P&L. Internally every value is a scaled int64 (hundredths of a unit),
// which keeps matching and position math exact across long fill chains;
// conversion to shopspring/decimal happens only at the persistence/API
// boundary, rounded half-to-even to match the DECIMAL(10,2)/DECIMAL(15,2)
// column precision.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of implied decimal places (hundredths).
const Scale = 100

// Amount is a fixed-point money value: Amount(150_00) == 150.00.
type Amount int64

// Zero is the additive identity.
const Zero Amount = 0

// NewFromFloat builds an Amount from a float64, rounding half away from
// zero at the hundredths place. Intended for call sites that still carry
// float64 (e.g. the random-order generator); the matching and P&L engines
// themselves never introduce floats.
func NewFromFloat(f float64) Amount {
	return Amount(math.Round(f * Scale))
}

// NewFromDecimal converts a decimal.Decimal (as read from a DECIMAL column
// or a JSON request body) into an Amount.
func NewFromDecimal(d decimal.Decimal) Amount {
	scaled := d.Mul(decimal.NewFromInt(Scale)).Round(0)
	return Amount(scaled.IntPart())
}

// Decimal renders the Amount as a decimal.Decimal suitable for a gorm
// DECIMAL column or a JSON response, rounded half-to-even at the column's
// own precision by the caller (gorm/postgres does this on write; callers
// that format for display should call RoundBank themselves).
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), 0).Div(decimal.NewFromInt(Scale))
}

// Float64 is a lossy convenience accessor for logging/metrics.
func (a Amount) Float64() float64 {
	return float64(a) / Scale
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return fmt.Sprintf("%.2f", a.Float64())
}

// Mul multiplies an Amount by an integer quantity (e.g. price * qty).
func (a Amount) Mul(qty int64) Amount {
	return Amount(int64(a) * qty)
}

// Div divides an Amount by an integer quantity, rounding half away from
// zero; used for volume-weighted average cost recomputation.
func (a Amount) Div(qty int64) Amount {
	if qty == 0 {
		return 0
	}
	num := int64(a)
	half := qty / 2
	if (num < 0) != (qty < 0) {
		half = -half
	}
	return Amount((num + half) / qty)
}

// Add, Sub are thin wrappers so call sites read like ordinary arithmetic
// without accidentally mixing Amount with a bare int64.
func (a Amount) Add(b Amount) Amount { return a + b }
func (a Amount) Sub(b Amount) Amount { return a - b }
func (a Amount) Neg() Amount         { return -a }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// RoundBank rounds the decimal representation to n places half-to-even,
// the convention used at the persistence boundary.
func (a Amount) RoundBank(places int32) decimal.Decimal {
	return a.Decimal().RoundBank(places)
}
