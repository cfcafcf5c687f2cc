package settlement

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Tolerance compares token amounts after descaling them by 10^ScaleDecimals
// and rounding to Precision fractional digits.
type Tolerance struct {
	Precision     int32
	ScaleDecimals int32
}

// DefaultTolerance compares 18-decimal amounts to 8 fractional digits.
var DefaultTolerance = Tolerance{Precision: 8, ScaleDecimals: 18}

// Normalize returns the rounded, descaled value of v.
func (t Tolerance) Normalize(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -t.ScaleDecimals).Round(t.Precision)
}

// Equal reports whether a and b are equal at the configured precision.
func (t Tolerance) Equal(a, b *big.Int) bool {
	return t.Normalize(a).Equal(t.Normalize(b))
}

// floorMul returns floor(amount * fraction).
func floorMul(amount *big.Int, fraction decimal.Decimal) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return decimal.NewFromBigInt(amount, 0).Mul(fraction).Floor().BigInt()
}
