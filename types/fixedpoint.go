// Package types provides common types used across Vault.
package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// Precision is the fixed-point scale shared by values, shares, prices and
// rates: one whole unit equals 10^18 base units. All arithmetic is
// arbitrary-precision integer math, never floating point.
//
// Examples:
//   - Units(1)        = 1.000000000000000000 value units
//   - Rate(2, 1)      = 0.2 (a 20% PRECISION-scaled rate)
//   - math.NewInt(1)  = one base unit of dust
var Precision = math.NewIntWithDecimal(1, 18)

// Units returns n whole units scaled to base units.
func Units(n int64) math.Int {
	return math.NewInt(n).Mul(Precision)
}

// Rate returns a Precision-scaled rate of numerator/10^shift.
// Rate(2, 1) is 0.2, Rate(5, 2) is 0.05, Rate(1, 0) is 1.0.
func Rate(numerator int64, shift uint64) math.Int {
	r := math.NewInt(numerator).Mul(Precision)
	for i := uint64(0); i < shift; i++ {
		r = r.QuoRaw(10)
	}
	return r
}

// MulDiv computes x * y / z with full intermediate precision, truncating
// toward zero. Truncation on non-negative operands is a floor, which always
// rounds in the ledger's favor. Panics on z == 0 (programming error).
func MulDiv(x, y, z math.Int) math.Int {
	if z.IsZero() {
		panic("types: MulDiv division by zero")
	}
	return x.Mul(y).Quo(z)
}

// MinInt returns the smaller of two Ints.
func MinInt(a, b math.Int) math.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// MaxInt returns the larger of two Ints.
func MaxInt(a, b math.Int) math.Int {
	if a.GT(b) {
		return a
	}
	return b
}

// ClampZero returns x, or zero when x is negative.
func ClampZero(x math.Int) math.Int {
	if x.IsNegative() {
		return math.ZeroInt()
	}
	return x
}

// FormatUnits renders a base-unit amount as a decimal string of whole units,
// e.g. FormatUnits(Units(3).QuoRaw(2)) == "1.500000000000000000".
func FormatUnits(x math.Int) string {
	neg := x.IsNegative()
	abs := x.Abs()
	whole := abs.Quo(Precision)
	frac := abs.Mod(Precision)
	s := fmt.Sprintf("%s.%018s", whole.String(), frac.String())
	if neg {
		return "-" + s
	}
	return s
}
