package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// divPrecision bounds the decimal places kept by safe division. Price ratios
// on 18-decimal tokens need far more than the library default of 16.
const divPrecision = 34

var (
	one = decimal.New(1, 0)
	two = decimal.New(2, 0)
	ten = decimal.New(10, 0)
)

// SafeDiv returns a/b, or zero when b is zero. Denominators come from
// chain-controlled pool state and may legitimately be zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, divPrecision)
}

// FastExp raises value to an integer power using exponentiation by squaring.
// Multiplication is exact in the decimal domain, so the squaring
// re-association produces the same digits as repeated multiplication.
// Negative powers resolve through SafeDiv, so FastExp(0, -n) is zero.
func FastExp(value decimal.Decimal, power int) decimal.Decimal {
	if power < 0 {
		return SafeDiv(one, FastExp(value, -power))
	}
	if power == 0 {
		return one
	}
	if power == 1 {
		return value
	}

	half := FastExp(value, power/2)
	result := half.Mul(half)
	if power%2 == 1 {
		result = result.Mul(value)
	}
	return result
}

// ExponentToDecimal returns 10^decimals. Zero decimals is a valid
// no-rescale case, not a missing value.
func ExponentToDecimal(decimals int32) decimal.Decimal {
	result := one
	for i := int32(0); i < decimals; i++ {
		result = result.Mul(ten)
	}
	return result
}

// ConvertTokenToDecimal rescales a raw integer token amount by the token's
// decimals. The shift is an exact exponent move, never a rounding division.
func ConvertTokenToDecimal(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}
