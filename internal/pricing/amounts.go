package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Sqrt-price domain constants. The intermediate products below reach roughly
// liquidity * 2^96 * price, far past uint256 halves, hence big.Int throughout.
var (
	q96          = new(big.Int).Lsh(big.NewInt(1), 96)
	minSqrtPrice = big.NewInt(4295128739)
	maxSqrtPrice = mustBigInt("1461446703485210103287273052203988822378723970342")
)

func mustBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big int literal: " + s)
	}
	return v
}

// PositionAmounts converts position liquidity and a sqrt-price range into
// the raw amount of token0 (side0 true) or token1 the position holds at the
// current price. Ranges outside the supported sqrt-price domain return zero
// with no partial computation. A zero-width range straddling the current
// price also yields zero on both sides.
func PositionAmounts(liquidity, lowerPrice, upperPrice, currentPrice *big.Int, side0 bool) decimal.Decimal {
	if liquidity == nil || lowerPrice == nil || upperPrice == nil || currentPrice == nil {
		return decimal.Zero
	}
	if lowerPrice.Cmp(minSqrtPrice) < 0 || upperPrice.Cmp(maxSqrtPrice) > 0 {
		return decimal.Zero
	}

	amount0 := new(big.Int)
	amount1 := new(big.Int)

	switch {
	case currentPrice.Cmp(lowerPrice) < 0:
		// Entirely in token0.
		amount0 = rangeAmount0(liquidity, lowerPrice, upperPrice)
	case currentPrice.Cmp(upperPrice) <= 0:
		// Straddling the current price.
		amount1.Mul(liquidity, new(big.Int).Sub(currentPrice, lowerPrice))
		amount1.Div(amount1, q96)
		amount0 = rangeAmount0(liquidity, currentPrice, upperPrice)
	default:
		// Entirely in token1.
		amount1.Mul(liquidity, new(big.Int).Sub(upperPrice, lowerPrice))
		amount1.Div(amount1, q96)
	}

	if side0 {
		return decimal.NewFromBigInt(amount0, 0)
	}
	return decimal.NewFromBigInt(amount1, 0)
}

// rangeAmount0 computes liquidity * Q96 * (to - from) / (from * to). Callers
// guarantee from >= minSqrtPrice > 0, so the denominator is never zero.
func rangeAmount0(liquidity, from, to *big.Int) *big.Int {
	num := new(big.Int).Mul(liquidity, q96)
	num.Mul(num, new(big.Int).Sub(to, from))
	den := new(big.Int).Mul(from, to)
	return num.Div(num, den)
}

// TickToSqrtPrice returns the sqrt-price encoding of a tick boundary,
// sqrt(1.0001^tick) * 2^96, rounded to an integer. Tick zero maps exactly to
// the Q96 unit price.
func TickToSqrtPrice(tick int32) *big.Int {
	if tick == 0 {
		return new(big.Int).Set(q96)
	}

	base := big.NewFloat(1.0001).SetPrec(192)
	ratio := floatPow(base, tick)
	ratio.Sqrt(ratio)
	ratio.Mul(ratio, new(big.Float).SetPrec(192).SetInt(q96))

	result, _ := ratio.Int(nil)
	return result
}

func floatPow(base *big.Float, power int32) *big.Float {
	if power < 0 {
		inv := new(big.Float).SetPrec(192).Quo(big.NewFloat(1).SetPrec(192), base)
		return floatPow(inv, -power)
	}

	result := big.NewFloat(1).SetPrec(192)
	factor := new(big.Float).SetPrec(192).Copy(base)
	for power > 0 {
		if power%2 == 1 {
			result.Mul(result, factor)
		}
		factor.Mul(factor, factor)
		power /= 2
	}
	return result
}
