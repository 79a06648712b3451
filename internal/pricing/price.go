package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"pricingScope/internal/model"
)

// q192 is the squared fixed-point shift of the sqrt-price encoding (2^192).
var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// SqrtPriceToTokenPrices decodes a pool's sqrt-price encoding into the pair
// (token0 price, token1 price), each expressed in units of the other token
// and adjusted for the tokens' decimal scales. A zero sqrt price decodes to
// (0, 0) through the safe-divide fallback.
func SqrtPriceToTokenPrices(sqrtPrice *big.Int, token0, token1 *model.Token) (decimal.Decimal, decimal.Decimal) {
	if sqrtPrice == nil {
		return decimal.Zero, decimal.Zero
	}

	num := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPrice, sqrtPrice), 0)
	price1 := SafeDiv(
		SafeDiv(num, q192).Mul(ExponentToDecimal(token0.Decimals)),
		ExponentToDecimal(token1.Decimals),
	)
	price0 := SafeDiv(one, price1)
	return price0, price1
}
