package pricing

import (
	"github.com/shopspring/decimal"

	"pricingScope/internal/config"
	"pricingScope/internal/model"
)

// TrackedAmountUSD values a two-sided amount using only whitelisted legs.
// Both legs whitelisted: sum of both sides. One leg: double that side, on the
// assumption the trade is value-balanced. Neither: zero, so untrusted price
// estimates never compound into aggregate statistics.
func TrackedAmountUSD(network *config.Network, bundle *model.Bundle, amount0 decimal.Decimal, token0 *model.Token, amount1 decimal.Decimal, token1 *model.Token) decimal.Decimal {
	price0USD := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1USD := token1.DerivedNative.Mul(bundle.NativePriceUSD)

	whitelisted0 := network.IsWhitelisted(token0.ID)
	whitelisted1 := network.IsWhitelisted(token1.ID)

	switch {
	case whitelisted0 && whitelisted1:
		return amount0.Mul(price0USD).Add(amount1.Mul(price1USD))
	case whitelisted0:
		return amount0.Mul(price0USD).Mul(two)
	case whitelisted1:
		return amount1.Mul(price1USD).Mul(two)
	default:
		return decimal.Zero
	}
}
