package pricing

import (
	"github.com/shopspring/decimal"

	"pricingScope/internal/config"
	"pricingScope/internal/model"
)

// EntitySource provides read-only entity snapshots to the pricing core. The
// core never writes through it; persistence is the caller's job.
type EntitySource interface {
	Token(id string) (*model.Token, bool)
	Pool(id string) (*model.Pool, bool)
}

// ReferencePriceUSD reads the reference-unit/USD rate from the network's
// designated stable pool. Which side of that pool is the reference token is
// deployment configuration, not inferred. Returns zero while the pool is not
// indexed yet. A single hardcoded price source per deployment is a known
// limitation of the model.
func ReferencePriceUSD(src EntitySource, network *config.Network) decimal.Decimal {
	pool, ok := src.Pool(network.StablePool)
	if !ok {
		return decimal.Zero
	}
	// Token1Price is the amount of token1 one token0 buys, so the reference
	// token's stablecoin price lives on the opposite side's field.
	if network.StablePoolReferenceIs0 {
		return pool.Token1Price
	}
	return pool.Token0Price
}

// DerivedReferencePrice estimates the token's price in the reference unit by
// walking the token's whitelist pools and adopting the implied price from the
// pool holding the most reference-denominated liquidity above the network
// minimum. The walk is single-hop: only pools pairing the token directly with
// a priced counterpart contribute. Candidates are visited in whitelist-pool
// insertion order and compared with strict >, so the first pool among equals
// wins. Returns zero when no pool qualifies; callers must treat zero as
// "price unknown", not as a worthless asset.
func DerivedReferencePrice(src EntitySource, network *config.Network, token *model.Token, bundle *model.Bundle) decimal.Decimal {
	if network.IsReferenceToken(token.ID) {
		return one
	}

	// Stablecoin pools are often too thin to trust; invert the bundle rate
	// instead of searching.
	if network.IsStableCoin(token.ID) {
		return SafeDiv(one, bundle.NativePriceUSD)
	}

	largestLocked := decimal.Zero
	priceSoFar := decimal.Zero

	for _, poolID := range token.WhitelistPools {
		pool, ok := src.Pool(poolID)
		if !ok {
			continue
		}
		// Positive historical balances with zero active liquidity do not
		// make a valid price source.
		if pool.Liquidity == nil || pool.Liquidity.Sign() <= 0 {
			continue
		}

		if pool.Token0 == token.ID {
			other, ok := src.Token(pool.Token1)
			if !ok {
				continue
			}
			locked := pool.TotalValueLockedToken1.Mul(other.DerivedNative)
			if locked.GreaterThan(largestLocked) && locked.GreaterThan(network.MinimumReferenceLocked) {
				largestLocked = locked
				// token1 per our token * reference per token1
				priceSoFar = pool.Token1Price.Mul(other.DerivedNative)
			}
		}
		if pool.Token1 == token.ID {
			other, ok := src.Token(pool.Token0)
			if !ok {
				continue
			}
			locked := pool.TotalValueLockedToken0.Mul(other.DerivedNative)
			if locked.GreaterThan(largestLocked) && locked.GreaterThan(network.MinimumReferenceLocked) {
				largestLocked = locked
				priceSoFar = pool.Token0Price.Mul(other.DerivedNative)
			}
		}
	}

	return priceSoFar
}
