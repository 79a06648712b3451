package engine

import (
	"fmt"
	"math/big"

	"pricingScope/internal/model"
	"pricingScope/internal/pricing"
)

// applyResolved records a liquidity-hub order, valuing the output leg at the
// current derived USD price. An unknown output token values to zero; the raw
// amounts are kept so the order can be revalued offline.
func (e *Engine) applyResolved(record model.TypedEventRecord, data model.ResolvedEventData) error {
	order := &model.Order{
		ID:          data.OrderHash,
		TxHash:      record.TxHash,
		BlockNumber: record.BlockNumber,
		Timestamp:   record.Timestamp,
		Swapper:     data.Swapper,
		Ref:         data.Ref,
		InToken:     data.InToken,
		OutToken:    data.OutToken,
		InAmount:    parseBig(data.InAmount),
		OutAmount:   parseBig(data.OutAmount),
	}

	if outToken, ok := e.state.Token(data.OutToken); ok {
		outAmount := pricing.ConvertTokenToDecimal(order.OutAmount, outToken.Decimals)
		order.OutAmountUSD = outAmount.Mul(e.state.TokenPriceUSD(outToken))
	}

	e.state.AddOrder(order)
	return nil
}

// limitOrderID keys one owner's position within an epoch.
func limitOrderID(epoch, owner string) string {
	return fmt.Sprintf("%s-%s", epoch, entityKey(owner))
}

func (e *Engine) applyPlace(record model.TypedEventRecord, data model.PlaceEventData) error {
	liquidity := parseBig(data.Liquidity)

	epoch := e.state.AddEpoch(&model.Epoch{
		ID:             data.Epoch,
		Pool:           entityKey(data.Pool),
		TotalLiquidity: big.NewInt(0),
	})
	epoch.TotalLiquidity = addBig(epoch.TotalLiquidity, liquidity)
	e.state.MarkEpoch(epoch)

	order := e.state.AddLimitOrder(&model.LimitOrder{
		ID:               limitOrderID(data.Epoch, data.Owner),
		Owner:            entityKey(data.Owner),
		Pool:             entityKey(data.Pool),
		TickLower:        data.TickLower,
		TickUpper:        data.TickUpper,
		ZeroToOne:        data.ZeroToOne,
		Epoch:            data.Epoch,
		Liquidity:        big.NewInt(0),
		InitialLiquidity: big.NewInt(0),
		KilledLiquidity:  big.NewInt(0),
	})
	order.Liquidity = addBig(order.Liquidity, liquidity)
	order.InitialLiquidity = addBig(order.InitialLiquidity, liquidity)

	// Value the placed range against the pool's current price. Before the
	// pool is initialized there is no price to value against.
	if pool, ok := e.state.Pool(data.Pool); ok && pool.SqrtPrice != nil && pool.SqrtPrice.Sign() > 0 {
		token0, token1 := e.poolTokens(pool, record.PoolMeta)
		lower := pricing.TickToSqrtPrice(data.TickLower)
		upper := pricing.TickToSqrtPrice(data.TickUpper)

		raw0 := pricing.PositionAmounts(liquidity, lower, upper, pool.SqrtPrice, true)
		raw1 := pricing.PositionAmounts(liquidity, lower, upper, pool.SqrtPrice, false)
		order.Amount0 = order.Amount0.Add(raw0.Shift(-token0.Decimals))
		order.Amount1 = order.Amount1.Add(raw1.Shift(-token1.Decimals))
	}

	e.state.MarkLimitOrder(order)
	return nil
}

func (e *Engine) applyFill(data model.FillEventData) error {
	epoch, ok := e.state.Epoch(data.Epoch)
	if !ok {
		return fmt.Errorf("fill for unknown epoch %s", data.Epoch)
	}
	epoch.Filled = true
	e.state.MarkEpoch(epoch)
	return nil
}

func (e *Engine) applyKill(data model.KillEventData) error {
	order, ok := e.state.LimitOrder(limitOrderID(data.Epoch, data.Owner))
	if !ok {
		return fmt.Errorf("kill for unknown limit order %s", limitOrderID(data.Epoch, data.Owner))
	}

	liquidity := parseBig(data.Liquidity)
	order.KilledLiquidity = addBig(order.KilledLiquidity, liquidity)
	order.Liquidity = subBig(order.Liquidity, liquidity)
	// A partial kill leaves the order alive; only killing the full initial
	// liquidity retires it.
	if order.KilledLiquidity.Cmp(order.InitialLiquidity) == 0 {
		order.Killed = true
	}
	e.state.MarkLimitOrder(order)

	if epoch, ok := e.state.Epoch(data.Epoch); ok {
		epoch.TotalLiquidity = subBig(epoch.TotalLiquidity, liquidity)
		e.state.MarkEpoch(epoch)
	}
	return nil
}

func (e *Engine) applyWithdraw(data model.WithdrawEventData) error {
	order, ok := e.state.LimitOrder(limitOrderID(data.Epoch, data.Owner))
	if !ok {
		return fmt.Errorf("withdraw for unknown limit order %s", limitOrderID(data.Epoch, data.Owner))
	}

	liquidity := parseBig(data.Liquidity)
	order.Liquidity = subBig(order.Liquidity, liquidity)
	e.state.MarkLimitOrder(order)

	if epoch, ok := e.state.Epoch(data.Epoch); ok {
		epoch.TotalLiquidity = subBig(epoch.TotalLiquidity, liquidity)
		e.state.MarkEpoch(epoch)
	}
	return nil
}
