package model

// PoolCreatedEventData is the decoded factory Pool event payload.
type PoolCreatedEventData struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Pool   string `json:"pool"`
}

// InitializeEventData is the decoded pool Initialize event payload.
type InitializeEventData struct {
	Price string `json:"price"`
	Tick  int32  `json:"tick"`
}

// SwapEventData is the decoded Swap event payload. Price carries the pool's
// sqrt-price encoding after the swap.
type SwapEventData struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Price     string `json:"price"`
	Liquidity string `json:"liquidity"`
	Tick      int32  `json:"tick"`
}

// MintEventData is the decoded Mint event payload.
type MintEventData struct {
	Sender          string `json:"sender"`
	Owner           string `json:"owner"`
	BottomTick      int32  `json:"bottom_tick"`
	TopTick         int32  `json:"top_tick"`
	LiquidityAmount string `json:"liquidity_amount"`
	Amount0         string `json:"amount0"`
	Amount1         string `json:"amount1"`
}

// BurnEventData is the decoded Burn event payload.
type BurnEventData struct {
	Owner           string `json:"owner"`
	BottomTick      int32  `json:"bottom_tick"`
	TopTick         int32  `json:"top_tick"`
	LiquidityAmount string `json:"liquidity_amount"`
	Amount0         string `json:"amount0"`
	Amount1         string `json:"amount1"`
}

// ResolvedEventData is the decoded liquidity-hub Resolved event payload.
type ResolvedEventData struct {
	OrderHash string `json:"order_hash"`
	Swapper   string `json:"swapper"`
	Ref       string `json:"ref"`
	InToken   string `json:"in_token"`
	OutToken  string `json:"out_token"`
	InAmount  string `json:"in_amount"`
	OutAmount string `json:"out_amount"`
}

// PlaceEventData is the decoded limit-order Place event payload.
type PlaceEventData struct {
	Owner     string `json:"owner"`
	Pool      string `json:"pool"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	ZeroToOne bool   `json:"zero_to_one"`
	Liquidity string `json:"liquidity"`
	Epoch     string `json:"epoch"`
}

// FillEventData is the decoded limit-order Fill event payload.
type FillEventData struct {
	Epoch string `json:"epoch"`
}

// KillEventData is the decoded limit-order Kill event payload.
type KillEventData struct {
	Owner     string `json:"owner"`
	Pool      string `json:"pool"`
	Liquidity string `json:"liquidity"`
	Epoch     string `json:"epoch"`
}

// WithdrawEventData is the decoded limit-order Withdraw event payload.
type WithdrawEventData struct {
	Owner     string `json:"owner"`
	Liquidity string `json:"liquidity"`
	Epoch     string `json:"epoch"`
}

// WhitelistedEventData is the decoded whitelist contract Whitelisted event
// payload.
type WhitelistedEventData struct {
	User string `json:"user"`
}
