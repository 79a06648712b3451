package model

// PoolMeta captures immutable pool metadata with optional live fields.
// Algebra pools expose their price through globalState rather than slot0 and
// carry no static fee tier.
type PoolMeta struct {
	Token0      string           `json:"token0"`
	Token1      string           `json:"token1"`
	Token0Meta  *TokenMeta       `json:"token0_meta,omitempty"`
	Token1Meta  *TokenMeta       `json:"token1_meta,omitempty"`
	Liquidity   string           `json:"liquidity,omitempty"`
	GlobalState *PoolGlobalState `json:"global_state,omitempty"`
}

// PoolGlobalState includes select globalState fields.
type PoolGlobalState struct {
	Price string `json:"price"`
	Tick  int32  `json:"tick"`
}
