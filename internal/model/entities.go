package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BundleID is the identifier of the process-wide bundle singleton.
const BundleID = "1"

// Token is a tracked ERC20 observed in at least one pool. Entities are
// append/update only: the engine computes new field values and the store
// commits them, nothing is ever deleted.
type Token struct {
	ID                 string
	Symbol             string
	Name               string
	Decimals           int32
	DerivedNative      decimal.Decimal
	WhitelistPools     []string
	Volume             decimal.Decimal
	VolumeUSD          decimal.Decimal
	UntrackedVolumeUSD decimal.Decimal
	TotalValueLocked   decimal.Decimal
	TxCount            uint64
}

// Pool is a concentrated-liquidity pool. Token0/Token1 are references into
// the token set, not owned values.
type Pool struct {
	ID                     string
	Token0                 string
	Token1                 string
	Liquidity              *big.Int
	SqrtPrice              *big.Int
	Tick                   int32
	Token0Price            decimal.Decimal
	Token1Price            decimal.Decimal
	TotalValueLockedToken0 decimal.Decimal
	TotalValueLockedToken1 decimal.Decimal
	TotalValueLockedNative decimal.Decimal
	TotalValueLockedUSD    decimal.Decimal
	VolumeToken0           decimal.Decimal
	VolumeToken1           decimal.Decimal
	VolumeUSD              decimal.Decimal
	UntrackedVolumeUSD     decimal.Decimal
	TxCount                uint64
	CreatedAtBlock         uint64
}

// Bundle holds the reference-unit to USD rate shared by every valuation in
// the same logical update.
type Bundle struct {
	ID             string
	NativePriceUSD decimal.Decimal
}

// Order is a resolved liquidity-hub order valued in USD at resolution time.
type Order struct {
	ID           string
	TxHash       string
	BlockNumber  uint64
	Timestamp    uint64
	Swapper      string
	Ref          string
	InToken      string
	OutToken     string
	InAmount     *big.Int
	OutAmount    *big.Int
	OutAmountUSD decimal.Decimal
}

// Epoch aggregates limit-order liquidity placed against one pool epoch.
type Epoch struct {
	ID             string
	Pool           string
	Filled         bool
	TotalLiquidity *big.Int
}

// WhitelistedUser records an address admitted by the whitelist contract,
// keyed by the user address.
type WhitelistedUser struct {
	ID          string
	User        string
	TxHash      string
	BlockNumber uint64
	Timestamp   uint64
}

// LimitOrder tracks one owner's liquidity within an epoch.
type LimitOrder struct {
	ID               string
	Owner            string
	Pool             string
	TickLower        int32
	TickUpper        int32
	ZeroToOne        bool
	Epoch            string
	Liquidity        *big.Int
	InitialLiquidity *big.Int
	KilledLiquidity  *big.Int
	Killed           bool
	Amount0          decimal.Decimal
	Amount1          decimal.Decimal
}
