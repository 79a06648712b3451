package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricingScope/internal/config"
	"pricingScope/internal/model"
	"pricingScope/internal/pricing"
)

var two = decimal.New(2, 0)

// EntityStore commits valuation entities. Satisfied by the Postgres store.
type EntityStore interface {
	UpsertTokens(ctx context.Context, chainID uint64, tokens []*model.Token) error
	UpsertPools(ctx context.Context, chainID uint64, pools []*model.Pool) error
	UpsertBundle(ctx context.Context, chainID uint64, bundle *model.Bundle) error
	UpsertOrders(ctx context.Context, chainID uint64, orders []*model.Order) error
	UpsertEpochs(ctx context.Context, chainID uint64, epochs []*model.Epoch) error
	UpsertLimitOrders(ctx context.Context, chainID uint64, orders []*model.LimitOrder) error
	UpsertWhitelistedUsers(ctx context.Context, chainID uint64, users []*model.WhitelistedUser) error
}

// Config controls replay behavior.
type Config struct {
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Engine replays decoded events in log order and maintains the valuation
// entity set: derived token prices, the reference/USD bundle, tracked
// volumes, TVL, resolved orders, and limit-order epochs.
type Engine struct {
	cfg     Config
	network *config.Network
	store   EntityStore
	state   *State
	logger  *zap.Logger

	maxBlock uint64
}

func NewEngine(cfg Config, network *config.Network, store EntityStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		network: network,
		store:   store,
		state:   NewState(),
		logger:  logger,
	}
}

// State exposes the entity set, mainly for tests and inspection commands.
func (e *Engine) State() *State {
	return e.state
}

// Run replays a typed events JSONL file. Input must be ordered by
// (block, tx index, log index); the decode stage preserves fetch order so a
// sequential file scan satisfies that.
func (e *Engine) Run(ctx context.Context, inputPath string) error {
	if e.store == nil {
		return fmt.Errorf("store is nil")
	}
	if e.network == nil {
		return fmt.Errorf("network is nil")
	}
	if e.cfg.BatchSize <= 0 {
		e.cfg.BatchSize = 1000
	}

	startBlock, err := e.loadStartBlock(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	e.maxBlock = startBlock
	var total, applied, skipped, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			e.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		if startBlock > 0 && record.BlockNumber <= startBlock {
			skipped++
			continue
		}

		if err := e.Apply(record); err != nil {
			failed++
			e.logger.Warn("apply event",
				zap.Error(err),
				zap.String("event", record.EventName),
				zap.Uint64("block", record.BlockNumber),
			)
			continue
		}
		applied++

		if record.BlockNumber > e.maxBlock {
			e.maxBlock = record.BlockNumber
		}

		if e.state.DirtyCount() >= e.cfg.BatchSize {
			if err := e.commit(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if err := e.commit(ctx); err != nil {
		return err
	}
	if err := e.saveState(ctx); err != nil {
		return err
	}

	e.logger.Info("replay complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("last_block", e.maxBlock),
	)

	return nil
}

// Apply updates the entity set with one decoded event.
func (e *Engine) Apply(record model.TypedEventRecord) error {
	switch record.EventName {
	case "PoolCreated":
		var data model.PoolCreatedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode pool created: %w", err)
		}
		return e.applyPoolCreated(record, data)
	case "Initialize":
		var data model.InitializeEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode initialize: %w", err)
		}
		return e.applyInitialize(record, data)
	case "Swap":
		var data model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return e.applySwap(record, data)
	case "Mint":
		var data model.MintEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode mint: %w", err)
		}
		return e.applyMint(record, data)
	case "Burn":
		var data model.BurnEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode burn: %w", err)
		}
		return e.applyBurn(record, data)
	case "Resolved":
		var data model.ResolvedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode resolved: %w", err)
		}
		return e.applyResolved(record, data)
	case "Place":
		var data model.PlaceEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode place: %w", err)
		}
		return e.applyPlace(record, data)
	case "Fill":
		var data model.FillEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode fill: %w", err)
		}
		return e.applyFill(data)
	case "Kill":
		var data model.KillEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode kill: %w", err)
		}
		return e.applyKill(data)
	case "Withdraw":
		var data model.WithdrawEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode withdraw: %w", err)
		}
		return e.applyWithdraw(data)
	case "Whitelisted":
		var data model.WhitelistedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return fmt.Errorf("decode whitelisted: %w", err)
		}
		return e.applyWhitelisted(record, data)
	default:
		return fmt.Errorf("unsupported event name: %s", record.EventName)
	}
}

func (e *Engine) applyPoolCreated(record model.TypedEventRecord, data model.PoolCreatedEventData) error {
	// A replayed creation for a known pool must not re-append whitelist
	// membership.
	if _, ok := e.state.Pool(data.Pool); ok {
		return nil
	}

	pool := e.state.AddPool(&model.Pool{
		ID:             data.Pool,
		Token0:         data.Token0,
		Token1:         data.Token1,
		Liquidity:      big.NewInt(0),
		SqrtPrice:      big.NewInt(0),
		CreatedAtBlock: record.BlockNumber,
	})

	token0 := e.state.GetOrCreateToken(pool.Token0)
	token1 := e.state.GetOrCreateToken(pool.Token1)

	// A pool joins a token's candidate list only when the counterpart side
	// is a trusted anchor.
	if e.network.IsWhitelisted(token0.ID) {
		token1.WhitelistPools = append(token1.WhitelistPools, pool.ID)
		e.state.MarkToken(token1)
	}
	if e.network.IsWhitelisted(token1.ID) {
		token0.WhitelistPools = append(token0.WhitelistPools, pool.ID)
		e.state.MarkToken(token0)
	}

	return nil
}

func (e *Engine) applyInitialize(record model.TypedEventRecord, data model.InitializeEventData) error {
	pool, ok := e.state.Pool(record.Address)
	if !ok {
		return fmt.Errorf("initialize for unknown pool %s", record.Address)
	}

	token0, token1 := e.poolTokens(pool, record.PoolMeta)

	pool.SqrtPrice = parseBig(data.Price)
	pool.Tick = data.Tick
	pool.Token0Price, pool.Token1Price = pricing.SqrtPriceToTokenPrices(pool.SqrtPrice, token0, token1)
	e.state.MarkPool(pool)

	e.refreshBundle()
	e.refreshDerived(token0, token1)
	return nil
}

func (e *Engine) applySwap(record model.TypedEventRecord, data model.SwapEventData) error {
	pool, ok := e.state.Pool(record.Address)
	if !ok {
		return fmt.Errorf("swap for unknown pool %s", record.Address)
	}

	token0, token1 := e.poolTokens(pool, record.PoolMeta)

	amount0 := pricing.ConvertTokenToDecimal(parseBig(data.Amount0), token0.Decimals)
	amount1 := pricing.ConvertTokenToDecimal(parseBig(data.Amount1), token1.Decimals)
	amount0Abs := amount0.Abs()
	amount1Abs := amount1.Abs()

	pool.Liquidity = parseBig(data.Liquidity)
	pool.SqrtPrice = parseBig(data.Price)
	pool.Tick = data.Tick
	pool.Token0Price, pool.Token1Price = pricing.SqrtPriceToTokenPrices(pool.SqrtPrice, token0, token1)

	e.refreshBundle()
	e.refreshDerived(token0, token1)

	bundle := e.state.Bundle()
	// Tracked value covers both legs; a single swap's volume is half of it.
	trackedUSD := pricing.TrackedAmountUSD(e.network, bundle, amount0Abs, token0, amount1Abs, token1).DivRound(two, 34)
	untrackedUSD := amount0Abs.Mul(e.state.TokenPriceUSD(token0)).
		Add(amount1Abs.Mul(e.state.TokenPriceUSD(token1))).
		DivRound(two, 34)

	pool.VolumeToken0 = pool.VolumeToken0.Add(amount0Abs)
	pool.VolumeToken1 = pool.VolumeToken1.Add(amount1Abs)
	pool.VolumeUSD = pool.VolumeUSD.Add(trackedUSD)
	pool.UntrackedVolumeUSD = pool.UntrackedVolumeUSD.Add(untrackedUSD)
	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)
	pool.TxCount++

	token0.Volume = token0.Volume.Add(amount0Abs)
	token0.VolumeUSD = token0.VolumeUSD.Add(trackedUSD)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(untrackedUSD)
	token0.TotalValueLocked = token0.TotalValueLocked.Add(amount0)
	token0.TxCount++

	token1.Volume = token1.Volume.Add(amount1Abs)
	token1.VolumeUSD = token1.VolumeUSD.Add(trackedUSD)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(untrackedUSD)
	token1.TotalValueLocked = token1.TotalValueLocked.Add(amount1)
	token1.TxCount++

	e.refreshPoolValuation(pool, token0, token1)
	e.state.MarkToken(token0)
	e.state.MarkToken(token1)
	return nil
}

func (e *Engine) applyMint(record model.TypedEventRecord, data model.MintEventData) error {
	pool, ok := e.state.Pool(record.Address)
	if !ok {
		return fmt.Errorf("mint for unknown pool %s", record.Address)
	}

	token0, token1 := e.poolTokens(pool, record.PoolMeta)

	amount0 := pricing.ConvertTokenToDecimal(parseBig(data.Amount0), token0.Decimals)
	amount1 := pricing.ConvertTokenToDecimal(parseBig(data.Amount1), token1.Decimals)

	if data.BottomTick <= pool.Tick && pool.Tick < data.TopTick {
		pool.Liquidity = addBig(pool.Liquidity, parseBig(data.LiquidityAmount))
	}

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)
	pool.TxCount++

	token0.TotalValueLocked = token0.TotalValueLocked.Add(amount0)
	token0.TxCount++
	token1.TotalValueLocked = token1.TotalValueLocked.Add(amount1)
	token1.TxCount++

	e.refreshPoolValuation(pool, token0, token1)
	e.state.MarkToken(token0)
	e.state.MarkToken(token1)
	return nil
}

func (e *Engine) applyBurn(record model.TypedEventRecord, data model.BurnEventData) error {
	pool, ok := e.state.Pool(record.Address)
	if !ok {
		return fmt.Errorf("burn for unknown pool %s", record.Address)
	}

	token0, token1 := e.poolTokens(pool, record.PoolMeta)

	amount0 := pricing.ConvertTokenToDecimal(parseBig(data.Amount0), token0.Decimals)
	amount1 := pricing.ConvertTokenToDecimal(parseBig(data.Amount1), token1.Decimals)

	if data.BottomTick <= pool.Tick && pool.Tick < data.TopTick {
		pool.Liquidity = subBig(pool.Liquidity, parseBig(data.LiquidityAmount))
	}

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Sub(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Sub(amount1)
	pool.TxCount++

	token0.TotalValueLocked = token0.TotalValueLocked.Sub(amount0)
	token0.TxCount++
	token1.TotalValueLocked = token1.TotalValueLocked.Sub(amount1)
	token1.TxCount++

	e.refreshPoolValuation(pool, token0, token1)
	e.state.MarkToken(token0)
	e.state.MarkToken(token1)
	return nil
}

// applyWhitelisted records an address admitted by the whitelist contract.
func (e *Engine) applyWhitelisted(record model.TypedEventRecord, data model.WhitelistedEventData) error {
	e.state.AddWhitelistedUser(&model.WhitelistedUser{
		ID:          data.User,
		User:        data.User,
		TxHash:      record.TxHash,
		BlockNumber: record.BlockNumber,
		Timestamp:   record.Timestamp,
	})
	return nil
}

// poolTokens resolves both sides of a pool, upgrading placeholder metadata
// from the decode stage's embedded token metas when available.
func (e *Engine) poolTokens(pool *model.Pool, meta *model.PoolMeta) (*model.Token, *model.Token) {
	token0 := e.state.GetOrCreateToken(pool.Token0)
	token1 := e.state.GetOrCreateToken(pool.Token1)
	if meta != nil {
		e.state.ApplyTokenMeta(token0, meta.Token0Meta)
		e.state.ApplyTokenMeta(token1, meta.Token1Meta)
	}
	return token0, token1
}

// refreshBundle re-reads the reference/USD rate from the stable pool.
func (e *Engine) refreshBundle() {
	bundle := e.state.Bundle()
	price := pricing.ReferencePriceUSD(e.state, e.network)
	if !bundle.NativePriceUSD.Equal(price) {
		bundle.NativePriceUSD = price
		e.state.MarkBundle()
	}
}

func (e *Engine) refreshDerived(tokens ...*model.Token) {
	bundle := e.state.Bundle()
	for _, token := range tokens {
		token.DerivedNative = pricing.DerivedReferencePrice(e.state, e.network, token, bundle)
		e.state.MarkToken(token)
	}
}

func (e *Engine) refreshPoolValuation(pool *model.Pool, token0, token1 *model.Token) {
	pool.TotalValueLockedNative = pool.TotalValueLockedToken0.Mul(token0.DerivedNative).
		Add(pool.TotalValueLockedToken1.Mul(token1.DerivedNative))
	pool.TotalValueLockedUSD = pool.TotalValueLockedNative.Mul(e.state.Bundle().NativePriceUSD)
	e.state.MarkPool(pool)
}

func (e *Engine) commit(ctx context.Context) error {
	changes := e.state.Changes()
	if changes.Empty() {
		return nil
	}

	chainID := e.network.ChainID
	if err := e.store.UpsertTokens(ctx, chainID, changes.Tokens); err != nil {
		return err
	}
	if err := e.store.UpsertPools(ctx, chainID, changes.Pools); err != nil {
		return err
	}
	if changes.Bundle != nil {
		if err := e.store.UpsertBundle(ctx, chainID, changes.Bundle); err != nil {
			return err
		}
	}
	if err := e.store.UpsertOrders(ctx, chainID, changes.Orders); err != nil {
		return err
	}
	if err := e.store.UpsertEpochs(ctx, chainID, changes.Epochs); err != nil {
		return err
	}
	if err := e.store.UpsertLimitOrders(ctx, chainID, changes.LimitOrders); err != nil {
		return err
	}
	if err := e.store.UpsertWhitelistedUsers(ctx, chainID, changes.WhitelistedUsers); err != nil {
		return err
	}
	return nil
}

func (e *Engine) loadStartBlock(ctx context.Context) (uint64, error) {
	if e.cfg.RecomputeFrom > 0 {
		return e.cfg.RecomputeFrom - 1, nil
	}
	if e.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := e.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (e *Engine) saveState(ctx context.Context) error {
	if e.cfg.StateStore == nil {
		return nil
	}
	return e.cfg.StateStore.Save(ctx, e.maxBlock)
}

func parseBig(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func addBig(a, b *big.Int) *big.Int {
	if a == nil {
		a = big.NewInt(0)
	}
	return new(big.Int).Add(a, b)
}

func subBig(a, b *big.Int) *big.Int {
	if a == nil {
		a = big.NewInt(0)
	}
	return new(big.Int).Sub(a, b)
}
