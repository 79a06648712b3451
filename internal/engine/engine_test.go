package engine

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pricingScope/internal/config"
	"pricingScope/internal/model"
)

const (
	refToken   = "0x4200000000000000000000000000000000000006"
	stableCoin = "0x3b952c8c9c44e8fe201e2b26f6b2200203214cff"
	altToken   = "0xfd418e42783382e86ae91e445406600ba144d162"
	stablePool = "0xcd927c5800d1d4e896a135ce0a4528979c8d24b3"
	hubAddress = "0x822ddb9eecc3794790b8316585feba5b8f7c7507"

	// 2^95: with equal token decimals this decodes to a token0 price of 4.
	sqrtPriceFour = "39614081257132168796771975168"
)

func testNetwork() *config.Network {
	return config.NewNetwork(config.Network{
		Name:                   "test",
		ChainID:                48900,
		ReferenceToken:         refToken,
		StablePool:             stablePool,
		MinimumReferenceLocked: decimal.RequireFromString("0.000001"),
		WhitelistTokens:        []string{refToken, stableCoin},
		StableCoins:            []string{stableCoin},
	})
}

func eventRecord(t *testing.T, name, address string, block uint64, payload interface{}, meta *model.PoolMeta) model.TypedEventRecord {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", name, err)
	}
	return model.TypedEventRecord{
		ChainID:     48900,
		BlockNumber: block,
		TxHash:      "0xabc",
		EventName:   name,
		Address:     address,
		Timestamp:   1700000000 + block,
		Decoded:     data,
		PoolMeta:    meta,
	}
}

func stablePoolMeta() *model.PoolMeta {
	return &model.PoolMeta{
		Token0:     stableCoin,
		Token1:     refToken,
		Token0Meta: &model.TokenMeta{Address: stableCoin, Decimals: 18, Symbol: "USDS"},
		Token1Meta: &model.TokenMeta{Address: refToken, Decimals: 18, Symbol: "WETH"},
	}
}

func newTestEngine() *Engine {
	return NewEngine(Config{BatchSize: 100}, testNetwork(), nil, nil)
}

func mustApply(t *testing.T, e *Engine, record model.TypedEventRecord) {
	t.Helper()
	if err := e.Apply(record); err != nil {
		t.Fatalf("apply %s: %v", record.EventName, err)
	}
}

func initStablePool(t *testing.T, e *Engine) {
	t.Helper()
	mustApply(t, e, eventRecord(t, "PoolCreated", "0xfactory", 1, model.PoolCreatedEventData{
		Token0: stableCoin,
		Token1: refToken,
		Pool:   stablePool,
	}, nil))
	mustApply(t, e, eventRecord(t, "Initialize", stablePool, 2, model.InitializeEventData{
		Price: sqrtPriceFour,
		Tick:  0,
	}, stablePoolMeta()))
}

func TestEngineInitializeSetsBundleAndDerived(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	bundle := e.State().Bundle()
	if !bundle.NativePriceUSD.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("bundle rate = %s, want 4", bundle.NativePriceUSD)
	}

	ref, ok := e.State().Token(refToken)
	if !ok || !ref.DerivedNative.Equal(decimal.New(1, 0)) {
		t.Fatalf("reference token derived price should be one")
	}
	if ref.Symbol != "WETH" {
		t.Fatalf("token meta not applied: %+v", ref)
	}

	stable, ok := e.State().Token(stableCoin)
	if !ok || !stable.DerivedNative.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("stablecoin derived price = %s, want 0.25", stable.DerivedNative)
	}

	pool, _ := e.State().Pool(stablePool)
	if !pool.Token0Price.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("token0 price = %s, want 4", pool.Token0Price)
	}
}

func TestEngineWhitelistPoolRegistration(t *testing.T) {
	e := newTestEngine()
	mustApply(t, e, eventRecord(t, "PoolCreated", "0xfactory", 1, model.PoolCreatedEventData{
		Token0: altToken,
		Token1: refToken,
		Pool:   "0x1111111111111111111111111111111111111111",
	}, nil))

	alt, ok := e.State().Token(altToken)
	if !ok {
		t.Fatalf("alt token missing")
	}
	if len(alt.WhitelistPools) != 1 || alt.WhitelistPools[0] != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("whitelist pools = %v", alt.WhitelistPools)
	}

	// The alt token is not whitelisted, so the reference side gains nothing.
	ref, _ := e.State().Token(refToken)
	if len(ref.WhitelistPools) != 0 {
		t.Fatalf("reference token should gain no whitelist pool, got %v", ref.WhitelistPools)
	}
}

func TestEngineSwapVolumesAndTVL(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	// 100 stable in, 25 reference out, price unchanged.
	mustApply(t, e, eventRecord(t, "Swap", stablePool, 3, model.SwapEventData{
		Sender:    "0xaaa",
		Recipient: "0xbbb",
		Amount0:   "100000000000000000000",
		Amount1:   "-25000000000000000000",
		Price:     sqrtPriceFour,
		Liquidity: "1000000000000000000",
		Tick:      0,
	}, stablePoolMeta()))

	pool, _ := e.State().Pool(stablePool)
	if !pool.VolumeToken0.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("volume0 = %s, want 100", pool.VolumeToken0)
	}
	if !pool.VolumeToken1.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("volume1 = %s, want 25", pool.VolumeToken1)
	}
	// Both legs whitelisted: tracked USD is the mean of 100*$1 and 25*$4.
	if !pool.VolumeUSD.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("volume usd = %s, want 100", pool.VolumeUSD)
	}
	if !pool.TotalValueLockedToken0.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("tvl0 = %s, want 100", pool.TotalValueLockedToken0)
	}
	if !pool.TotalValueLockedToken1.Equal(decimal.RequireFromString("-25")) {
		t.Fatalf("tvl1 = %s, want -25", pool.TotalValueLockedToken1)
	}
	// 100 * 0.25 + (-25) * 1 reference units.
	if !pool.TotalValueLockedNative.IsZero() {
		t.Fatalf("tvl native = %s, want 0", pool.TotalValueLockedNative)
	}
	if pool.TxCount != 1 {
		t.Fatalf("pool tx count = %d", pool.TxCount)
	}

	stable, _ := e.State().Token(stableCoin)
	if !stable.Volume.Equal(decimal.RequireFromString("100")) || stable.TxCount != 1 {
		t.Fatalf("stable token volume = %s tx = %d", stable.Volume, stable.TxCount)
	}
	if !stable.VolumeUSD.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("stable token volume usd = %s", stable.VolumeUSD)
	}
}

func TestEngineMintBurnLiquidityRange(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	mint := model.MintEventData{
		Sender:          "0xaaa",
		Owner:           "0xbbb",
		BottomTick:      -60,
		TopTick:         60,
		LiquidityAmount: "500000000000000000",
		Amount0:         "1000000000000000000",
		Amount1:         "1000000000000000000",
	}
	mustApply(t, e, eventRecord(t, "Mint", stablePool, 4, mint, stablePoolMeta()))

	pool, _ := e.State().Pool(stablePool)
	if pool.Liquidity.Cmp(big.NewInt(500000000000000000)) != 0 {
		t.Fatalf("in-range mint should add liquidity, got %s", pool.Liquidity)
	}
	if !pool.TotalValueLockedToken0.Equal(decimal.New(1, 0)) {
		t.Fatalf("tvl0 = %s, want 1", pool.TotalValueLockedToken0)
	}

	// Same range above the current tick: no active liquidity change.
	outOfRange := mint
	outOfRange.BottomTick = 60
	outOfRange.TopTick = 120
	mustApply(t, e, eventRecord(t, "Mint", stablePool, 5, outOfRange, stablePoolMeta()))
	if pool.Liquidity.Cmp(big.NewInt(500000000000000000)) != 0 {
		t.Fatalf("out-of-range mint changed liquidity: %s", pool.Liquidity)
	}

	mustApply(t, e, eventRecord(t, "Burn", stablePool, 6, model.BurnEventData{
		Owner:           "0xbbb",
		BottomTick:      -60,
		TopTick:         60,
		LiquidityAmount: "500000000000000000",
		Amount0:         "1000000000000000000",
		Amount1:         "1000000000000000000",
	}, stablePoolMeta()))

	if pool.Liquidity.Sign() != 0 {
		t.Fatalf("burn should remove in-range liquidity, got %s", pool.Liquidity)
	}
	if !pool.TotalValueLockedToken0.Equal(decimal.New(1, 0)) {
		t.Fatalf("tvl0 after burn = %s, want 1", pool.TotalValueLockedToken0)
	}
	if pool.TxCount != 3 {
		t.Fatalf("pool tx count = %d, want 3", pool.TxCount)
	}
}

func TestEngineResolvedOrderValuation(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	mustApply(t, e, eventRecord(t, "Resolved", hubAddress, 7, model.ResolvedEventData{
		OrderHash: "0x00ff",
		Swapper:   "0xswapper",
		Ref:       "0xref",
		InToken:   stableCoin,
		OutToken:  refToken,
		InAmount:  "8000000000000000000",
		OutAmount: "2000000000000000000",
	}, nil))

	changes := e.State().Changes()
	if len(changes.Orders) != 1 {
		t.Fatalf("expected one order, got %d", len(changes.Orders))
	}
	order := changes.Orders[0]
	if order.ID != "0x00ff" {
		t.Fatalf("order id = %s", order.ID)
	}
	// 2 reference units at $4.
	if !order.OutAmountUSD.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("order usd = %s, want 8", order.OutAmountUSD)
	}
}

func TestEngineResolvedUnknownTokenValuesZero(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	mustApply(t, e, eventRecord(t, "Resolved", hubAddress, 7, model.ResolvedEventData{
		OrderHash: "0x01",
		Swapper:   "0xswapper",
		OutToken:  "0x9999999999999999999999999999999999999999",
		OutAmount: "1000000000000000000",
	}, nil))

	changes := e.State().Changes()
	if len(changes.Orders) != 1 || !changes.Orders[0].OutAmountUSD.IsZero() {
		t.Fatalf("unknown out token should value to zero")
	}
}

func TestEngineLimitOrderLifecycle(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	place := model.PlaceEventData{
		Owner:     "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Pool:      stablePool,
		TickLower: -20000,
		TickUpper: -15000,
		ZeroToOne: false,
		Liquidity: "1000000000000000000",
		Epoch:     "42",
	}
	mustApply(t, e, eventRecord(t, "Place", "0xlimit", 8, place, nil))

	epoch, ok := e.State().Epoch("42")
	if !ok || epoch.Pool != stablePool {
		t.Fatalf("epoch missing or wrong pool")
	}
	if epoch.TotalLiquidity.Cmp(big.NewInt(1000000000000000000)) != 0 {
		t.Fatalf("epoch liquidity = %s", epoch.TotalLiquidity)
	}

	orderID := limitOrderID("42", place.Owner)
	order, ok := e.State().LimitOrder(orderID)
	if !ok {
		t.Fatalf("limit order missing")
	}
	// Range sits below the current price, so the position is all token1.
	if !order.Amount0.IsZero() {
		t.Fatalf("amount0 = %s, want 0", order.Amount0)
	}
	if !order.Amount1.IsPositive() {
		t.Fatalf("amount1 = %s, want > 0", order.Amount1)
	}

	mustApply(t, e, eventRecord(t, "Fill", "0xlimit", 9, model.FillEventData{Epoch: "42"}, nil))
	if !epoch.Filled {
		t.Fatalf("epoch should be filled")
	}

	mustApply(t, e, eventRecord(t, "Kill", "0xlimit", 10, model.KillEventData{
		Owner:     place.Owner,
		Pool:      stablePool,
		Liquidity: "400000000000000000",
		Epoch:     "42",
	}, nil))
	if order.Killed {
		t.Fatalf("partial kill should leave the order alive")
	}
	if order.Liquidity.Cmp(big.NewInt(600000000000000000)) != 0 {
		t.Fatalf("order liquidity after kill = %s", order.Liquidity)
	}
	if epoch.TotalLiquidity.Cmp(big.NewInt(600000000000000000)) != 0 {
		t.Fatalf("epoch liquidity after kill = %s", epoch.TotalLiquidity)
	}

	mustApply(t, e, eventRecord(t, "Withdraw", "0xlimit", 11, model.WithdrawEventData{
		Owner:     place.Owner,
		Liquidity: "600000000000000000",
		Epoch:     "42",
	}, nil))
	if order.Liquidity.Sign() != 0 {
		t.Fatalf("order liquidity after withdraw = %s", order.Liquidity)
	}
	if epoch.TotalLiquidity.Sign() != 0 {
		t.Fatalf("epoch liquidity after withdraw = %s, want 0", epoch.TotalLiquidity)
	}
	if order.InitialLiquidity.Cmp(big.NewInt(1000000000000000000)) != 0 {
		t.Fatalf("initial liquidity should be untouched, got %s", order.InitialLiquidity)
	}
}

func TestEngineLimitOrderFullKillRetires(t *testing.T) {
	e := newTestEngine()
	initStablePool(t, e)

	place := model.PlaceEventData{
		Owner:     "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Pool:      stablePool,
		TickLower: -20000,
		TickUpper: -15000,
		ZeroToOne: false,
		Liquidity: "1000000000000000000",
		Epoch:     "43",
	}
	mustApply(t, e, eventRecord(t, "Place", "0xlimit", 8, place, nil))

	kill := model.KillEventData{
		Owner:     place.Owner,
		Pool:      stablePool,
		Liquidity: "400000000000000000",
		Epoch:     "43",
	}
	mustApply(t, e, eventRecord(t, "Kill", "0xlimit", 9, kill, nil))

	order, _ := e.State().LimitOrder(limitOrderID("43", place.Owner))
	if order.Killed {
		t.Fatalf("order retired after killing 40%% of its liquidity")
	}

	// A second kill covering the rest of the initial liquidity retires it.
	kill.Liquidity = "600000000000000000"
	mustApply(t, e, eventRecord(t, "Kill", "0xlimit", 10, kill, nil))
	if !order.Killed {
		t.Fatalf("order should be killed once its full initial liquidity is killed")
	}
	if order.Liquidity.Sign() != 0 {
		t.Fatalf("order liquidity = %s, want 0", order.Liquidity)
	}

	epoch, _ := e.State().Epoch("43")
	if epoch.TotalLiquidity.Sign() != 0 {
		t.Fatalf("epoch liquidity = %s, want 0", epoch.TotalLiquidity)
	}
}

func TestEnginePoolCreatedReplayIdempotent(t *testing.T) {
	e := newTestEngine()
	created := eventRecord(t, "PoolCreated", "0xfactory", 1, model.PoolCreatedEventData{
		Token0: altToken,
		Token1: refToken,
		Pool:   "0x1111111111111111111111111111111111111111",
	}, nil)
	mustApply(t, e, created)
	mustApply(t, e, created)

	alt, _ := e.State().Token(altToken)
	if len(alt.WhitelistPools) != 1 {
		t.Fatalf("replayed creation duplicated whitelist pools: %v", alt.WhitelistPools)
	}
}

func TestEngineWhitelistedUserRecorded(t *testing.T) {
	e := newTestEngine()

	user := "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	mustApply(t, e, eventRecord(t, "Whitelisted", "0xwhitelist", 12, model.WhitelistedEventData{
		User: user,
	}, nil))

	got, ok := e.State().WhitelistedUser(user)
	if !ok {
		t.Fatalf("whitelisted user missing")
	}
	if got.User != "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Fatalf("user = %s, want lowercase address", got.User)
	}
	if got.BlockNumber != 12 || got.TxHash != "0xabc" {
		t.Fatalf("grant context = %+v", got)
	}

	changes := e.State().Changes()
	if len(changes.WhitelistedUsers) != 1 {
		t.Fatalf("expected one whitelisted user in changes, got %d", len(changes.WhitelistedUsers))
	}
}

type memStore struct {
	tokens      int
	pools       int
	bundles     int
	orders      int
	epochs      int
	limitOrders int
	whitelisted int
}

func (m *memStore) UpsertTokens(ctx context.Context, chainID uint64, tokens []*model.Token) error {
	m.tokens += len(tokens)
	return nil
}

func (m *memStore) UpsertPools(ctx context.Context, chainID uint64, pools []*model.Pool) error {
	m.pools += len(pools)
	return nil
}

func (m *memStore) UpsertBundle(ctx context.Context, chainID uint64, bundle *model.Bundle) error {
	m.bundles++
	return nil
}

func (m *memStore) UpsertOrders(ctx context.Context, chainID uint64, orders []*model.Order) error {
	m.orders += len(orders)
	return nil
}

func (m *memStore) UpsertEpochs(ctx context.Context, chainID uint64, epochs []*model.Epoch) error {
	m.epochs += len(epochs)
	return nil
}

func (m *memStore) UpsertLimitOrders(ctx context.Context, chainID uint64, orders []*model.LimitOrder) error {
	m.limitOrders += len(orders)
	return nil
}

func (m *memStore) UpsertWhitelistedUsers(ctx context.Context, chainID uint64, users []*model.WhitelistedUser) error {
	m.whitelisted += len(users)
	return nil
}

func TestEngineRunReplaysFileAndCheckpoints(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "typed.jsonl")
	statePath := filepath.Join(dir, "state.json")

	records := []model.TypedEventRecord{
		eventRecord(t, "PoolCreated", "0xfactory", 1, model.PoolCreatedEventData{
			Token0: stableCoin,
			Token1: refToken,
			Pool:   stablePool,
		}, nil),
		eventRecord(t, "Initialize", stablePool, 2, model.InitializeEventData{
			Price: sqrtPriceFour,
			Tick:  0,
		}, stablePoolMeta()),
		eventRecord(t, "Swap", stablePool, 3, model.SwapEventData{
			Amount0:   "100000000000000000000",
			Amount1:   "-25000000000000000000",
			Price:     sqrtPriceFour,
			Liquidity: "1000000000000000000",
			Tick:      0,
		}, stablePoolMeta()),
	}

	file, err := os.Create(inputPath)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal record: %v", err)
		}
		file.Write(line)
		file.Write([]byte("\n"))
	}
	file.Close()

	store := &memStore{}
	stateStore := &FileStateStore{Path: statePath}
	e := NewEngine(Config{BatchSize: 100, StateStore: stateStore}, testNetwork(), store, nil)

	if err := e.Run(context.Background(), inputPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.tokens == 0 || store.pools == 0 || store.bundles == 0 {
		t.Fatalf("expected commits, got %+v", store)
	}

	last, ok, err := stateStore.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("state load: %v ok=%v", err, ok)
	}
	if last != 3 {
		t.Fatalf("checkpoint = %d, want 3", last)
	}

	// A second replay over the same file starts past the checkpoint and
	// commits nothing new.
	store2 := &memStore{}
	e2 := NewEngine(Config{BatchSize: 100, StateStore: stateStore}, testNetwork(), store2, nil)
	if err := e2.Run(context.Background(), inputPath); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if store2.tokens != 0 || store2.pools != 0 {
		t.Fatalf("second run should skip all records, got %+v", store2)
	}
}
