package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"pricingScope/internal/model"
)

func TestEventDecoderSwap(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	poolMetaCache := NewPoolMetaCache()
	poolMetaCache.Set(pool, model.PoolMeta{
		Token0: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Token1: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Token0Meta: &model.TokenMeta{
			Address:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			Decimals: 18,
			Symbol:   "WETH",
		},
		Token1Meta: &model.TokenMeta{
			Address:  "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Decimals: 6,
			Symbol:   "USDC",
		},
	})

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	ctx := DecodeContext{
		PoolMetaCache: poolMetaCache,
		Logger:        zap.NewNop(),
	}

	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := poolABI.Events["Swap"].Inputs.NonIndexed().Pack(
		big.NewInt(-1000),
		big.NewInt(2000),
		big.NewInt(123456789),
		big.NewInt(987654321),
		big.NewInt(-15),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(pool, poolABI.Events["Swap"].ID, data, []common.Hash{
		topicFromAddress(sender),
		topicFromAddress(recipient),
	})

	event, err := decoder.Decode(logRecord, ctx)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}

	if swap.Amount0 != "-1000" || swap.Amount1 != "2000" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.Price != "123456789" || swap.Liquidity != "987654321" {
		t.Fatalf("price state mismatch: %+v", swap)
	}
	if swap.Tick != -15 {
		t.Fatalf("tick mismatch: %d", swap.Tick)
	}
	if swap.Sender != sender.Hex() || swap.Recipient != recipient.Hex() {
		t.Fatalf("address mismatch")
	}
	if event.PoolMeta == nil || event.PoolMeta.Token0Meta == nil {
		t.Fatalf("pool meta missing")
	}
	if event.PoolMeta.Token1Meta.Decimals != 6 {
		t.Fatalf("token meta mismatch: %+v", event.PoolMeta.Token1Meta)
	}
}

func TestEventDecoderMintBurnInitialize(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	poolMetaCache := NewPoolMetaCache()
	poolMetaCache.Set(pool, model.PoolMeta{
		Token0: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Token1: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	})

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	ctx := DecodeContext{
		PoolMetaCache: poolMetaCache,
		Logger:        zap.NewNop(),
	}

	sender := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	owner := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	mintData, err := poolABI.Events["Mint"].Inputs.NonIndexed().Pack(
		sender,
		big.NewInt(5000),
		big.NewInt(100),
		big.NewInt(200),
	)
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}

	mintLog := buildLogRecord(pool, poolABI.Events["Mint"].ID, mintData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-120),
		topicFromInt24(120),
	})

	mintEvent, err := decoder.Decode(mintLog, ctx)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}

	mint, ok := mintEvent.Decoded.(model.MintEventData)
	if !ok {
		t.Fatalf("mint type mismatch")
	}
	if mint.BottomTick != -120 || mint.TopTick != 120 {
		t.Fatalf("mint tick mismatch: %+v", mint)
	}
	if mint.LiquidityAmount != "5000" {
		t.Fatalf("mint liquidity mismatch: %+v", mint)
	}

	burnData, err := poolABI.Events["Burn"].Inputs.NonIndexed().Pack(
		big.NewInt(7000),
		big.NewInt(300),
		big.NewInt(400),
	)
	if err != nil {
		t.Fatalf("pack burn: %v", err)
	}

	burnLog := buildLogRecord(pool, poolABI.Events["Burn"].ID, burnData, []common.Hash{
		topicFromAddress(owner),
		topicFromInt24(-60),
		topicFromInt24(60),
	})

	burnEvent, err := decoder.Decode(burnLog, ctx)
	if err != nil {
		t.Fatalf("decode burn: %v", err)
	}

	burn, ok := burnEvent.Decoded.(model.BurnEventData)
	if !ok {
		t.Fatalf("burn type mismatch")
	}
	if burn.LiquidityAmount != "7000" {
		t.Fatalf("burn amount mismatch: %+v", burn)
	}

	initData, err := poolABI.Events["Initialize"].Inputs.NonIndexed().Pack(
		big.NewInt(79228162514264337),
		big.NewInt(-201000),
	)
	if err != nil {
		t.Fatalf("pack initialize: %v", err)
	}

	initLog := buildLogRecord(pool, poolABI.Events["Initialize"].ID, initData, nil)

	initEvent, err := decoder.Decode(initLog, ctx)
	if err != nil {
		t.Fatalf("decode initialize: %v", err)
	}

	initialize, ok := initEvent.Decoded.(model.InitializeEventData)
	if !ok {
		t.Fatalf("initialize type mismatch")
	}
	if initialize.Price != "79228162514264337" || initialize.Tick != -201000 {
		t.Fatalf("initialize mismatch: %+v", initialize)
	}
}

func TestEventDecoderPoolCreated(t *testing.T) {
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	factory := common.HexToAddress("0x4444444444444444444444444444444444444444")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	pool := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	data, err := factoryABI.Events["Pool"].Inputs.NonIndexed().Pack(pool)
	if err != nil {
		t.Fatalf("pack pool created: %v", err)
	}

	logRecord := buildLogRecord(factory, factoryABI.Events["Pool"].ID, data, []common.Hash{
		topicFromAddress(token0),
		topicFromAddress(token1),
	})

	event, err := decoder.Decode(logRecord, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode pool created: %v", err)
	}
	if event.EventName != "PoolCreated" {
		t.Fatalf("event name mismatch: %s", event.EventName)
	}
	if event.PoolMeta != nil {
		t.Fatalf("factory events should carry no pool meta")
	}

	created, ok := event.Decoded.(model.PoolCreatedEventData)
	if !ok {
		t.Fatalf("pool created type mismatch")
	}
	if created.Token0 != token0.Hex() || created.Token1 != token1.Hex() || created.Pool != pool.Hex() {
		t.Fatalf("pool created mismatch: %+v", created)
	}
}

func TestEventDecoderResolved(t *testing.T) {
	hubABI, err := LiquidityHubABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	hub := common.HexToAddress("0x5555555555555555555555555555555555555555")
	swapper := common.HexToAddress("0x6666666666666666666666666666666666666666")
	ref := common.HexToAddress("0x7777777777777777777777777777777777777777")
	inToken := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	outToken := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	orderHash := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000ff")

	data, err := hubABI.Events["Resolved"].Inputs.NonIndexed().Pack(
		ref,
		inToken,
		outToken,
		big.NewInt(1_000_000),
		big.NewInt(2_000_000),
	)
	if err != nil {
		t.Fatalf("pack resolved: %v", err)
	}

	logRecord := buildLogRecord(hub, hubABI.Events["Resolved"].ID, data, []common.Hash{
		orderHash,
		topicFromAddress(swapper),
	})

	event, err := decoder.Decode(logRecord, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode resolved: %v", err)
	}

	resolved, ok := event.Decoded.(model.ResolvedEventData)
	if !ok {
		t.Fatalf("resolved type mismatch")
	}
	if resolved.OrderHash != orderHash.Hex() || resolved.Swapper != swapper.Hex() {
		t.Fatalf("resolved identity mismatch: %+v", resolved)
	}
	if resolved.InAmount != "1000000" || resolved.OutAmount != "2000000" {
		t.Fatalf("resolved amounts mismatch: %+v", resolved)
	}
}

func TestEventDecoderLimitOrderEvents(t *testing.T) {
	limitABI, err := LimitOrderABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	contract := common.HexToAddress("0x8888888888888888888888888888888888888888")
	owner := common.HexToAddress("0x6666666666666666666666666666666666666666")
	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")

	placeData, err := limitABI.Events["Place"].Inputs.NonIndexed().Pack(
		big.NewInt(-600),
		big.NewInt(-540),
		true,
		big.NewInt(123456),
		big.NewInt(42),
	)
	if err != nil {
		t.Fatalf("pack place: %v", err)
	}

	placeLog := buildLogRecord(contract, limitABI.Events["Place"].ID, placeData, []common.Hash{
		topicFromAddress(owner),
		topicFromAddress(pool),
	})

	placeEvent, err := decoder.Decode(placeLog, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode place: %v", err)
	}

	place, ok := placeEvent.Decoded.(model.PlaceEventData)
	if !ok {
		t.Fatalf("place type mismatch")
	}
	if place.TickLower != -600 || place.TickUpper != -540 || !place.ZeroToOne {
		t.Fatalf("place mismatch: %+v", place)
	}
	if place.Liquidity != "123456" || place.Epoch != "42" {
		t.Fatalf("place amounts mismatch: %+v", place)
	}

	fillLog := buildLogRecord(contract, limitABI.Events["Fill"].ID, nil, []common.Hash{
		common.BigToHash(big.NewInt(42)),
	})

	fillEvent, err := decoder.Decode(fillLog, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode fill: %v", err)
	}
	fill, ok := fillEvent.Decoded.(model.FillEventData)
	if !ok {
		t.Fatalf("fill type mismatch")
	}
	if fill.Epoch != "42" {
		t.Fatalf("fill epoch mismatch: %+v", fill)
	}

	withdrawData, err := limitABI.Events["Withdraw"].Inputs.NonIndexed().Pack(
		big.NewInt(123456),
		big.NewInt(42),
	)
	if err != nil {
		t.Fatalf("pack withdraw: %v", err)
	}

	withdrawLog := buildLogRecord(contract, limitABI.Events["Withdraw"].ID, withdrawData, []common.Hash{
		topicFromAddress(owner),
	})

	withdrawEvent, err := decoder.Decode(withdrawLog, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode withdraw: %v", err)
	}
	withdraw, ok := withdrawEvent.Decoded.(model.WithdrawEventData)
	if !ok {
		t.Fatalf("withdraw type mismatch")
	}
	if withdraw.Owner != owner.Hex() || withdraw.Liquidity != "123456" {
		t.Fatalf("withdraw mismatch: %+v", withdraw)
	}
}

func TestEventDecoderWhitelisted(t *testing.T) {
	whitelistABI, err := WhitelistABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewEventDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	contract := common.HexToAddress("0x1212121212121212121212121212121212121212")
	user := common.HexToAddress("0x3434343434343434343434343434343434343434")

	logRecord := buildLogRecord(contract, whitelistABI.Events["Whitelisted"].ID, nil, []common.Hash{
		topicFromAddress(user),
	})

	event, err := decoder.Decode(logRecord, DecodeContext{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("decode whitelisted: %v", err)
	}
	if event.EventName != "Whitelisted" {
		t.Fatalf("event name mismatch: %s", event.EventName)
	}
	if event.PoolMeta != nil {
		t.Fatalf("whitelist events should carry no pool meta")
	}

	whitelisted, ok := event.Decoded.(model.WhitelistedEventData)
	if !ok {
		t.Fatalf("whitelisted type mismatch")
	}
	if whitelisted.User != user.Hex() {
		t.Fatalf("whitelisted user mismatch: %+v", whitelisted)
	}
}

func buildLogRecord(contract common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     48900,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		TxIndex:     3,
		LogIndex:    1,
		Address:     contract.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func topicFromInt24(value int32) common.Hash {
	bigVal := big.NewInt(int64(value))
	if value < 0 {
		bigVal = new(big.Int).Add(bigVal, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.BigToHash(bigVal)
}
