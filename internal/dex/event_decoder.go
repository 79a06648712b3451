package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"pricingScope/internal/model"
)

// eventBinding ties a topic0 to its event name and the contract ABI that
// owns it. Pool-scoped events get pool metadata attached during decoding.
type eventBinding struct {
	name       string
	event      abi.Event
	poolScoped bool
}

// EventDecoder decodes factory, Algebra pool, liquidity-hub, and limit-order
// events into typed payloads.
type EventDecoder struct {
	bindings map[string]eventBinding
}

// NewEventDecoder builds a decoder covering every tracked contract event.
func NewEventDecoder() (*EventDecoder, error) {
	factoryABI, err := FactoryABI()
	if err != nil {
		return nil, err
	}
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	hubABI, err := LiquidityHubABI()
	if err != nil {
		return nil, err
	}
	limitABI, err := LimitOrderABI()
	if err != nil {
		return nil, err
	}
	whitelistABI, err := WhitelistABI()
	if err != nil {
		return nil, err
	}

	bindings := make(map[string]eventBinding)
	add := func(parsed abi.ABI, abiName, name string, poolScoped bool) {
		event := parsed.Events[abiName]
		bindings[strings.ToLower(event.ID.Hex())] = eventBinding{
			name:       name,
			event:      event,
			poolScoped: poolScoped,
		}
	}

	add(factoryABI, "Pool", "PoolCreated", false)
	add(poolABI, "Initialize", "Initialize", true)
	add(poolABI, "Swap", "Swap", true)
	add(poolABI, "Mint", "Mint", true)
	add(poolABI, "Burn", "Burn", true)
	add(hubABI, "Resolved", "Resolved", false)
	add(limitABI, "Place", "Place", false)
	add(limitABI, "Fill", "Fill", false)
	add(limitABI, "Kill", "Kill", false)
	add(limitABI, "Withdraw", "Withdraw", false)
	add(whitelistABI, "Whitelisted", "Whitelisted", false)

	return &EventDecoder{bindings: bindings}, nil
}

// Topics returns the topic0 hash of every supported event, for log filters.
func (d *EventDecoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.bindings))
	for _, binding := range d.bindings {
		out = append(out, binding.event.ID)
	}
	return out
}

// CanDecode checks if the topic0 is supported.
func (d *EventDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.bindings[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *EventDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	binding, ok := d.bindings[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid contract address: %s", log.Address)
	}

	var poolMeta *model.PoolMeta
	if binding.poolScoped {
		meta, err := getPoolMeta(ctx, common.HexToAddress(log.Address), log.BlockNumber)
		if err != nil {
			return nil, err
		}
		poolMeta = &meta
	}

	decoded, err := d.decodePayload(binding, log)
	if err != nil {
		return nil, err
	}
	return buildTypedEvent(log, binding.name, decoded, poolMeta), nil
}

func (d *EventDecoder) decodePayload(binding eventBinding, log model.LogRecord) (interface{}, error) {
	switch binding.name {
	case "PoolCreated":
		return decodePoolCreated(binding.event, log)
	case "Initialize":
		return decodeInitialize(binding.event, log)
	case "Swap":
		return decodeSwap(binding.event, log)
	case "Mint":
		return decodeMint(binding.event, log)
	case "Burn":
		return decodeBurn(binding.event, log)
	case "Resolved":
		return decodeResolved(binding.event, log)
	case "Place":
		return decodePlace(binding.event, log)
	case "Fill":
		return decodeFill(binding.event, log)
	case "Kill":
		return decodeKill(binding.event, log)
	case "Withdraw":
		return decodeWithdraw(binding.event, log)
	case "Whitelisted":
		return decodeWhitelisted(binding.event, log)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", binding.name)
	}
}

func getPoolMeta(ctx DecodeContext, pool common.Address, blockNumber uint64) (model.PoolMeta, error) {
	var meta model.PoolMeta
	var ok bool
	if ctx.PoolMetaCache != nil {
		meta, ok = ctx.PoolMetaCache.Get(pool)
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}

	if !ok {
		if ctx.Chain == nil {
			return model.PoolMeta{}, fmt.Errorf("chain client is nil")
		}
		var err error
		meta, err = FetchPoolMeta(callCtx, ctx.Chain, pool, ctx.TokenMetaCache, ctx.Logger)
		if err != nil {
			return model.PoolMeta{}, err
		}
		if ctx.PoolMetaCache != nil {
			ctx.PoolMetaCache.Set(pool, meta)
		}
	}

	if ctx.IncludeLiveMeta && ctx.Chain != nil {
		if optional, err := FetchPoolOptionalMeta(callCtx, ctx.Chain, pool, blockNumber, ctx.Logger); err == nil {
			if optional.Liquidity != "" {
				meta.Liquidity = optional.Liquidity
			}
			if optional.GlobalState != nil {
				meta.GlobalState = optional.GlobalState
			}
		}
	}
	return meta, nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta *model.PoolMeta) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     log.TxIndex,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		PoolMeta:    meta,
		Raw:         raw,
	}
}

func decodePoolCreated(event abi.Event, log model.LogRecord) (model.PoolCreatedEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}

	var indexed struct {
		Token0 common.Address
		Token1 common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.PoolCreatedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}
	if len(values) != 1 {
		return model.PoolCreatedEventData{}, fmt.Errorf("unexpected pool created values: %d", len(values))
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return model.PoolCreatedEventData{}, err
	}

	return model.PoolCreatedEventData{
		Token0: indexed.Token0.Hex(),
		Token1: indexed.Token1.Hex(),
		Pool:   pool.Hex(),
	}, nil
}

func decodeInitialize(event abi.Event, log model.LogRecord) (model.InitializeEventData, error) {
	if _, err := parseIndexedTopics(event, log.Topics); err != nil {
		return model.InitializeEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.InitializeEventData{}, err
	}
	if len(values) != 2 {
		return model.InitializeEventData{}, fmt.Errorf("unexpected initialize values: %d", len(values))
	}

	price, err := asBigInt(values[0])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.InitializeEventData{}, err
	}

	return model.InitializeEventData{
		Price: price.String(),
		Tick:  tick,
	}, nil
}

func decodeSwap(event abi.Event, log model.LogRecord) (model.SwapEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	var indexed struct {
		Sender    common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 5 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	price, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEventData{}, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tickInt, err := asBigInt(values[4])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Sender:    indexed.Sender.Hex(),
		Recipient: indexed.Recipient.Hex(),
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
		Price:     price.String(),
		Liquidity: liquidity.String(),
		Tick:      tick,
	}, nil
}

func decodeMint(event abi.Event, log model.LogRecord) (model.MintEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.MintEventData{}, err
	}

	var indexed struct {
		Owner      common.Address
		BottomTick *big.Int
		TopTick    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.MintEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.MintEventData{}, err
	}
	if len(values) != 4 {
		return model.MintEventData{}, fmt.Errorf("unexpected mint values: %d", len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return model.MintEventData{}, err
	}
	liquidityAmount, err := asBigInt(values[1])
	if err != nil {
		return model.MintEventData{}, err
	}
	amount0, err := asBigInt(values[2])
	if err != nil {
		return model.MintEventData{}, err
	}
	amount1, err := asBigInt(values[3])
	if err != nil {
		return model.MintEventData{}, err
	}

	bottomTick, err := int24FromBig(indexed.BottomTick)
	if err != nil {
		return model.MintEventData{}, err
	}
	topTick, err := int24FromBig(indexed.TopTick)
	if err != nil {
		return model.MintEventData{}, err
	}

	return model.MintEventData{
		Sender:          sender.Hex(),
		Owner:           indexed.Owner.Hex(),
		BottomTick:      bottomTick,
		TopTick:         topTick,
		LiquidityAmount: liquidityAmount.String(),
		Amount0:         amount0.String(),
		Amount1:         amount1.String(),
	}, nil
}

func decodeBurn(event abi.Event, log model.LogRecord) (model.BurnEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.BurnEventData{}, err
	}

	var indexed struct {
		Owner      common.Address
		BottomTick *big.Int
		TopTick    *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.BurnEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.BurnEventData{}, err
	}
	if len(values) != 3 {
		return model.BurnEventData{}, fmt.Errorf("unexpected burn values: %d", len(values))
	}

	liquidityAmount, err := asBigInt(values[0])
	if err != nil {
		return model.BurnEventData{}, err
	}
	amount0, err := asBigInt(values[1])
	if err != nil {
		return model.BurnEventData{}, err
	}
	amount1, err := asBigInt(values[2])
	if err != nil {
		return model.BurnEventData{}, err
	}

	bottomTick, err := int24FromBig(indexed.BottomTick)
	if err != nil {
		return model.BurnEventData{}, err
	}
	topTick, err := int24FromBig(indexed.TopTick)
	if err != nil {
		return model.BurnEventData{}, err
	}

	return model.BurnEventData{
		Owner:           indexed.Owner.Hex(),
		BottomTick:      bottomTick,
		TopTick:         topTick,
		LiquidityAmount: liquidityAmount.String(),
		Amount0:         amount0.String(),
		Amount1:         amount1.String(),
	}, nil
}

func decodeResolved(event abi.Event, log model.LogRecord) (model.ResolvedEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.ResolvedEventData{}, err
	}

	var indexed struct {
		OrderHash common.Hash
		Swapper   common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.ResolvedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.ResolvedEventData{}, err
	}
	if len(values) != 5 {
		return model.ResolvedEventData{}, fmt.Errorf("unexpected resolved values: %d", len(values))
	}

	ref, err := asAddress(values[0])
	if err != nil {
		return model.ResolvedEventData{}, err
	}
	inToken, err := asAddress(values[1])
	if err != nil {
		return model.ResolvedEventData{}, err
	}
	outToken, err := asAddress(values[2])
	if err != nil {
		return model.ResolvedEventData{}, err
	}
	inAmount, err := asBigInt(values[3])
	if err != nil {
		return model.ResolvedEventData{}, err
	}
	outAmount, err := asBigInt(values[4])
	if err != nil {
		return model.ResolvedEventData{}, err
	}

	return model.ResolvedEventData{
		OrderHash: indexed.OrderHash.Hex(),
		Swapper:   indexed.Swapper.Hex(),
		Ref:       ref.Hex(),
		InToken:   inToken.Hex(),
		OutToken:  outToken.Hex(),
		InAmount:  inAmount.String(),
		OutAmount: outAmount.String(),
	}, nil
}

func decodePlace(event abi.Event, log model.LogRecord) (model.PlaceEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.PlaceEventData{}, err
	}

	var indexed struct {
		Owner common.Address
		Pool  common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.PlaceEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.PlaceEventData{}, err
	}
	if len(values) != 5 {
		return model.PlaceEventData{}, fmt.Errorf("unexpected place values: %d", len(values))
	}

	tickLowerInt, err := asBigInt(values[0])
	if err != nil {
		return model.PlaceEventData{}, err
	}
	tickUpperInt, err := asBigInt(values[1])
	if err != nil {
		return model.PlaceEventData{}, err
	}
	zeroToOne, ok := values[2].(bool)
	if !ok {
		return model.PlaceEventData{}, fmt.Errorf("unsupported bool type %T", values[2])
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.PlaceEventData{}, err
	}
	epoch, err := asBigInt(values[4])
	if err != nil {
		return model.PlaceEventData{}, err
	}

	tickLower, err := int24FromBig(tickLowerInt)
	if err != nil {
		return model.PlaceEventData{}, err
	}
	tickUpper, err := int24FromBig(tickUpperInt)
	if err != nil {
		return model.PlaceEventData{}, err
	}

	return model.PlaceEventData{
		Owner:     indexed.Owner.Hex(),
		Pool:      indexed.Pool.Hex(),
		TickLower: tickLower,
		TickUpper: tickUpper,
		ZeroToOne: zeroToOne,
		Liquidity: liquidity.String(),
		Epoch:     epoch.String(),
	}, nil
}

func decodeFill(event abi.Event, log model.LogRecord) (model.FillEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.FillEventData{}, err
	}

	var indexed struct {
		Epoch *big.Int
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.FillEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	return model.FillEventData{Epoch: indexed.Epoch.String()}, nil
}

func decodeKill(event abi.Event, log model.LogRecord) (model.KillEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.KillEventData{}, err
	}

	var indexed struct {
		Owner common.Address
		Pool  common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.KillEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.KillEventData{}, err
	}
	if len(values) != 2 {
		return model.KillEventData{}, fmt.Errorf("unexpected kill values: %d", len(values))
	}

	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.KillEventData{}, err
	}
	epoch, err := asBigInt(values[1])
	if err != nil {
		return model.KillEventData{}, err
	}

	return model.KillEventData{
		Owner:     indexed.Owner.Hex(),
		Pool:      indexed.Pool.Hex(),
		Liquidity: liquidity.String(),
		Epoch:     epoch.String(),
	}, nil
}

func decodeWithdraw(event abi.Event, log model.LogRecord) (model.WithdrawEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.WithdrawEventData{}, err
	}

	var indexed struct {
		Owner common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.WithdrawEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.WithdrawEventData{}, err
	}
	if len(values) != 2 {
		return model.WithdrawEventData{}, fmt.Errorf("unexpected withdraw values: %d", len(values))
	}

	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.WithdrawEventData{}, err
	}
	epoch, err := asBigInt(values[1])
	if err != nil {
		return model.WithdrawEventData{}, err
	}

	return model.WithdrawEventData{
		Owner:     indexed.Owner.Hex(),
		Liquidity: liquidity.String(),
		Epoch:     epoch.String(),
	}, nil
}

func decodeWhitelisted(event abi.Event, log model.LogRecord) (model.WhitelistedEventData, error) {
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.WhitelistedEventData{}, err
	}

	var indexed struct {
		User common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.WhitelistedEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	return model.WhitelistedEventData{User: indexed.User.Hex()}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
