package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricingScope/internal/model"
)

// Store provides Postgres persistence for valuation entities.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// UpsertTokens inserts or updates tracked tokens.
func (s *Store) UpsertTokens(ctx context.Context, chainID uint64, tokens []*model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (
				chain_id, address, symbol, name, decimals, derived_native,
				volume, volume_usd, untracked_volume_usd, total_value_locked, tx_count,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (chain_id, address)
			DO UPDATE SET
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				decimals = EXCLUDED.decimals,
				derived_native = EXCLUDED.derived_native,
				volume = EXCLUDED.volume,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				total_value_locked = EXCLUDED.total_value_locked,
				tx_count = EXCLUDED.tx_count,
				updated_at = now()
		`,
			int64(chainID),
			token.ID,
			token.Symbol,
			token.Name,
			token.Decimals,
			token.DerivedNative.String(),
			token.Volume.String(),
			token.VolumeUSD.String(),
			token.UntrackedVolumeUSD.String(),
			token.TotalValueLocked.String(),
			int64(token.TxCount),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range tokens {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates pools.
func (s *Store) UpsertPools(ctx context.Context, chainID uint64, pools []*model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, address, token0, token1, liquidity, sqrt_price, tick,
				token0_price, token1_price,
				tvl_token0, tvl_token1, tvl_native, tvl_usd,
				volume_token0, volume_token1, volume_usd, untracked_volume_usd,
				tx_count, created_at_block, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (chain_id, address)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				sqrt_price = EXCLUDED.sqrt_price,
				tick = EXCLUDED.tick,
				token0_price = EXCLUDED.token0_price,
				token1_price = EXCLUDED.token1_price,
				tvl_token0 = EXCLUDED.tvl_token0,
				tvl_token1 = EXCLUDED.tvl_token1,
				tvl_native = EXCLUDED.tvl_native,
				tvl_usd = EXCLUDED.tvl_usd,
				volume_token0 = EXCLUDED.volume_token0,
				volume_token1 = EXCLUDED.volume_token1,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				tx_count = EXCLUDED.tx_count,
				created_at_block = LEAST(pools.created_at_block, EXCLUDED.created_at_block),
				updated_at = now()
		`,
			int64(chainID),
			pool.ID,
			pool.Token0,
			pool.Token1,
			bigString(pool.Liquidity),
			bigString(pool.SqrtPrice),
			pool.Tick,
			pool.Token0Price.String(),
			pool.Token1Price.String(),
			pool.TotalValueLockedToken0.String(),
			pool.TotalValueLockedToken1.String(),
			pool.TotalValueLockedNative.String(),
			pool.TotalValueLockedUSD.String(),
			pool.VolumeToken0.String(),
			pool.VolumeToken1.String(),
			pool.VolumeUSD.String(),
			pool.UntrackedVolumeUSD.String(),
			int64(pool.TxCount),
			int64(pool.CreatedAtBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertBundle saves the reference-unit USD rate.
func (s *Store) UpsertBundle(ctx context.Context, chainID uint64, bundle *model.Bundle) error {
	if bundle == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bundles (chain_id, id, native_price_usd, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id, id) DO UPDATE
		SET native_price_usd = EXCLUDED.native_price_usd, updated_at = now()
	`, int64(chainID), bundle.ID, bundle.NativePriceUSD.String())
	return err
}

// UpsertOrders inserts resolved hub orders. Orders are immutable once
// resolved, so conflicts leave the stored row untouched.
func (s *Store) UpsertOrders(ctx context.Context, chainID uint64, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, order := range orders {
		batch.Queue(`
			INSERT INTO orders (
				chain_id, id, tx_hash, block_number, ts, swapper, ref,
				in_token, out_token, in_amount, out_amount, out_amount_usd, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
			ON CONFLICT (chain_id, id) DO NOTHING
		`,
			int64(chainID),
			order.ID,
			order.TxHash,
			int64(order.BlockNumber),
			int64(order.Timestamp),
			order.Swapper,
			order.Ref,
			order.InToken,
			order.OutToken,
			bigString(order.InAmount),
			bigString(order.OutAmount),
			order.OutAmountUSD.String(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range orders {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEpochs inserts or updates limit-order epochs.
func (s *Store) UpsertEpochs(ctx context.Context, chainID uint64, epochs []*model.Epoch) error {
	if len(epochs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, epoch := range epochs {
		batch.Queue(`
			INSERT INTO epochs (chain_id, id, pool, filled, total_liquidity, updated_at)
			VALUES ($1,$2,$3,$4,$5,now())
			ON CONFLICT (chain_id, id)
			DO UPDATE SET
				filled = EXCLUDED.filled,
				total_liquidity = EXCLUDED.total_liquidity,
				updated_at = now()
		`,
			int64(chainID),
			epoch.ID,
			epoch.Pool,
			epoch.Filled,
			bigString(epoch.TotalLiquidity),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range epochs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertLimitOrders inserts or updates limit orders.
func (s *Store) UpsertLimitOrders(ctx context.Context, chainID uint64, orders []*model.LimitOrder) error {
	if len(orders) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, order := range orders {
		batch.Queue(`
			INSERT INTO limit_orders (
				chain_id, id, owner, pool, tick_lower, tick_upper, zero_to_one,
				epoch, liquidity, initial_liquidity, killed_liquidity, killed,
				amount0, amount1, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (chain_id, id)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				initial_liquidity = EXCLUDED.initial_liquidity,
				killed_liquidity = EXCLUDED.killed_liquidity,
				killed = EXCLUDED.killed,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				updated_at = now()
		`,
			int64(chainID),
			order.ID,
			order.Owner,
			order.Pool,
			order.TickLower,
			order.TickUpper,
			order.ZeroToOne,
			order.Epoch,
			bigString(order.Liquidity),
			bigString(order.InitialLiquidity),
			bigString(order.KilledLiquidity),
			order.Killed,
			order.Amount0.String(),
			order.Amount1.String(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range orders {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWhitelistedUsers inserts or updates whitelisted addresses. The stored
// row reflects the most recent grant.
func (s *Store) UpsertWhitelistedUsers(ctx context.Context, chainID uint64, users []*model.WhitelistedUser) error {
	if len(users) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, user := range users {
		batch.Queue(`
			INSERT INTO whitelisted_users (
				chain_id, id, user_address, tx_hash, block_number, ts, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,now())
			ON CONFLICT (chain_id, id)
			DO UPDATE SET
				tx_hash = EXCLUDED.tx_hash,
				block_number = EXCLUDED.block_number,
				ts = EXCLUDED.ts,
				updated_at = now()
		`,
			int64(chainID),
			user.ID,
			user.User,
			user.TxHash,
			int64(user.BlockNumber),
			int64(user.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range users {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM processor_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts the last processed block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processor_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, block)
	return err
}
