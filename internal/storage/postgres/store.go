package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"claimscope/internal/model"
)

// Store provides Postgres persistence for exported account stats.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a store to the given DSN.
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

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertAccountStats inserts or updates one row per account from a
// published snapshot.
func (s *Store) UpsertAccountStats(ctx context.Context, rows []*model.AccountStat, producedAt time.Time) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		var claimable *string
		if row.Claimable != nil {
			value := row.Claimable.String()
			claimable = &value
		}
		batch.Queue(`
			INSERT INTO account_stats (
				address, buy_count, claim_tx_count, units_claimed, amount_claimed,
				claimable, read_failed, produced_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (address)
			DO UPDATE SET
				buy_count = EXCLUDED.buy_count,
				claim_tx_count = EXCLUDED.claim_tx_count,
				units_claimed = EXCLUDED.units_claimed,
				amount_claimed = EXCLUDED.amount_claimed,
				claimable = EXCLUDED.claimable,
				read_failed = EXCLUDED.read_failed,
				produced_at = EXCLUDED.produced_at,
				updated_at = now()
		`,
			row.Address.Hex(),
			int64(row.BuyCount),
			int64(row.ClaimTxCount),
			row.UnitsClaimed.String(),
			row.AmountClaimed.String(),
			claimable,
			row.ReadFailed,
			producedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
