package enrich

import (
	"context"
	"math/big"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"claimscope/internal/model"
)

// Reader performs one live contract read for an account.
type Reader interface {
	Read(ctx context.Context, account common.Address) (*big.Int, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, account common.Address) (*big.Int, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, account common.Address) (*big.Int, error) {
	return f(ctx, account)
}

// Config tunes the enrichment pool.
type Config struct {
	// Workers caps concurrent reads.
	Workers int
	// ReadTimeout bounds each individual read; zero disables it.
	ReadTimeout time.Duration
}

const defaultWorkers = 8

type outcome struct {
	row   *model.AccountStat
	value *big.Int
	err   error
}

// Enrich reads the live claimable balance for every row through a bounded
// worker pool. A failed read marks only its own row; the batch always
// completes with one outcome per row.
func Enrich(ctx context.Context, rows []*model.AccountStat, reader Reader, cfg Config, logger *zap.Logger) {
	if len(rows) == 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// The pool lifetime is deliberately not bound to ctx: cancellation is
	// handled inside each task so every row resolves to a value or a
	// marker and Wait always returns.
	pool := pond.NewResultPool[outcome](workers)
	group := pool.NewGroup()

	for _, row := range rows {
		row := row
		group.Submit(func() outcome {
			if err := ctx.Err(); err != nil {
				return outcome{row: row, err: err}
			}
			readCtx := ctx
			if cfg.ReadTimeout > 0 {
				var cancel context.CancelFunc
				readCtx, cancel = context.WithTimeout(ctx, cfg.ReadTimeout)
				defer cancel()
			}
			value, err := reader.Read(readCtx, row.Address)
			return outcome{row: row, value: value, err: err}
		})
	}

	results, err := group.Wait()
	pool.StopAndWait()
	if err != nil {
		logger.Warn("enrichment group incomplete", zap.Error(err))
	}

	for _, res := range results {
		if res.row == nil {
			continue
		}
		if res.err != nil {
			res.row.ReadFailed = true
			logger.Warn("claimable read failed",
				zap.String("account", res.row.Address.Hex()),
				zap.Error(res.err),
			)
			continue
		}
		res.row.Claimable = res.value
	}
}
