package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// LogSource retrieves logs for an inclusive block range. The contract
// address and topic filters are bound by the caller.
type LogSource interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)
}

// LogSourceFunc adapts a function to the LogSource interface.
type LogSourceFunc func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)

// FilterLogs implements LogSource.
func (f LogSourceFunc) FilterLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	return f(ctx, fromBlock, toBlock)
}

// Fetcher retrieves all logs in a block range, transparently recovering
// from provider capacity-exceeded errors by splitting the range.
type Fetcher struct {
	source  LogSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewFetcher builds a Fetcher. timeout bounds each individual request;
// zero disables the per-request timeout.
func NewFetcher(source LogSource, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:  source,
		timeout: timeout,
		logger:  logger,
	}
}

// Outcome of a single range query. Capacity errors become outcomeSplit and
// never surface past the fetcher; everything else is fatal for the range.
type queryOutcome struct {
	kind outcomeKind
	logs []types.Log
	err  error
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeSplit
	outcomeFatal
)

// Fetch returns every log in [from, to]. An empty (inverted) range yields
// no logs and issues no request. The returned order is unspecified across
// range splits; callers must not depend on it.
func (f *Fetcher) Fetch(ctx context.Context, from, to uint64) ([]types.Log, error) {
	if from > to {
		return nil, nil
	}

	var out []types.Log
	pending := []BlockRange{{From: from, To: to}}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		res := f.query(ctx, r)
		switch res.kind {
		case outcomeOK:
			out = append(out, res.logs...)
		case outcomeSplit:
			next, err := split(r, res.err)
			if err != nil {
				return nil, err
			}
			f.logger.Debug("capacity exceeded, splitting range",
				zap.Uint64("from", r.From),
				zap.Uint64("to", r.To),
				zap.Uint64("split_from", next[0].From),
				zap.Uint64("split_to", next[0].To),
			)
			pending = append(pending, next...)
		case outcomeFatal:
			return nil, res.err
		}
	}

	return out, nil
}

func (f *Fetcher) query(ctx context.Context, r BlockRange) queryOutcome {
	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	logs, err := f.source.FilterLogs(callCtx, r.From, r.To)
	if err == nil {
		return queryOutcome{kind: outcomeOK, logs: logs}
	}
	if isCapacityError(err) {
		return queryOutcome{kind: outcomeSplit, err: err}
	}
	return queryOutcome{kind: outcomeFatal, err: fmt.Errorf("filter logs %d-%d: %w", r.From, r.To, err)}
}

// split derives the sub-ranges to retry after a capacity error. A provider
// range hint is preferred over bisection when it narrows the same range;
// a single block that still exceeds capacity cannot be split further.
func split(r BlockRange, cause error) ([]BlockRange, error) {
	if r.From == r.To {
		return nil, fmt.Errorf("capacity exceeded for single block %d: %w", r.From, cause)
	}

	if hint, ok := suggestedRange(cause); ok && hint.From == r.From && hint.To < r.To {
		return []BlockRange{
			{From: hint.To + 1, To: r.To},
			hint,
		}, nil
	}

	mid := r.From + (r.To-r.From)/2
	return []BlockRange{
		{From: mid + 1, To: r.To},
		{From: r.From, To: mid},
	}, nil
}
