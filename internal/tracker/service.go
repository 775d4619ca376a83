package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"claimscope/internal/enrich"
	"claimscope/internal/fetch"
	"claimscope/internal/model"
	"claimscope/internal/sale"
)

// Config holds runtime settings for a scan.
type Config struct {
	Contract     common.Address
	FromBlock    uint64
	ToBlock      uint64 // 0 means latest
	WindowSize   uint64
	Workers      int
	FetchTimeout time.Duration
	ReadTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// ChainSource is the slice of the provider the service depends on.
type ChainSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, contract common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Service runs the scan pipeline: fetch logs, decode, aggregate, enrich.
// It holds no mutable cross-run state; every Refresh re-derives statistics
// from the event log.
type Service struct {
	cfg     Config
	source  ChainSource
	reader  enrich.Reader
	decoder *sale.Decoder
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// NewService builds a Service with its dependencies.
func NewService(cfg Config, source ChainSource, reader enrich.Reader, logger *zap.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("chain source is nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	if cfg.WindowSize == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	decoder, err := sale.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}

	topics := decoder.Topics()
	logSource := fetch.LogSourceFunc(func(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
		return source.FilterLogs(ctx, fromBlock, toBlock, cfg.Contract, topics)
	})

	return &Service{
		cfg:     cfg,
		source:  source,
		reader:  reader,
		decoder: decoder,
		fetcher: fetch.NewFetcher(logSource, cfg.FetchTimeout, logger),
		logger:  logger,
	}, nil
}

// Refresh scans the configured block range and returns a new snapshot.
func (s *Service) Refresh(ctx context.Context) (*model.Snapshot, error) {
	from := s.cfg.FromBlock
	to := s.cfg.ToBlock
	if to == 0 {
		latest, err := s.source.LatestBlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if from > to {
		s.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("to", to))
		return &model.Snapshot{ProducedAt: time.Now().UTC()}, nil
	}

	windows, err := fetch.Windows(from, to, s.cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	tally := sale.NewTally()
	for _, window := range windows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var logs []types.Log
		err := fetch.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
			var fetchErr error
			logs, fetchErr = s.fetcher.Fetch(ctx, window.From, window.To)
			if fetchErr != nil {
				s.logger.Warn("fetch window failed",
					zap.Uint64("from", window.From),
					zap.Uint64("to", window.To),
					zap.Error(fetchErr),
				)
			}
			return fetchErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch window %d-%d: %w", window.From, window.To, err)
		}

		decoded := 0
		for _, log := range logs {
			event, ok := s.decoder.Decode(log)
			if !ok {
				continue
			}
			tally.Apply(event)
			decoded++
		}

		s.logger.Info("window complete",
			zap.Uint64("from", window.From),
			zap.Uint64("to", window.To),
			zap.Int("logs", len(logs)),
			zap.Int("decoded", decoded),
		)
	}

	rows := tally.Rows()
	enrich.Enrich(ctx, rows, s.reader, enrich.Config{
		Workers:     s.cfg.Workers,
		ReadTimeout: s.cfg.ReadTimeout,
	}, s.logger)

	s.logger.Info("scan complete",
		zap.Int("accounts", len(rows)),
		zap.Uint64("skipped_records", s.decoder.Skipped()),
	)

	return &model.Snapshot{Rows: rows, ProducedAt: time.Now().UTC()}, nil
}
