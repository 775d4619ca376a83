package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimscope/internal/chain"
	"claimscope/internal/config"
	"claimscope/internal/enrich"
	"claimscope/internal/export"
	"claimscope/internal/model"
	"claimscope/internal/storage/postgres"
	"claimscope/internal/tracker"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, chainClient, sortKey, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	logger.Info("scan start",
		zap.String("contract", cfg.Contract),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("window_size", cfg.WindowSize),
		zap.Int("workers", cfg.Workers),
		zap.String("out", cfg.Out),
	)

	snapshot, err := service.Refresh(ctx)
	if err != nil {
		return err
	}

	return exportSnapshot(ctx, cfg, sortKey, snapshot, logger)
}

// buildService wires the chain client, claimable reader, and scan pipeline
// from configuration. Shared by scan and watch.
func buildService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*tracker.Service, *chain.Client, export.SortKey, error) {
	if cfg.RPCURL == "" {
		return nil, nil, "", fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Contract) {
		return nil, nil, "", fmt.Errorf("invalid contract address: %s", cfg.Contract)
	}
	contract := common.HexToAddress(cfg.Contract)

	sortKey, err := export.ParseSortKey(cfg.SortKey)
	if err != nil {
		return nil, nil, "", err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("connect rpc: %w", err)
	}

	reader, err := enrich.NewClaimableReader(chainClient, contract)
	if err != nil {
		chainClient.Close()
		return nil, nil, "", err
	}

	service, err := tracker.NewService(tracker.Config{
		Contract:     contract,
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		WindowSize:   cfg.WindowSize,
		Workers:      cfg.Workers,
		FetchTimeout: cfg.FetchTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, reader, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, "", err
	}

	return service, chainClient, sortKey, nil
}

func exportSnapshot(ctx context.Context, cfg config.Config, sortKey export.SortKey, snapshot *model.Snapshot, logger *zap.Logger) error {
	rows := export.Render(snapshot.Rows, sortKey, cfg.Limit)

	if err := export.WriteCSV(cfg.Out, rows, cfg.Scale); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info("export written",
		zap.String("out", cfg.Out),
		zap.Int("rows", len(rows)),
		zap.Time("produced_at", snapshot.ProducedAt),
	)

	if cfg.PGDSN == "" {
		return nil
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.UpsertAccountStats(ctx, rows, snapshot.ProducedAt); err != nil {
		return fmt.Errorf("upsert account stats: %w", err)
	}
	logger.Info("postgres sink updated", zap.Int("rows", len(rows)))
	return nil
}
