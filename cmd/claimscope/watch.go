package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimscope/internal/cache"
	"claimscope/internal/config"
)

func runWatch(cmd *cobra.Command, _ []string) error {
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

	if cfg.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, chainClient, sortKey, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	snapshots := cache.New(cfg.TTL, service.Refresh, logger)

	logger.Info("watch start",
		zap.String("contract", cfg.Contract),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("interval", cfg.Interval),
		zap.String("out", cfg.Out),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		snapshot, stale, err := snapshots.Get(ctx)
		if err != nil {
			// No snapshot has ever been produced; nothing to serve yet.
			logger.Error("refresh failed with no fallback", zap.Error(err))
		} else {
			if stale {
				logger.Warn("serving stale snapshot", zap.Time("produced_at", snapshot.ProducedAt))
			}
			if err := exportSnapshot(ctx, cfg, sortKey, snapshot, logger); err != nil {
				logger.Error("export failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
