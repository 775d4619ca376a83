package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "claimscope",
		Short:        "Sale contract buy/claim statistics tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the event log once and export account stats",
		RunE:  runScan,
	}
	addScanFlags(scanCmd)
	root.AddCommand(scanCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Serve cached stats, refreshing on TTL expiry and rewriting the export",
		RunE:  runWatch,
	}
	addScanFlags(watchCmd)
	watchCmd.Flags().Duration("ttl", time.Minute, "snapshot time-to-live")
	watchCmd.Flags().Duration("interval", 30*time.Second, "query interval")
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("contract", "", "sale contract address")
	cmd.Flags().Uint64("from", 0, "scan start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "scan end block (inclusive), 0 means latest")
	cmd.Flags().Uint64("window-size", 5000, "blocks per request window")
	cmd.Flags().Int("workers", 8, "enrichment worker pool size")
	cmd.Flags().String("sort-key", "amount", "export sort key (buys, claims, units, amount, claimable)")
	cmd.Flags().Int("limit", 0, "export row limit, 0 means all")
	cmd.Flags().Int("scale", 18, "decimal scale for amounts, 0 disables scaling")
	cmd.Flags().String("out", "./data/accounts.csv", "output CSV path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the leaderboard sink")
	cmd.Flags().Duration("fetch-timeout", 30*time.Second, "per log request timeout")
	cmd.Flags().Duration("read-timeout", 10*time.Second, "per contract read timeout")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per window")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
