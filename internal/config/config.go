package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	Contract     string
	FromBlock    uint64
	ToBlock      uint64
	WindowSize   uint64
	Workers      int
	TTL          time.Duration
	Interval     time.Duration
	SortKey      string
	Limit        int
	Scale        int
	Out          string
	PGDSN        string
	FetchTimeout time.Duration
	ReadTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAIMSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("window-size", uint64(5000))
	v.SetDefault("workers", 8)
	v.SetDefault("ttl", time.Minute)
	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("sort-key", "amount")
	v.SetDefault("limit", 0)
	v.SetDefault("scale", 18)
	v.SetDefault("out", "./data/accounts.csv")
	v.SetDefault("fetch-timeout", 30*time.Second)
	v.SetDefault("read-timeout", 10*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		Contract:     v.GetString("contract"),
		FromBlock:    v.GetUint64("from"),
		ToBlock:      v.GetUint64("to"),
		WindowSize:   v.GetUint64("window-size"),
		Workers:      v.GetInt("workers"),
		TTL:          v.GetDuration("ttl"),
		Interval:     v.GetDuration("interval"),
		SortKey:      v.GetString("sort-key"),
		Limit:        v.GetInt("limit"),
		Scale:        v.GetInt("scale"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		FetchTimeout: v.GetDuration("fetch-timeout"),
		ReadTimeout:  v.GetDuration("read-timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
