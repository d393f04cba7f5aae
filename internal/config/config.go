// Package config defines the top-level configuration for the coinledger
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by COINLEDGER_* environment
// variables.
type Config struct {
	Storage   string          `toml:"storage"` // "postgres" or "memory"
	LogLevel  string          `toml:"log_level"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	PriceFeed PriceFeedConfig `toml:"pricefeed"`
	Assets    []AssetConfig   `toml:"assets"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// AuthConfig holds token-signing parameters for the auth gateway.
type AuthConfig struct {
	TokenSecret string   `toml:"token_secret"`
	TokenTTL    duration `toml:"token_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. An empty addr disables
// redis entirely; locking and price sharing fall back to in-process
// equivalents.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	LockTTL    duration `toml:"lock_ttl"`
}

// PriceFeedConfig holds pricing collaborator parameters.
type PriceFeedConfig struct {
	Source     string   `toml:"source"` // "static" or "randomwalk"
	Interval   duration `toml:"interval"`
	MaxStepBps int64    `toml:"max_step_bps"` // randomwalk only
}

// AssetConfig seeds one catalog entry.
type AssetConfig struct {
	ID     string `toml:"id"`
	Symbol string `toml:"symbol"`
	Name   string `toml:"name"`
	Icon   string `toml:"icon"`
	Price  string `toml:"price"` // decimal string in the settlement currency
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validStorage = map[string]bool{
	"postgres": true, "memory": true,
}

var validPriceSources = map[string]bool{
	"static": true, "randomwalk": true,
}

// Defaults returns the built-in configuration, matching the original
// deployment: five seed assets quoted in BRL, memory storage off, redis off.
func Defaults() Config {
	return Config{
		Storage:  "postgres",
		LogLevel: "info",
		Server: ServerConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			TokenTTL: duration{7 * 24 * time.Hour},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			LockTTL: duration{10 * time.Second},
		},
		PriceFeed: PriceFeedConfig{
			Source:   "static",
			Interval: duration{30 * time.Second},
		},
		Assets: []AssetConfig{
			{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Icon: "₿", Price: "350000.00"},
			{ID: "eth", Symbol: "ETH", Name: "Ethereum", Icon: "Ξ", Price: "18500.00"},
			{ID: "bnb", Symbol: "BNB", Name: "Binance Coin", Icon: "BNB", Price: "2100.00"},
			{ID: "ada", Symbol: "ADA", Name: "Cardano", Icon: "ADA", Price: "3.50"},
			{ID: "sol", Symbol: "SOL", Name: "Solana", Icon: "SOL", Price: "650.00"},
		},
	}
}

// Validate checks the configuration for internal consistency. It returns a
// single error aggregating every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validStorage[strings.ToLower(c.Storage)] {
		errs = append(errs, fmt.Sprintf("unknown storage %q (valid: postgres, memory)", c.Storage))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Auth.TokenSecret == "" {
		errs = append(errs, "auth: token_secret must not be empty")
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		errs = append(errs, "auth: token_ttl must be positive")
	}

	if strings.ToLower(c.Storage) == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
	}

	if !validPriceSources[strings.ToLower(c.PriceFeed.Source)] {
		errs = append(errs, fmt.Sprintf("pricefeed: unknown source %q (valid: static, randomwalk)", c.PriceFeed.Source))
	}
	if c.PriceFeed.Interval.Duration <= 0 {
		errs = append(errs, "pricefeed: interval must be positive")
	}

	if len(c.Assets) == 0 {
		errs = append(errs, "assets: at least one asset must be configured")
	}
	seenIDs := make(map[string]bool, len(c.Assets))
	seenSymbols := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("assets[%d]: id must not be empty", i))
		}
		if a.Symbol == "" {
			errs = append(errs, fmt.Sprintf("assets[%d]: symbol must not be empty", i))
		}
		sym := strings.ToUpper(a.Symbol)
		if seenIDs[a.ID] {
			errs = append(errs, fmt.Sprintf("assets[%d]: duplicate id %q", i, a.ID))
		}
		if seenSymbols[sym] {
			errs = append(errs, fmt.Sprintf("assets[%d]: duplicate symbol %q", i, sym))
		}
		seenIDs[a.ID] = true
		seenSymbols[sym] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
