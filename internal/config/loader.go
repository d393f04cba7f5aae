package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COINLEDGER_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COINLEDGER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Top-level ──
	setStr(&cfg.Storage, "COINLEDGER_STORAGE")
	setStr(&cfg.LogLevel, "COINLEDGER_LOG_LEVEL")

	// ── Server ──
	setInt(&cfg.Server.Port, "COINLEDGER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "COINLEDGER_SERVER_CORS_ORIGINS")

	// ── Auth ──
	setStr(&cfg.Auth.TokenSecret, "COINLEDGER_AUTH_TOKEN_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "COINLEDGER_AUTH_TOKEN_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "COINLEDGER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "COINLEDGER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COINLEDGER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COINLEDGER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COINLEDGER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COINLEDGER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COINLEDGER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COINLEDGER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COINLEDGER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COINLEDGER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "COINLEDGER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COINLEDGER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COINLEDGER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COINLEDGER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "COINLEDGER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "COINLEDGER_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.LockTTL, "COINLEDGER_REDIS_LOCK_TTL")

	// ── Price feed ──
	setStr(&cfg.PriceFeed.Source, "COINLEDGER_PRICEFEED_SOURCE")
	setDuration(&cfg.PriceFeed.Interval, "COINLEDGER_PRICEFEED_INTERVAL")
	setInt64(&cfg.PriceFeed.MaxStepBps, "COINLEDGER_PRICEFEED_MAX_STEP_BPS")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
