package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port" default:"10000" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Upstream struct {
		BaseURL         string        `yaml:"base_url" default:"https://fapi.binance.com" validate:"url"`
		Timeout         time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
		MaxRetries      int           `yaml:"max_retries" default:"2" validate:"gte=0"`
		RetryBackoff    time.Duration `yaml:"retry_backoff" default:"300ms"`
		TradesPageLimit int           `yaml:"trades_page_limit" default:"1000" validate:"gte=1,lte=1000"`
		MaxTradePages   int           `yaml:"max_trade_pages" default:"50" validate:"gte=1"`
		DepthLevels     int           `yaml:"depth_levels" default:"5" validate:"oneof=5 10 20 50 100 500 1000"`
		Rate            struct {
			RPS   float64 `yaml:"rps" default:"20"`
			Burst int     `yaml:"burst" default:"40"`
		} `yaml:"rate"`
		Breaker struct {
			Failures    uint32        `yaml:"failures" default:"5"`
			OpenTimeout time.Duration `yaml:"open_timeout" default:"30s"`
		} `yaml:"breaker"`
	} `yaml:"upstream"`
	Snapshot struct {
		Interval          string        `yaml:"interval" default:"5m" validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d"`
		DefaultN          int           `yaml:"default_n" default:"50"`
		MinN              int           `yaml:"min_n" default:"20" validate:"gte=1"`
		MaxN              int           `yaml:"max_n" default:"100" validate:"gtefield=MinN"`
		RegimeInterval    string        `yaml:"regime_interval" default:"1h" validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d"`
		RegimeBars        int           `yaml:"regime_bars" default:"250" validate:"gte=1"`
		EMAPeriod         int           `yaml:"ema_period" default:"200" validate:"gte=1"`
		SlopeLookback     int           `yaml:"slope_lookback" default:"5" validate:"gte=1"`
		ATRPeriod         int           `yaml:"atr_period" default:"14" validate:"gte=1"`
		DeltaHistory      int           `yaml:"delta_history" default:"12" validate:"gte=0"`
		DeltaWorkers      int           `yaml:"delta_workers" default:"4" validate:"gte=1"`
		ATRHistory        int           `yaml:"atr_history" default:"50" validate:"gte=1"`
		CoverageTolerance time.Duration `yaml:"coverage_tolerance" default:"30s"`
		MinTTL            time.Duration `yaml:"min_ttl" default:"5s"`
		DataVersion       string        `yaml:"data_version" default:"snap_2.0"`
	} `yaml:"snapshot"`
	Guards struct {
		DistMin      float64 `yaml:"dist_min" default:"0.5"`
		SpreadMaxBps float64 `yaml:"spread_max_bps" default:"2.5"`
		MinDepthQty  float64 `yaml:"min_depth_qty" default:"10"`
		ATRPctlMin   float64 `yaml:"atr_m5_pctl_min" default:"0.2" validate:"gte=0,lte=1"`
	} `yaml:"guards"`
	Cache struct {
		MaxEntries      int           `yaml:"max_entries" default:"256" validate:"gte=1"`
		IdleTTL         time.Duration `yaml:"idle_ttl" default:"30m"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
	} `yaml:"cache"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. Absent fields take their
// defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse fills defaults, decodes YAML bytes over them and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults and the environment still apply.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if c, err = Parse(nil); err != nil {
			return nil, err
		}
	}

	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv applies the relay environment variables on top of the file.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("BINANCE_BASE_URL")); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("SNAPSHOT_N")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SNAPSHOT_N: %w", err)
		}
		c.Snapshot.DefaultN = n
	}
	if v := strings.TrimSpace(getenv("TRADES_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRADES_LIMIT: %w", err)
		}
		c.Upstream.TradesPageLimit = n
	}
	if v := strings.TrimSpace(getenv("HTTP_TIMEOUT")); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		c.Upstream.Timeout = time.Duration(secs * float64(time.Second))
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
