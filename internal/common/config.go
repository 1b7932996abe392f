package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Client      ClientConfig     `toml:"client"`
	TWSE        TWSEConfig       `toml:"twse"`
	MoneyDJ     MoneyDJConfig    `toml:"moneydj"`
	Taifex      TaifexConfig     `toml:"taifex"`
	Snapshot    SnapshotConfig   `toml:"snapshot"`
	Schedule    ScheduleConfig   `toml:"schedule"`
	Securities  []SecurityConfig `toml:"securities" validate:"required,min=1,dive"`
	Brokers     []string         `toml:"brokers" validate:"required,min=1"` // watched broker names, page order preserved
}

// SecurityConfig is one watched security. The set is fixed at configuration
// time and immutable during a run.
type SecurityConfig struct {
	Ticker  string `toml:"ticker" validate:"required,numeric"` // short numeric code, e.g. "2330"
	Name    string `toml:"name" validate:"required"`           // display name
	Keyword string `toml:"keyword" validate:"required"`        // futures product keyword for TAIFEX option matching
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ClientConfig controls the shared HTTP fetcher.
type ClientConfig struct {
	UserAgent      string        `toml:"user_agent" validate:"required"`
	Timeout        time.Duration `toml:"timeout" validate:"gt=0"`       // per-request timeout
	RequestDelay   time.Duration `toml:"request_delay" validate:"gte=0"` // courtesy delay between per-security operations
	ChromeFallback bool          `toml:"chrome_fallback"`                // render with chromedp when the plain fetch is refused
}

type TWSEConfig struct {
	BaseURL     string `toml:"base_url" validate:"required,url"`
	RateLimit   int    `toml:"rate_limit" validate:"gt=0"`    // requests per second
	MaxLookback int    `toml:"max_lookback" validate:"gt=0"` // trading-day probe window in days
}

type MoneyDJConfig struct {
	BrokerURL    string `toml:"broker_url" validate:"required,url"`  // ZGB broker net-value ranking page
	ForeignURL   string `toml:"foreign_url" validate:"required,url"` // ZGK_D foreign net-volume ranking page
	ForeignLimit int    `toml:"foreign_limit" validate:"gt=0"`       // rows kept per buy/sell sequence
	MaxNameLen   int    `toml:"max_name_len" validate:"gt=0"`        // anti-garbage cap on name cells, in runes
}

type TaifexConfig struct {
	QueryURL   string        `toml:"query_url" validate:"required,url"`
	QueryDelay time.Duration `toml:"query_delay" validate:"gte=0"` // delay between per-security form submissions
	// FieldOrder maps the ordered integers found in the all-contracts row to
	// top5 long, top5 short, top10 long, top10 short, open interest.
	// Negative values index from the end of the sequence. The ordering has
	// drifted across site revisions, so it is configuration rather than a
	// hard assumption.
	FieldOrder []int `toml:"field_order" validate:"len=5"`
}

type SnapshotConfig struct {
	OutputPath string `toml:"output_path" validate:"required"` // snapshot JSON destination
}

// ScheduleConfig enables periodic regeneration. Disabled by default; the
// binary runs once and exits.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // cron expression, e.g. "30 14 * * 1-5"
}

// Security is the runtime form of SecurityConfig.
type Security struct {
	Ticker  string
	Name    string
	Keyword string
}

// SecurityList returns the configured securities as immutable runtime values.
func (c *Config) SecurityList() []Security {
	out := make([]Security, 0, len(c.Securities))
	for _, s := range c.Securities {
		out = append(out, Security{Ticker: s.Ticker, Name: s.Name, Keyword: s.Keyword})
	}
	return out
}

// LoadFromFiles loads configuration with merging: defaults -> file1 -> file2
// -> ... -> environment variables. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variables on top of file config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MARKETSNAP_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("MARKETSNAP_OUTPUT_PATH"); v != "" {
		config.Snapshot.OutputPath = v
	}
	if v := os.Getenv("MARKETSNAP_USER_AGENT"); v != "" {
		config.Client.UserAgent = v
	}
	if v := os.Getenv("MARKETSNAP_CHROME_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Client.ChromeFallback = b
		}
	}
}
