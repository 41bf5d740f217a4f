package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheSQLite = "sqlite"
)

type AppConfig struct {
	// UpdateFrequency controls how often each resource is refreshed.
	UpdateFrequency time.Duration `validate:"gt=0"`
	HTTPTimeout     time.Duration `validate:"gt=0"`

	// Retry of malformed upstream bodies (0 attempts = until success).
	RetryMaxAttempts int           `validate:"gte=0"`
	RetryDelay       time.Duration `validate:"gt=0"`
	RetryMaxDelay    time.Duration `validate:"gte=0"`
	RetryMultiplier  float64       `validate:"gte=1"`

	// Retry of transport failures (network, 429, 5xx); always bounded.
	HTTPRetryMaxAttempts int           `validate:"gte=1"`
	HTTPRetryDelay       time.Duration `validate:"gt=0"`
	HTTPRetryMaxDelay    time.Duration `validate:"gte=0"`

	// FetchConcurrency bounds the startup fetches running at once; 1 fetches
	// the resources one after another.
	FetchConcurrency int `validate:"gte=1"`

	// Snapshot persistence.
	CacheBackend string `validate:"oneof=memory file sqlite"`
	CacheDir     string `validate:"required_if=CacheBackend file"`
	SQLitePath   string `validate:"required_if=CacheBackend sqlite"`

	// Upstream endpoints; empty means the provider default.
	DriversURL      string `validate:"omitempty,url"`
	ConstructorsURL string `validate:"omitempty,url"`
	SeasonURL       string `validate:"omitempty,url"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// fileConfig mirrors the keys accepted in the optional TOML file.
type fileConfig struct {
	UpdateFrequencySec int     `toml:"update_frequency_sec"`
	HTTPTimeout        string  `toml:"http_timeout"`
	RetryMaxAttempts   *int    `toml:"retry_max_attempts"`
	RetryDelay         string  `toml:"retry_delay"`
	RetryMaxDelay      string  `toml:"retry_max_delay"`
	RetryMultiplier    float64 `toml:"retry_multiplier"`
	HTTPRetryAttempts  int     `toml:"http_retry_max_attempts"`
	HTTPRetryDelay     string  `toml:"http_retry_delay"`
	HTTPRetryMaxDelay  string  `toml:"http_retry_max_delay"`
	FetchConcurrency   int     `toml:"fetch_concurrency"`
	CacheBackend       string  `toml:"cache_backend"`
	CacheDir           string  `toml:"cache_dir"`
	SQLitePath         string  `toml:"sqlite_path"`
	DriversURL         string  `toml:"drivers_url"`
	ConstructorsURL    string  `toml:"constructors_url"`
	SeasonURL          string  `toml:"season_url"`
	Port               string  `toml:"port"`
	LogLevel           string  `toml:"log_level"`
	LogFormat          string  `toml:"log_format"`
}

var validate = validator.New()

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		UpdateFrequency: 300 * time.Second,
		HTTPTimeout:     10 * time.Second,
		RetryDelay:      5 * time.Second,
		RetryMaxDelay:   5 * time.Second,
		RetryMultiplier: 1,

		HTTPRetryMaxAttempts: 4,
		HTTPRetryDelay:       500 * time.Millisecond,
		HTTPRetryMaxDelay:    5 * time.Second,
		FetchConcurrency:     3,

		CacheBackend:    CacheMemory,
		CacheDir:        "cache",
		SQLitePath:      "f1-sensors.db",
		Port:            "8080",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads configuration with sensible defaults. Precedence, lowest first:
// defaults, the TOML file at path (or F1_CONFIG_FILE), environment (.env included).
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("F1_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.UpdateFrequencySec != 0 {
		c.UpdateFrequency = time.Duration(fc.UpdateFrequencySec) * time.Second
	}
	if fc.RetryMaxAttempts != nil {
		c.RetryMaxAttempts = *fc.RetryMaxAttempts
	}
	if fc.RetryMultiplier != 0 {
		c.RetryMultiplier = fc.RetryMultiplier
	}
	if fc.HTTPRetryAttempts != 0 {
		c.HTTPRetryMaxAttempts = fc.HTTPRetryAttempts
	}
	if fc.FetchConcurrency != 0 {
		c.FetchConcurrency = fc.FetchConcurrency
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{fc.HTTPTimeout, &c.HTTPTimeout, "http_timeout"},
		{fc.RetryDelay, &c.RetryDelay, "retry_delay"},
		{fc.RetryMaxDelay, &c.RetryMaxDelay, "retry_max_delay"},
		{fc.HTTPRetryDelay, &c.HTTPRetryDelay, "http_retry_delay"},
		{fc.HTTPRetryMaxDelay, &c.HTTPRetryMaxDelay, "http_retry_max_delay"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}
	setIf(&c.CacheBackend, fc.CacheBackend)
	setIf(&c.CacheDir, fc.CacheDir)
	setIf(&c.SQLitePath, fc.SQLitePath)
	setIf(&c.DriversURL, fc.DriversURL)
	setIf(&c.ConstructorsURL, fc.ConstructorsURL)
	setIf(&c.SeasonURL, fc.SeasonURL)
	setIf(&c.Port, fc.Port)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.LogFormat, fc.LogFormat)
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("F1_UPDATE_FREQUENCY_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid F1_UPDATE_FREQUENCY_SEC: %w", err)
		}
		c.UpdateFrequency = time.Duration(n) * time.Second
	}

	var err error
	if c.HTTPTimeout, err = getenvDuration("F1_HTTP_TIMEOUT", c.HTTPTimeout); err != nil {
		return err
	}
	if c.RetryDelay, err = getenvDuration("F1_RETRY_DELAY", c.RetryDelay); err != nil {
		return err
	}
	if c.RetryMaxDelay, err = getenvDuration("F1_RETRY_MAX_DELAY", c.RetryMaxDelay); err != nil {
		return err
	}
	c.RetryMaxAttempts = getenvInt("F1_RETRY_MAX_ATTEMPTS", c.RetryMaxAttempts)
	if c.HTTPRetryDelay, err = getenvDuration("F1_HTTP_RETRY_DELAY", c.HTTPRetryDelay); err != nil {
		return err
	}
	if c.HTTPRetryMaxDelay, err = getenvDuration("F1_HTTP_RETRY_MAX_DELAY", c.HTTPRetryMaxDelay); err != nil {
		return err
	}
	c.HTTPRetryMaxAttempts = getenvInt("F1_HTTP_RETRY_MAX_ATTEMPTS", c.HTTPRetryMaxAttempts)
	c.FetchConcurrency = getenvInt("F1_FETCH_CONCURRENCY", c.FetchConcurrency)
	if v := os.Getenv("F1_RETRY_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid F1_RETRY_MULTIPLIER: %w", err)
		}
		c.RetryMultiplier = f
	}

	c.CacheBackend = getenvDefault("F1_CACHE_BACKEND", c.CacheBackend)
	c.CacheDir = getenvDefault("F1_CACHE_DIR", c.CacheDir)
	c.SQLitePath = getenvDefault("F1_SQLITE_PATH", c.SQLitePath)
	c.DriversURL = getenvDefault("F1_DRIVERS_URL", c.DriversURL)
	c.ConstructorsURL = getenvDefault("F1_CONSTRUCTORS_URL", c.ConstructorsURL)
	c.SeasonURL = getenvDefault("F1_SEASON_URL", c.SeasonURL)
	c.Port = getenvDefault("PORT", c.Port)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenvDefault("LOG_FORMAT", c.LogFormat)
	return nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *AppConfig) Logger() *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
