package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "bito/concertworker/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Fetch drivers
const (
	DriverPlaywright  = "playwright"
	DriverBrowserless = "browserless"
	DriverHTTP        = "http"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// MaxRecordsLimit is the most concerts taken from one listing page
const MaxRecordsLimit = 20

// Config represents the application configuration
type Config struct {
	// Source configuration
	TargetURL     string `yaml:"target_url"`
	SourceName    string `yaml:"source_name"`
	VenueFallback string `yaml:"venue_fallback"`
	MaxRecords    int    `yaml:"max_records"`

	// Fetcher configuration
	FetchDriver       string        `yaml:"fetch_driver"`
	BrowserlessAddr   string        `yaml:"browserless_addr"`
	BrowserPath       string        `yaml:"browser_path"`
	InstallDriver     bool          `yaml:"install_driver"`
	UserAgent         string        `yaml:"user_agent"`
	ViewportWidth     int           `yaml:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	SettleTimeout     time.Duration `yaml:"settle_timeout"`

	// Memcache configuration, empty address disables the fetch block
	MemcacheAddr string        `yaml:"memcache_addr"`
	BlockTime    time.Duration `yaml:"block_time"`

	// Redis configuration, empty address disables publishing
	RedisAddr            string `yaml:"redis_addr"`
	RedisDB              int    `yaml:"redis_db"`
	RedisStream          string `yaml:"redis_stream"`
	RedisStreamCount     int    `yaml:"redis_stream_count"`
	RedisStreamMaxLength int    `yaml:"redis_stream_max_length"`

	// Storage configuration
	StorageDriver string `yaml:"storage_driver"`
	DatabaseDSN   string `yaml:"database_dsn"`

	// HTTP API configuration
	HTTPAddr      string `yaml:"http_addr"`
	CheapMaxPrice int    `yaml:"cheap_max_price"`

	// Worker configuration, zero disables periodic scraping
	ScrapeInterval time.Duration `yaml:"scrape_interval"`

	// Environment
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		TargetURL:            "https://mticket.interpark.com/Genre/ConcertMain?invisible=N",
		SourceName:           "Interpark",
		VenueFallback:        "인터파크 티켓",
		MaxRecords:           MaxRecordsLimit,
		FetchDriver:          DriverPlaywright,
		BrowserlessAddr:      "http://localhost:3000",
		UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:        1920,
		ViewportHeight:       1080,
		NavigationTimeout:    30 * time.Second,
		SettleTimeout:        3 * time.Second,
		BlockTime:            300 * time.Second,
		RedisStream:          "concerts",
		RedisStreamCount:     1,
		RedisStreamMaxLength: 500,
		StorageDriver:        StorageMemory,
		HTTPAddr:             ":8080",
		CheapMaxPrice:        10000,
		Environment:          "development",
	}
}

// LoadConfig loads the configuration from an optional YAML file and the environment.
// Environment variables take precedence over the file.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// loadFile overlays the values present in a YAML file
func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfiguration("read config file", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return apperrors.NewConfiguration("parse config file", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.TargetURL = getEnv("CONCERT_URL", c.TargetURL)
	c.SourceName = getEnv("SOURCE_NAME", c.SourceName)
	c.VenueFallback = getEnv("VENUE_FALLBACK", c.VenueFallback)
	c.MaxRecords = getEnvInt("MAX_RECORDS", c.MaxRecords)

	c.FetchDriver = strings.ToLower(getEnv("FETCH_DRIVER", c.FetchDriver))
	c.BrowserlessAddr = getEnv("BROWSERLESS_ADDR", c.BrowserlessAddr)
	c.BrowserPath = getEnv("BROWSER_PATH", c.BrowserPath)
	c.InstallDriver = getEnvBool("INSTALL_BROWSER_DRIVER", c.InstallDriver)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.ViewportWidth = getEnvInt("VIEWPORT_WIDTH", c.ViewportWidth)
	c.ViewportHeight = getEnvInt("VIEWPORT_HEIGHT", c.ViewportHeight)
	c.NavigationTimeout = getEnvSeconds("NAVIGATION_TIMEOUT_SECONDS", c.NavigationTimeout)
	c.SettleTimeout = getEnvSeconds("SETTLE_TIMEOUT_SECONDS", c.SettleTimeout)

	c.MemcacheAddr = getEnv("MEMCACHE_ADDR", c.MemcacheAddr)
	c.BlockTime = getEnvSeconds("BLOCK_SECONDS", c.BlockTime)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisStream = getEnv("REDIS_STREAM", c.RedisStream)
	c.RedisStreamCount = getEnvInt("REDIS_STREAM_COUNT", c.RedisStreamCount)
	c.RedisStreamMaxLength = getEnvInt("REDIS_STREAM_MAX_LENGTH", c.RedisStreamMaxLength)

	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.DatabaseDSN = getEnv("DB_DSN", c.DatabaseDSN)

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.CheapMaxPrice = getEnvInt("CHEAP_MAX_PRICE", c.CheapMaxPrice)

	c.ScrapeInterval = getEnvSeconds("SCRAPE_INTERVAL_SECONDS", c.ScrapeInterval)
	c.Environment = getEnv("CONCERT_ENVIRONMENT", c.Environment)
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return apperrors.NewConfiguration("target URL is required", nil)
	}
	if c.MaxRecords <= 0 || c.MaxRecords > MaxRecordsLimit {
		return apperrors.NewConfiguration(fmt.Sprintf("max records must be between 1 and %d, got %d", MaxRecordsLimit, c.MaxRecords), nil)
	}

	switch c.FetchDriver {
	case DriverPlaywright, DriverHTTP:
	case DriverBrowserless:
		if c.BrowserlessAddr == "" {
			return apperrors.NewConfiguration("browserless address is required for the browserless driver", nil)
		}
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown fetch driver %q", c.FetchDriver), nil)
	}

	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return apperrors.NewConfiguration("viewport dimensions must be positive", nil)
	}
	if c.NavigationTimeout <= 0 || c.SettleTimeout < 0 {
		return apperrors.NewConfiguration("invalid navigation or settle timeout", nil)
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if c.DatabaseDSN == "" {
			return apperrors.NewConfiguration(fmt.Sprintf("DB_DSN is required for the %s storage driver", c.StorageDriver), nil)
		}
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown storage driver %q", c.StorageDriver), nil)
	}

	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return apperrors.NewConfiguration("redis stream count must be positive", nil)
	}
	if c.CheapMaxPrice < 0 {
		return apperrors.NewConfiguration("cheap max price must not be negative", nil)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return time.Duration(value) * time.Second
}
