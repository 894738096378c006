package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"collegedecision/internal/fsutil"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment variables (optionally from a .env file) override
// the file after it is read.

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Environment variables applied on top of the YAML file.
const (
	EnvListen     = "CD_LISTEN"
	EnvBaseURL    = "CD_BASE_URL"
	EnvLogLevel   = "CD_LOG_LEVEL"
	EnvDiscordURL = "DISCORD_WEBHOOK_URL"
	EnvRedisURL   = "REDIS_URL"
)

// StorageConfig selects where visitor state lives.
type StorageConfig struct {
	// Driver is one of "memory", "file" or "redis".
	Driver string `yaml:"driver" json:"driver"`
	// Dir is the state directory for the file driver.
	Dir string `yaml:"dir" json:"dir"`
}

// RedisConfig holds the Redis connection used by the redis storage driver
// and the shared rate limiter.
type RedisConfig struct {
	URL string `yaml:"url" json:"url"`
}

// RateLimitConfig controls the suggestion endpoint limiter.
type RateLimitConfig struct {
	Limit           int `yaml:"limit" json:"limit"`
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`
}

// DiscordConfig holds the suggestion/digest webhook.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
}

// OGConfig controls Open Graph card rendering.
type OGConfig struct {
	Width           int    `yaml:"width" json:"width"`
	Height          int    `yaml:"height" json:"height"`
	CacheDir        string `yaml:"cache_dir" json:"cache_dir"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	// ChromiumPath points at a Chromium binary; empty lets chromedp look it up.
	ChromiumPath string `yaml:"chromium_path" json:"chromium_path"`
}

// DigestConfig controls the daily "released today" post.
type DigestConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Schedule is a five-field cron expression evaluated at UTC-05:00.
	Schedule string `yaml:"schedule" json:"schedule"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// BaseURL is the public site root used in sitemap, ICS and metadata.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// DataPath is an optional universities YAML file. Empty means the
	// embedded dataset.
	DataPath string `yaml:"data_path" json:"data_path"`

	// LogoDir holds the locally hosted {domain}.jpg logos.
	LogoDir string `yaml:"logo_dir" json:"logo_dir"`

	// LogoRemoteBase is the logo service used when no local file exists.
	LogoRemoteBase string `yaml:"logo_remote_base" json:"logo_remote_base"`

	// LogoCacheDir caches remote logos between restarts.
	LogoCacheDir string `yaml:"logo_cache_dir" json:"logo_cache_dir"`

	// TickMS is the countdown refresh period in milliseconds.
	TickMS int `yaml:"tick_ms" json:"tick_ms"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogPretty bool   `yaml:"log_pretty" json:"log_pretty"`

	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Redis     RedisConfig     `yaml:"redis" json:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Discord   DiscordConfig   `yaml:"discord" json:"discord"`
	OG        OGConfig        `yaml:"og" json:"og"`
	Digest    DigestConfig    `yaml:"digest" json:"digest"`

	// Popular overrides the built-in popularity order used for sorting.
	Popular []string `yaml:"popular,omitempty" json:"popular,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8080",
		BaseURL:        "https://collegedecision.us",
		LogoDir:        "./public/logos",
		LogoRemoteBase: "https://logo.clearbit.com",
		LogoCacheDir:   "./cache/logos",
		TickMS:         500,
		LogLevel:       "info",
		Storage:        StorageConfig{Driver: DriverMemory, Dir: "./cache/state"},
		RateLimit:      RateLimitConfig{Limit: 5, IntervalSeconds: 60},
		OG: OGConfig{
			Width:           1200,
			Height:          630,
			CacheDir:        "./cache/og",
			CacheTTLMinutes: 360,
			TimeoutSeconds:  30,
		},
		Digest: DigestConfig{Enabled: false, Schedule: "0 8 * * *"},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.LogoRemoteBase == "" {
		c.LogoRemoteBase = def.LogoRemoteBase
	}
	c.LogoRemoteBase = strings.TrimRight(c.LogoRemoteBase, "/")
	if c.TickMS <= 0 {
		c.TickMS = def.TickMS
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis:
		// ok
	default:
		// Unknown value; fall back to memory rather than refusing to start.
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}

	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = def.RateLimit.Limit
	}
	if c.RateLimit.IntervalSeconds <= 0 {
		c.RateLimit.IntervalSeconds = def.RateLimit.IntervalSeconds
	}

	if c.OG.Width <= 0 {
		c.OG.Width = def.OG.Width
	}
	if c.OG.Height <= 0 {
		c.OG.Height = def.OG.Height
	}
	if c.OG.CacheTTLMinutes <= 0 {
		c.OG.CacheTTLMinutes = def.OG.CacheTTLMinutes
	}
	if c.OG.TimeoutSeconds <= 0 {
		c.OG.TimeoutSeconds = def.OG.TimeoutSeconds
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = def.Digest.Schedule
	}
}

// ApplyEnv overrides fields from the process environment. A .env file in
// the working directory is loaded first when present; variables already
// set in the environment win over it.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDiscordURL); v != "" {
		c.Discord.WebhookURL = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
	c.Normalize()
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are not applied here; call ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save normalizes cfg and writes it atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
