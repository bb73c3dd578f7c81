// Package config loads eidnews settings from YAML.
//
// Embedded defaults are overlaid by the user's file, then by environment
// variables, then validated.
package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "eidnews"

// Environment overrides.
const (
	EnvBaseURL      = "EIDNEWS_BASE_URL"
	EnvLogLevel     = "EIDNEWS_LOG_LEVEL"
	EnvKafkaBrokers = "EIDNEWS_KAFKA_BROKERS"
)

// Validation errors.
var (
	ErrInvalidBaseURL   = errors.New("source.base_url must be an absolute http(s) URL")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidPerPage   = errors.New("source.per_page must be between 1 and 100")
	ErrInvalidRateLimit = errors.New("source.requests_per_second must be non-negative")
	ErrInvalidMode      = errors.New("realtime.mode must be rest or rss")
	ErrMissingFeedURL   = errors.New("realtime.mode rss requires source.feed_url")
	ErrInvalidSeenSet   = errors.New("realtime.seen_keep must be between 1 and realtime.seen_limit")
	ErrInvalidCacheSize = errors.New("cache.max_entries must be non-negative")
	ErrInvalidLogLevel  = errors.New("logging.level must be debug, info, warn or error")
)

// Realtime source modes.
const (
	ModeREST = "rest"
	ModeRSS  = "rss"
)

type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Categories CategoriesConfig `yaml:"categories"`
	Images     ImagesConfig     `yaml:"images"`
	Cache      CacheConfig      `yaml:"cache"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SourceConfig struct {
	BaseURL           string  `yaml:"base_url"`
	FeedURL           string  `yaml:"feed_url"`
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	UserAgent         string  `yaml:"user_agent,omitempty"`
	DefaultAuthor     string  `yaml:"default_author"`
	PerPage           int     `yaml:"per_page"`
}

type CategoriesConfig struct {
	Aggregates map[string][]int `yaml:"aggregates"`
	Browse     []string         `yaml:"browse"`
}

type ImagesConfig struct {
	PreferSmall bool `yaml:"prefer_small"`
	TargetWidth int  `yaml:"target_width"`
}

type CacheConfig struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type RealtimeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Mode      string `yaml:"mode"`
	Interval  string `yaml:"interval"`
	Recent    int    `yaml:"recent"`
	SeenLimit int    `yaml:"seen_limit"`
	SeenKeep  int    `yaml:"seen_keep"`
	Prime     bool   `yaml:"prime"`
}

type AnalyticsConfig struct {
	Enabled    bool        `yaml:"enabled"`
	EventsFile string      `yaml:"events_file"`
	Database   string      `yaml:"database"`
	Kafka      KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// TimeoutDuration returns the HTTP timeout, or 0 if unset.
func (s SourceConfig) TimeoutDuration() time.Duration {
	return mustDuration(s.Timeout)
}

// TTLDuration returns the cache TTL; 0 keeps entries forever.
func (c CacheConfig) TTLDuration() time.Duration {
	return mustDuration(c.TTL)
}

// IntervalDuration returns the poll interval, or 0 if unset.
func (r RealtimeConfig) IntervalDuration() time.Duration {
	return mustDuration(r.Interval)
}

// mustDuration parses a validated duration string.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// KafkaEnabled reports whether any broker is configured.
func (a AnalyticsConfig) KafkaEnabled() bool {
	return len(a.Kafka.Brokers) > 0
}

// EventsPath is the JSONL observability log.
func (c *Config) EventsPath() string {
	if c.Analytics.EventsFile != "" {
		return c.Analytics.EventsFile
	}
	return filepath.Join(xdg.StateHome, appName, "events.jsonl")
}

// DatabasePath is the SQLite analytics archive.
func (c *Config) DatabasePath() string {
	if c.Analytics.Database != "" {
		return c.Analytics.Database
	}
	return filepath.Join(xdg.DataHome, appName, "analytics.db")
}

// LogDir is where dated log files go.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	return filepath.Join(xdg.StateHome, appName, "logs")
}

// DefaultPath returns $XDG_CONFIG_HOME/eidnews/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads path (DefaultPath when empty) over the defaults, applies
// environment overrides and validates. A missing file is not an error; the
// defaults are written there for the user to edit.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Non-fatal: the embedded defaults still apply.
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides fields from EIDNEWS_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Analytics.Kafka.Brokers = brokers
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Source.BaseURL)
	}
	if c.Source.PerPage < 1 || c.Source.PerPage > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPerPage, c.Source.PerPage)
	}
	if c.Source.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	durations := []struct{ field, value string }{
		{"source.timeout", c.Source.Timeout},
		{"cache.ttl", c.Cache.TTL},
		{"realtime.interval", c.Realtime.Interval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			return fmt.Errorf("%w: %s %q", ErrInvalidDuration, d.field, d.value)
		}
	}

	if c.Cache.MaxEntries < 0 {
		return ErrInvalidCacheSize
	}

	switch c.Realtime.Mode {
	case ModeREST:
	case ModeRSS:
		if c.Source.FeedURL == "" {
			return ErrMissingFeedURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Realtime.Mode)
	}
	if c.Realtime.SeenKeep < 1 || c.Realtime.SeenKeep > c.Realtime.SeenLimit {
		return fmt.Errorf("%w: keep=%d limit=%d", ErrInvalidSeenSet, c.Realtime.SeenKeep, c.Realtime.SeenLimit)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
