// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Archive ArchiveConfig `mapstructure:"archive"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ProxyConfig configures the rendering proxy used for publisher pages.
type ProxyConfig struct {
	// Endpoint is the proxy base URL. Empty means fetch pages directly.
	Endpoint string `mapstructure:"endpoint"`
	// APIKeys is a comma-separated list of proxy API keys.
	APIKeys  string `mapstructure:"api_keys"`
	RenderJS bool   `mapstructure:"render_js"`
}

// CatalogConfig points at the publisher's journal search API.
type CatalogConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// CrawlConfig governs which journals are crawled and how.
type CrawlConfig struct {
	Query               string `mapstructure:"query"`
	StartPage           int    `mapstructure:"start_page"`
	EndPage             int    `mapstructure:"end_page"`
	InsightsURLTemplate string `mapstructure:"insights_url_template"`
	UserAgent           string `mapstructure:"user_agent"`
}

// HTTPConfig configures fetch retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
}

// DBConfig selects and configures the journal store backend.
type DBConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// ArchiveConfig selects and configures the raw page archive.
type ArchiveConfig struct {
	// Backend is "local", "gcs", or "none".
	Backend string `mapstructure:"backend"`
	BaseDir string `mapstructure:"base_dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for crawl event notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the health/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOURNALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy.render_js", true)
	v.SetDefault("catalog.endpoint", "https://www.elsevier.com/api/v1/journal-catalog/search")
	v.SetDefault("crawl.query", "")
	v.SetDefault("crawl.start_page", 1)
	v.SetDefault("crawl.end_page", 1)
	v.SetDefault("crawl.insights_url_template", "https://www.sciencedirect.com/journal/%s/about/insights")
	v.SetDefault("crawl.user_agent", "journal-metrics-bot/0.1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "journals.db")
	v.SetDefault("archive.backend", "none")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawl.StartPage <= 0 {
		return fmt.Errorf("crawl.start_page must be > 0")
	}
	if c.Crawl.EndPage < c.Crawl.StartPage {
		return fmt.Errorf("crawl.end_page must be >= crawl.start_page")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path must be set for the sqlite driver")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres")
	}
	switch c.Archive.Backend {
	case "none":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local backend")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend must be none, local, or gcs")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// Keys splits the configured comma-separated API keys, dropping blanks.
func (c ProxyConfig) Keys() []string {
	parts := strings.Split(c.APIKeys, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase converts the initial backoff config into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}
