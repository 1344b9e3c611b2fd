package config

import (
	"time"
)

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	ExporterType string  `mapstructure:"exporter_type"`
	Endpoint     string  `mapstructure:"endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// FetchConfig tunes the proxy-relay fetch layer.
type FetchConfig struct {
	RelayTimeout    time.Duration `mapstructure:"relay_timeout"`
	HTTPSCacheTTL   time.Duration `mapstructure:"https_cache_ttl"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	UserAgent       string        `mapstructure:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
}

// DiscoveryConfig tunes the multi-source domain discovery aggregator.
type DiscoveryConfig struct {
	Resolvers         []string      `mapstructure:"resolvers"`
	ValidationTimeout time.Duration `mapstructure:"validation_timeout"`
	ValidationDelay   time.Duration `mapstructure:"validation_delay"`
	MaxValidations    int           `mapstructure:"max_validations"`
	SourceTimeout     time.Duration `mapstructure:"source_timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			ServiceName:  "siteaudit",
			ExporterType: "none",
			SampleRate:   1.0,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "siteaudit.db",
			MaxConnections:  10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		},
		Fetch: FetchConfig{
			RelayTimeout:    8 * time.Second,
			HTTPSCacheTTL:   5 * time.Minute,
			MaxBodyBytes:    1 << 20, // 1MB per page is plenty for fingerprinting
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			FollowRedirects: true,
		},
		Discovery: DiscoveryConfig{
			Resolvers: []string{
				"https://cloudflare-dns.com/dns-query",
				"https://dns.google/dns-query",
				"https://dns.quad9.net/dns-query",
			},
			ValidationTimeout: 5 * time.Second,
			ValidationDelay:   200 * time.Millisecond,
			MaxValidations:    15,
			SourceTimeout:     10 * time.Second,
			CacheTTL:          time.Hour,
		},
	}
}
