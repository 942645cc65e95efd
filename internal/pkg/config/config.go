package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// TilesConfig drives the composite pipeline: where tiles come from and how
// the fetch fan-out is bounded.
type TilesConfig struct {
	// Template is the XYZ URL with {z}/{x}/{y} and optional {s} placeholders.
	Template string `mapstructure:"template"`
	// Subdomains expands {s}, comma separated. Empty when the template has no {s}.
	Subdomains string `mapstructure:"subdomains"`
	TileSize   int    `mapstructure:"tile_size"`
	// MaxPerRequest caps the tile count of a single composite.
	MaxPerRequest int `mapstructure:"max_per_request"`
	Workers       int `mapstructure:"workers"`
	// FetchTimeout is the per-tile HTTP timeout, seconds.
	FetchTimeout int `mapstructure:"fetch_timeout"`
	JPEGQuality  int `mapstructure:"jpeg_quality"`
	// CacheTTL is the valkey tile cache TTL, seconds.
	CacheTTL int `mapstructure:"cache_ttl"`
}

// SubdomainList splits the comma-separated subdomain config.
func (t TilesConfig) SubdomainList() []string {
	if t.Subdomains == "" {
		return nil
	}
	parts := strings.Split(t.Subdomains, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type StorageConfig struct {
	// Root is the directory holding composite JPEGs and export archives.
	Root string `mapstructure:"root"`
}

type AuthConfig struct {
	// SessionTTL is the bearer-token lifetime, seconds.
	SessionTTL int `mapstructure:"session_ttl"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "maplabel")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "maplabel")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("tiles.template", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("tiles.subdomains", "")
	v.SetDefault("tiles.tile_size", 256)
	v.SetDefault("tiles.max_per_request", 64)
	v.SetDefault("tiles.workers", 8)
	v.SetDefault("tiles.fetch_timeout", 10)
	v.SetDefault("tiles.jpeg_quality", 85)
	v.SetDefault("tiles.cache_ttl", 86400)
	v.SetDefault("storage.root", "./data")
	v.SetDefault("auth.session_ttl", 86400)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "maplabel-exports")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPLABEL_DATABASE_HOST → database.host
	v.SetEnvPrefix("MAPLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Tiles.Template == "" {
		errs = append(errs, "tiles.template is required")
	}
	if c.Tiles.TileSize <= 0 {
		errs = append(errs, "tiles.tile_size must be positive")
	}
	if c.Tiles.MaxPerRequest <= 0 {
		errs = append(errs, "tiles.max_per_request must be positive")
	}
	if c.Tiles.Workers <= 0 {
		errs = append(errs, "tiles.workers must be positive")
	}
	if c.Tiles.JPEGQuality < 1 || c.Tiles.JPEGQuality > 100 {
		errs = append(errs, fmt.Sprintf("tiles.jpeg_quality must be 1-100, got %d", c.Tiles.JPEGQuality))
	}
	if c.Storage.Root == "" {
		errs = append(errs, "storage.root is required")
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, "auth.session_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
