// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Bot      BotConfig      `mapstructure:"bot"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Nickname NicknameConfig `mapstructure:"nickname"`
	Promo    PromoConfig    `mapstructure:"promo"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	SiteURL         string        `mapstructure:"site_url"`
	ShopName        string        `mapstructure:"shop_name"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BotConfig holds Telegram bot configuration. The bot is disabled when no
// token is set.
type BotConfig struct {
	Token          string        `mapstructure:"token"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Enabled reports whether a bot token is configured.
func (b *BotConfig) Enabled() bool {
	return b.Token != ""
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Seed   bool   `mapstructure:"seed"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// NotifyConfig holds payment notification delivery configuration.
type NotifyConfig struct {
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	// FallbackToGameID treats a numeric game id as a chat id when the buyer
	// has not linked a chat.
	FallbackToGameID bool `mapstructure:"fallback_to_game_id"`
}

// NicknameConfig holds player nickname lookup configuration. Each source is
// a URL template with a single %s for the game id.
type NicknameConfig struct {
	Sources  []string      `mapstructure:"sources"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// PromoConfig holds defaults for newly created promo codes.
type PromoConfig struct {
	DefaultUsageLimit int `mapstructure:"default_usage_limit"`
	DefaultValidDays  int `mapstructure:"default_valid_days"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, SERVER_SITE_URL, STORAGE_DRIVER
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.site_url", "http://localhost:5000")
	v.SetDefault("server.shop_name", "Diamond Shop")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("bot.token", "")
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("bot.request_timeout", "15s")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.seed", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "diamond")
	v.SetDefault("database.name", "diamond_shop")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.timeout", "5s")
	v.SetDefault("notify.max_retries", 3)
	v.SetDefault("notify.initial_backoff", "500ms")
	v.SetDefault("notify.fallback_to_game_id", true)

	v.SetDefault("nickname.sources", []string{})
	v.SetDefault("nickname.timeout", "5s")
	v.SetDefault("nickname.cache_ttl", "10m")

	v.SetDefault("promo.default_usage_limit", 100)
	v.SetDefault("promo.default_valid_days", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("notify.workers must be positive, got %d", c.Notify.Workers)
	}
	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("notify.queue_size must be positive, got %d", c.Notify.QueueSize)
	}
	return nil
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
