package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Storage drivers accepted by database.driver
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Notification channels accepted by notification.channel
const (
	ChannelLark = "lark"
	ChannelLog  = "log"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Dispatcher   DispatcherConfig   `mapstructure:"dispatcher"`
	Notification NotificationConfig `mapstructure:"notification"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Debug           bool          `mapstructure:"debug"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DispatcherConfig holds event dispatcher and workflow settings
type DispatcherConfig struct {
	HistoryCapacity       int  `mapstructure:"history_capacity"`
	LockTerminalDecisions bool `mapstructure:"lock_terminal_decisions"`
}

// NotificationConfig holds notification settings
type NotificationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Channel         string `mapstructure:"channel"`
	FrontendBaseURL string `mapstructure:"frontend_base_url"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// RedisConfig holds the event stream relay settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file, a .env file in the
// working directory and the environment, in increasing priority
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of path without overriding ones
// already set; a missing file is not an error
func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.debug", false)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/caf.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("dispatcher.history_capacity", 1000)
	v.SetDefault("dispatcher.lock_terminal_decisions", false)

	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.channel", ChannelLog)
	v.SetDefault("notification.frontend_base_url", "http://localhost:3000")

	v.SetDefault("lark.base_url", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "caf:request-events")
	v.SetDefault("redis.max_len", 10000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed variables used by deployments
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"database.dsn":                   {"CAF_DATABASE_DSN", "DATABASE_URL"},
		"lark.app_id":                    {"CAF_LARK_APP_ID", "LARK_APP_ID"},
		"lark.app_secret":                {"CAF_LARK_APP_SECRET", "LARK_APP_SECRET"},
		"redis.addr":                     {"CAF_REDIS_ADDR", "REDIS_URL"},
		"redis.password":                 {"CAF_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"notification.frontend_base_url": {"CAF_NOTIFICATION_FRONTEND_BASE_URL", "FRONTEND_BASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be one of memory, sqlite3, postgres")
	}

	if c.Dispatcher.HistoryCapacity <= 0 {
		return fmt.Errorf("dispatcher.history_capacity must be positive")
	}

	if c.Notification.Enabled {
		switch c.Notification.Channel {
		case ChannelLog:
		case ChannelLark:
			if c.Lark.AppID == "" {
				return fmt.Errorf("lark.app_id is required for the lark channel")
			}
			if c.Lark.AppSecret == "" {
				return fmt.Errorf("lark.app_secret is required for the lark channel")
			}
		default:
			return fmt.Errorf("notification.channel must be lark or log")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	return nil
}
