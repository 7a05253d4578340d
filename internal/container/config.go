// Package container wires the approval workflow service together and owns
// the lifecycle of its infrastructure.
package container

import (
	"fmt"
	"time"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite3"
	StorePostgres = "postgres"
)

// Notification channels
const (
	ChannelLark = "lark"
	ChannelLog  = "log"
)

// Config holds all configuration for the Container.
type Config struct {
	Database     DatabaseConfig
	Dispatcher   DispatcherConfig
	Notification NotificationConfig
	Lark         LarkConfig
	Redis        RedisConfig
	Server       ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is memory, sqlite3 or postgres
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the postgres connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies the embedded schema on start
	AutoMigrate bool
}

// DispatcherConfig holds event dispatch and workflow settings.
type DispatcherConfig struct {
	HistoryCapacity       int
	LockTerminalDecisions bool
}

// NotificationConfig holds notification observer settings.
type NotificationConfig struct {
	Enabled         bool
	Channel         string
	FrontendBaseURL string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// RedisConfig holds the event stream relay settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
}

// DefaultConfig returns an in-memory configuration that needs no external services.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          StoreMemory,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Dispatcher: DispatcherConfig{
			HistoryCapacity: 1000,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Channel: ChannelLog,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Notification.Enabled && c.Notification.Channel == ChannelLark {
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			return fmt.Errorf("lark credentials are required for the lark channel")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	return nil
}
