package config

import (
	"github.com/garyjia/caf-approval/internal/container"
)

// ToContainerConfig converts the file-based configuration into the
// container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Dispatcher: container.DispatcherConfig{
			HistoryCapacity:       c.Dispatcher.HistoryCapacity,
			LockTerminalDecisions: c.Dispatcher.LockTerminalDecisions,
		},
		Notification: container.NotificationConfig{
			Enabled:         c.Notification.Enabled,
			Channel:         c.Notification.Channel,
			FrontendBaseURL: c.Notification.FrontendBaseURL,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Redis: container.RedisConfig{
			Enabled:  c.Redis.Enabled,
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Stream:   c.Redis.Stream,
			MaxLen:   c.Redis.MaxLen,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			Debug:           c.Server.Debug,
		},
	}
}
